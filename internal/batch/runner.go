package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"eventbatch/internal/logging"
	"eventbatch/internal/presets"
	"eventbatch/internal/timeline"
)

// Mode selects what a batch run renders.
type Mode string

const (
	ModeEvents    Mode = "events"
	ModeOffline   Mode = "offline"
	ModeRegions   Mode = "regions"
	ModeSelection Mode = "selection"
	ModeProject   Mode = "project"
)

// ParseMode maps user input to a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeEvents, "":
		return ModeEvents, nil
	case ModeOffline:
		return ModeOffline, nil
	case ModeRegions:
		return ModeRegions, nil
	case ModeSelection:
		return ModeSelection, nil
	case ModeProject:
		return ModeProject, nil
	default:
		return "", fmt.Errorf("unknown render mode %q", value)
	}
}

// JobStatus is the outcome of one batch job.
type JobStatus string

const (
	JobPlanned  JobStatus = "planned"
	JobComplete JobStatus = "complete"
	JobDeferred JobStatus = "deferred"
	JobCanceled JobStatus = "canceled"
	JobFailed   JobStatus = "failed"
)

// Job is one (track, event, render item) unit of work. Region, selection, and
// project renders leave Track empty and EventIndex at -1 (regions use it for
// the region number).
type Job struct {
	Mode         Mode
	Track        string
	EventIndex   int
	Item         timeline.RenderItem
	Path         string
	Margins      Margins
	Start        timeline.Timecode
	Length       timeline.Timecode
	WindowStart  timeline.Timecode
	WindowLength timeline.Timecode
	Status       JobStatus
}

// Options are the validated inputs of one batch run.
type Options struct {
	Mode         Mode
	BasePath     string
	Items        []timeline.RenderItem
	MarginFrames int
	StartNumber  string
	Overwrite    bool
	MediaKind    timeline.MediaKind
	Preset       presets.Preset
	CommandFile  string
	// Progress, when set, is called after every finished job.
	Progress func(Job)
}

// Report summarizes a batch run.
type Report struct {
	RunID        string
	Mode         Mode
	Jobs         []Job
	CommandFiles []string
	Canceled     bool
}

// Host is everything a batch run needs from the editing environment.
type Host interface {
	timeline.Timeline
	timeline.Renderer
	timeline.MediaSource
}

// RunState is the per-run accumulator: file numbering and the deferred
// command parameters. It never outlives one Run call.
type RunState struct {
	ID       string
	numbers  *Sequencer
	commands map[timeline.RenderItem][]presets.Params
}

func newRunState(opts Options) *RunState {
	return &RunState{
		ID:       uuid.NewString(),
		numbers:  ParseSequencer(opts.StartNumber, 1, DefaultNumberWidth),
		commands: make(map[timeline.RenderItem][]presets.Params),
	}
}

// Runner executes batch renders against a host.
type Runner struct {
	host          Host
	logger        *slog.Logger
	writeCommands func(path, content string) error
	statDir       func(string) (os.FileInfo, error)
}

// NewRunner constructs a Runner.
func NewRunner(host Host, logger *slog.Logger) *Runner {
	return &Runner{
		host:          host,
		logger:        logging.NewComponentLogger(logger, "batch"),
		writeCommands: presets.WriteCommandFile,
		statDir:       os.Stat,
	}
}

// Run processes render items in order, then selected tracks in order, then
// events in index order. A canceled render stops all remaining work and is
// reported through Report.Canceled; validation problems and render failures
// abort the run with an error. The timeline is restored before any error is
// returned.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	tracks, err := r.validate(opts)
	if err != nil {
		return nil, err
	}

	state := newRunState(opts)
	ctx = logging.WithRunID(ctx, state.ID)
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldRenderMode, string(opts.Mode)))
	report := &Report{RunID: state.ID, Mode: opts.Mode}

	logger.Info("batch run started",
		logging.Int("render_items", len(opts.Items)),
		logging.Int("tracks", len(tracks)),
		logging.String("base", opts.BasePath),
	)

	dispatcher := NewDispatcher(r.host, r.host.FrameRate(), opts.Overwrite, logger)
	splicer := NewSplicer(r.host, r.host, logger)

	for _, item := range opts.Items {
		var canceled bool
		switch opts.Mode {
		case ModeEvents:
			canceled, err = r.renderEvents(ctx, logger, opts, state, dispatcher, splicer, tracks, item, report)
		case ModeOffline:
			err = r.deferEvents(ctx, opts, state, splicer, tracks, item, report)
		case ModeRegions:
			canceled, err = r.renderRegions(ctx, opts, dispatcher, item, report)
		case ModeSelection, ModeProject:
			canceled, err = r.renderRange(ctx, opts, dispatcher, item, report)
		}
		if err != nil {
			logging.ErrorWithContext(logger, "batch run failed", "batch_failed",
				logging.Error(err),
				logging.String("template", item.Template),
			)
			return report, err
		}
		if canceled {
			report.Canceled = true
			logger.Info("batch run canceled", logging.Int("jobs", len(report.Jobs)))
			return report, nil
		}
	}

	if opts.Mode == ModeOffline {
		if err := r.flushCommands(opts, state, report); err != nil {
			return report, err
		}
	}

	logger.Info("batch run finished", logging.Int("jobs", len(report.Jobs)))
	return report, nil
}

func (r *Runner) validate(opts Options) ([]*timeline.Track, error) {
	if len(opts.Items) == 0 {
		return nil, validationf("", "no render templates selected")
	}
	if strings.TrimSpace(opts.BasePath) == "" {
		return nil, validationf("", "no output base path")
	}
	dir, _ := splitBase(opts.BasePath)
	info, err := r.statDir(dir)
	if err != nil || !info.IsDir() {
		return nil, validationf(dir, "the output directory does not exist")
	}
	if opts.MarginFrames < 0 {
		return nil, validationf("", "margin frames must not be negative")
	}

	switch opts.Mode {
	case ModeEvents, ModeOffline:
		tracks := SelectedTracks(r.host, opts.MediaKind)
		if len(tracks) == 0 {
			return nil, validationf("", "no tracks selected")
		}
		if countEvents(tracks) == 0 {
			return nil, validationf("", "no events on selected tracks")
		}
		if opts.Mode == ModeOffline && strings.TrimSpace(opts.Preset.Template) == "" {
			return nil, validationf("", "no external command preset selected")
		}
		return tracks, nil
	case ModeSelection:
		if _, length := r.host.Selection(); length <= 0 {
			return nil, validationf("", "the selection is empty")
		}
		return nil, nil
	case ModeRegions, ModeProject:
		return nil, nil
	default:
		return nil, validationf("", "unknown render mode %q", opts.Mode)
	}
}

// SelectedTracks returns the selected tracks of kind, top first. An empty
// kind selects video.
func SelectedTracks(tl timeline.Timeline, kind timeline.MediaKind) []*timeline.Track {
	if kind == "" {
		kind = timeline.MediaVideo
	}
	var out []*timeline.Track
	for _, track := range tl.Tracks() {
		if track.Selected && track.Kind == kind {
			out = append(out, track)
		}
	}
	return out
}

func countEvents(tracks []*timeline.Track) int {
	total := 0
	for _, track := range tracks {
		total += track.Count()
	}
	return total
}

func (r *Runner) targetTrack(source *timeline.Track, item timeline.RenderItem) *timeline.Track {
	target := r.host.InsertTrack(r.host.TrackIndex(source), source.Kind, TargetTrackName(source.Name, item))
	target.Mute = true
	return target
}

func (r *Runner) renderEvents(ctx context.Context, logger *slog.Logger, opts Options, state *RunState, dispatcher *Dispatcher, splicer *Splicer, tracks []*timeline.Track, item timeline.RenderItem, report *Report) (bool, error) {
	requested := timeline.FromFrames(opts.MarginFrames)
	for _, track := range tracks {
		if track.Count() == 0 {
			continue
		}
		target := r.targetTrack(track, item)
		trackCtx := logging.WithTrack(ctx, track.Name)

		for index, event := range track.Events() {
			margins := EventMargins(event, requested)
			job := Job{
				Mode:       ModeEvents,
				Track:      track.Name,
				EventIndex: index,
				Item:       item,
				Path:       eventOutputPath(opts.BasePath, state.numbers.Next(), item),
				Margins:    margins,
				Start:      event.Start,
				Length:     event.Length,
			}

			var status timeline.RenderStatus
			err := WithIsolation(track, event, margins, func(start, length timeline.Timecode) error {
				job.WindowStart, job.WindowLength = start, length
				var renderErr error
				status, renderErr = dispatcher.Render(trackCtx, job.Path, item, start, length)
				return renderErr
			})
			if err != nil {
				job.Status = JobFailed
				r.finish(opts, report, job)
				return false, err
			}
			if status == timeline.RenderCanceled {
				job.Status = JobCanceled
				r.finish(opts, report, job)
				return true, nil
			}

			if _, err := splicer.Splice(trackCtx, SpliceRequest{
				Source:  event,
				Target:  target,
				Path:    job.Path,
				Start:   job.Start,
				Length:  job.Length,
				Margins: margins,
			}); err != nil {
				job.Status = JobFailed
				r.finish(opts, report, job)
				return false, err
			}
			job.Status = JobComplete
			r.finish(opts, report, job)
			logging.WithContext(trackCtx, logger).Debug("event rendered",
				logging.Int(logging.FieldEventIndex, index),
				logging.String("path", job.Path),
				logging.Int64("margin_left", margins.Left.Frames()),
				logging.Int64("margin_right", margins.Right.Frames()),
			)
		}
	}
	return false, nil
}

func (r *Runner) deferEvents(ctx context.Context, opts Options, state *RunState, splicer *Splicer, tracks []*timeline.Track, item timeline.RenderItem, report *Report) error {
	requested := timeline.FromFrames(opts.MarginFrames)
	rate := r.host.FrameRate()
	for _, track := range tracks {
		if track.Count() == 0 {
			continue
		}
		target := r.targetTrack(track, item)
		for index, event := range track.Events() {
			job := deferredJob(opts, state, track, index, event, item, requested)
			if err := ValidateFilePath(job.Path); err != nil {
				return err
			}
			if _, err := splicer.Splice(ctx, SpliceRequest{
				Source:  event,
				Target:  target,
				Path:    job.Path,
				Start:   job.Start,
				Length:  job.Length,
				Margins: job.Margins,
				Offline: true,
			}); err != nil {
				return err
			}
			state.commands[item] = append(state.commands[item], presets.Params{
				Source:      event.ActiveTake().MediaPath(),
				Destination: job.Path,
				Start:       job.WindowStart.Format(rate),
				Duration:    job.WindowLength.Format(rate),
			})
			job.Status = JobDeferred
			r.finish(opts, report, job)
		}
	}
	return nil
}

// deferredJob computes an offline job. The window is expressed in source
// media time: it starts at the take offset minus the head margin.
func deferredJob(opts Options, state *RunState, track *timeline.Track, index int, event *timeline.Event, item timeline.RenderItem, requested timeline.Timecode) Job {
	margins := EventMargins(event, requested)
	var offset timeline.Timecode
	if take := event.ActiveTake(); take != nil {
		offset = take.Offset
	}
	return Job{
		Mode:         ModeOffline,
		Track:        track.Name,
		EventIndex:   index,
		Item:         item,
		Path:         eventOutputPath(opts.BasePath, state.numbers.Next(), item),
		Margins:      margins,
		Start:        event.Start,
		Length:       event.Length,
		WindowStart:  offset - margins.Left,
		WindowLength: event.Length + margins.Total(),
	}
}

func (r *Runner) flushCommands(opts Options, state *RunState, report *Report) error {
	dir, _ := splitBase(opts.BasePath)
	for _, item := range opts.Items {
		params := state.commands[item]
		if len(params) == 0 {
			continue
		}
		content, err := presets.Generate(opts.Preset.Template, params)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, CommandFileName(opts.CommandFile, item))
		if err := r.writeCommands(path, content); err != nil {
			return err
		}
		report.CommandFiles = append(report.CommandFiles, path)
		r.logger.Info("command file written",
			logging.String("path", path),
			logging.String("preset", opts.Preset.Label),
			logging.Int("commands", len(params)),
		)
	}
	return nil
}

func (r *Runner) renderRegions(ctx context.Context, opts Options, dispatcher *Dispatcher, item timeline.RenderItem, report *Report) (bool, error) {
	stem := itemOutputStem(opts.BasePath, item)
	for index, region := range r.host.Regions() {
		job := Job{
			Mode:         ModeRegions,
			EventIndex:   index,
			Item:         item,
			Path:         fmt.Sprintf("%s[%d]%s", stem, index, item.Extension),
			Start:        region.Start,
			Length:       region.Length,
			WindowStart:  region.Start,
			WindowLength: region.Length,
		}
		canceled, err := r.renderJob(ctx, opts, dispatcher, report, job)
		if err != nil || canceled {
			return canceled, err
		}
	}
	return false, nil
}

func (r *Runner) renderRange(ctx context.Context, opts Options, dispatcher *Dispatcher, item timeline.RenderItem, report *Report) (bool, error) {
	start, length := timeline.Timecode(0), r.host.Length()
	if opts.Mode == ModeSelection {
		start, length = r.host.Selection()
	}
	job := Job{
		Mode:         opts.Mode,
		EventIndex:   -1,
		Item:         item,
		Path:         itemOutputStem(opts.BasePath, item) + item.Extension,
		Start:        start,
		Length:       length,
		WindowStart:  start,
		WindowLength: length,
	}
	return r.renderJob(ctx, opts, dispatcher, report, job)
}

func (r *Runner) renderJob(ctx context.Context, opts Options, dispatcher *Dispatcher, report *Report, job Job) (bool, error) {
	status, err := dispatcher.Render(ctx, job.Path, job.Item, job.WindowStart, job.WindowLength)
	switch {
	case err != nil:
		job.Status = JobFailed
	case status == timeline.RenderCanceled:
		job.Status = JobCanceled
	default:
		job.Status = JobComplete
	}
	r.finish(opts, report, job)
	return status == timeline.RenderCanceled, err
}

func (r *Runner) finish(opts Options, report *Report, job Job) {
	report.Jobs = append(report.Jobs, job)
	if opts.Progress != nil {
		opts.Progress(job)
	}
}
