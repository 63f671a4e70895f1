package batch

import (
	"fmt"
	"path/filepath"

	"eventbatch/internal/timeline"
)

// Plan validates opts and lists the jobs Run would execute without touching
// the timeline or invoking the renderer. Offline plans carry the source-media
// window that would be written to the command file.
func (r *Runner) Plan(opts Options) (*Report, error) {
	tracks, err := r.validate(opts)
	if err != nil {
		return nil, err
	}

	state := newRunState(opts)
	report := &Report{RunID: state.ID, Mode: opts.Mode}
	requested := timeline.FromFrames(opts.MarginFrames)
	dir, _ := splitBase(opts.BasePath)

	for _, item := range opts.Items {
		switch opts.Mode {
		case ModeEvents, ModeOffline:
			for _, track := range tracks {
				for index, event := range track.Events() {
					var job Job
					if opts.Mode == ModeOffline {
						job = deferredJob(opts, state, track, index, event, item, requested)
					} else {
						margins := EventMargins(event, requested)
						job = Job{
							Mode:         ModeEvents,
							Track:        track.Name,
							EventIndex:   index,
							Item:         item,
							Path:         eventOutputPath(opts.BasePath, state.numbers.Next(), item),
							Margins:      margins,
							Start:        event.Start,
							Length:       event.Length,
							WindowStart:  event.Start - margins.Left,
							WindowLength: event.Length + margins.Total(),
						}
					}
					job.Status = JobPlanned
					report.Jobs = append(report.Jobs, job)
				}
			}
			if opts.Mode == ModeOffline {
				report.CommandFiles = append(report.CommandFiles, filepath.Join(dir, CommandFileName(opts.CommandFile, item)))
			}
		case ModeRegions:
			stem := itemOutputStem(opts.BasePath, item)
			for index, region := range r.host.Regions() {
				report.Jobs = append(report.Jobs, Job{
					Mode:         ModeRegions,
					EventIndex:   index,
					Item:         item,
					Path:         fmt.Sprintf("%s[%d]%s", stem, index, item.Extension),
					Start:        region.Start,
					Length:       region.Length,
					WindowStart:  region.Start,
					WindowLength: region.Length,
					Status:       JobPlanned,
				})
			}
		case ModeSelection, ModeProject:
			start, length := timeline.Timecode(0), r.host.Length()
			if opts.Mode == ModeSelection {
				start, length = r.host.Selection()
			}
			report.Jobs = append(report.Jobs, Job{
				Mode:         opts.Mode,
				EventIndex:   -1,
				Item:         item,
				Path:         itemOutputStem(opts.BasePath, item) + item.Extension,
				Start:        start,
				Length:       length,
				WindowStart:  start,
				WindowLength: length,
				Status:       JobPlanned,
			})
		}
	}
	return report, nil
}
