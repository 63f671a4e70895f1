package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"eventbatch/internal/batch"
	"eventbatch/internal/logging"
	"eventbatch/internal/presets"
	"eventbatch/internal/testsupport"
	"eventbatch/internal/timeline"
)

func runnerFixture(t *testing.T, backend *testsupport.RecordingBackend) (*timeline.Project, *timeline.Track, batch.Options) {
	t.Helper()
	project, track := threeEventTrack()
	project.Configure(
		timeline.WithRenderBackend(backend),
		timeline.WithMediaProber(testsupport.FixedProber{Seconds: 10}),
	)
	opts := batch.Options{
		Mode:         batch.ModeEvents,
		BasePath:     filepath.Join(t.TempDir(), "Show_"),
		Items:        []timeline.RenderItem{proRes},
		MarginFrames: 10,
		StartNumber:  "00001",
	}
	return project, track, opts
}

func TestRunRendersAndSplicesEveryEvent(t *testing.T) {
	backend := &testsupport.RecordingBackend{}
	project, track, opts := runnerFixture(t, backend)
	before := snapshot(track)

	var progressed []batch.Job
	opts.Progress = func(job batch.Job) { progressed = append(progressed, job) }

	report, err := batch.NewRunner(project, logging.NewNop()).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Canceled || report.RunID == "" {
		t.Fatalf("unexpected report header %+v", report)
	}
	if diff := cmp.Diff(before, snapshot(track)); diff != "" {
		t.Fatalf("source track not restored (-want +got):\n%s", diff)
	}

	dir := filepath.Dir(opts.BasePath)
	wantPaths := []string{
		filepath.Join(dir, "Show_00001.mov"),
		filepath.Join(dir, "Show_00002.mov"),
		filepath.Join(dir, "Show_00003.mov"),
	}
	wantMargins := []batch.Margins{{Left: 5, Right: 10}, {Left: 10, Right: 0}, {Left: 10, Right: 10}}
	if len(report.Jobs) != 3 || len(progressed) != 3 {
		t.Fatalf("expected 3 jobs, got %d (progress %d)", len(report.Jobs), len(progressed))
	}
	for i, job := range report.Jobs {
		if job.Path != wantPaths[i] || job.Margins != wantMargins[i] || job.Status != batch.JobComplete {
			t.Fatalf("job %d = %+v", i, job)
		}
		if job.WindowStart != job.Start-job.Margins.Left || job.WindowLength != job.Length+job.Margins.Total() {
			t.Fatalf("job %d window mismatch: %+v", i, job)
		}
	}

	// The middle event renders alone with its padded window.
	middle := backend.Jobs[1]
	if middle.Start != 90 || middle.Length != 60 {
		t.Fatalf("render window = (%v, %v), want (90f, 60f)", middle.Start, middle.Length)
	}
	wantSegments := []timeline.Segment{{Kind: timeline.MediaVideo, MediaPath: "/media/V1/clipB.mov", Offset: 10, Start: 90, Length: 60}}
	if diff := cmp.Diff(wantSegments, middle.Segments); diff != "" {
		t.Fatalf("visible segments mismatch (-want +got):\n%s", diff)
	}

	tracks := project.Tracks()
	if len(tracks) != 2 || tracks[0].Name != "V1 [ ProRes HQ ]" || !tracks[0].Mute || tracks[1] != track {
		t.Fatalf("expected muted output track above the source, got %v", trackNames(tracks))
	}
	output := tracks[0]
	if output.Count() != 3 {
		t.Fatalf("expected 3 spliced events, got %d", output.Count())
	}
	for i, e := range output.Events() {
		src := track.At(i)
		if e.Start != src.Start || e.Length != src.Length {
			t.Fatalf("spliced event %d at (%v, %v), want (%v, %v)", i, e.Start, e.Length, src.Start, src.Length)
		}
		if e.ActiveTake().Offset != wantMargins[i].Left || e.ActiveTake().MediaPath() != wantPaths[i] {
			t.Fatalf("spliced event %d take = %+v", i, e.ActiveTake())
		}
	}
}

func TestRunFailedRenderAbortsAndRestores(t *testing.T) {
	backend := &testsupport.RecordingBackend{
		Statuses: []timeline.RenderStatus{timeline.RenderComplete, timeline.RenderFailed},
		Err:      errors.New("encoder crashed"),
	}
	project, track, opts := runnerFixture(t, backend)
	before := snapshot(track)

	report, err := batch.NewRunner(project, logging.NewNop()).Run(context.Background(), opts)
	if !errors.Is(err, batch.ErrRenderFailed) {
		t.Fatalf("expected render failure, got %v", err)
	}
	var failure *batch.RenderFailure
	if !errors.As(err, &failure) || failure.Template != "ProRes HQ" || !strings.HasSuffix(failure.Path, "Show_00002.mov") {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if failure.Start != "00:00:03.600" || failure.Length != "00:00:02.400" {
		t.Fatalf("failure should report the padded window, got %s / %s", failure.Start, failure.Length)
	}
	if diff := cmp.Diff(before, snapshot(track)); diff != "" {
		t.Fatalf("source track not restored after failure (-want +got):\n%s", diff)
	}
	if len(backend.Jobs) != 2 {
		t.Fatalf("run must stop after the failure, got %d renders", len(backend.Jobs))
	}
	if len(report.Jobs) != 2 || report.Jobs[1].Status != batch.JobFailed {
		t.Fatalf("unexpected report jobs %+v", report.Jobs)
	}
	if project.Tracks()[0].Count() != 1 {
		t.Fatalf("only the completed event should be spliced, got %d", project.Tracks()[0].Count())
	}
}

func TestRunCanceledStopsWithoutError(t *testing.T) {
	backend := &testsupport.RecordingBackend{
		Statuses: []timeline.RenderStatus{timeline.RenderComplete, timeline.RenderCanceled},
	}
	project, track, opts := runnerFixture(t, backend)
	opts.Items = append(opts.Items, timeline.NewRenderItem("ffmpeg", "H.264 Review", ".mp4"))
	before := snapshot(track)

	report, err := batch.NewRunner(project, logging.NewNop()).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("cancel must not surface as an error: %v", err)
	}
	if !report.Canceled {
		t.Fatal("expected Report.Canceled")
	}
	if len(backend.Jobs) != 2 {
		t.Fatalf("no render may follow a cancel, got %d", len(backend.Jobs))
	}
	if diff := cmp.Diff(before, snapshot(track)); diff != "" {
		t.Fatalf("source track not restored after cancel (-want +got):\n%s", diff)
	}
	if got := len(project.Tracks()); got != 2 {
		t.Fatalf("second item must not start, got %d tracks", got)
	}
}

func TestRunCanceledContext(t *testing.T) {
	backend := &testsupport.RecordingBackend{}
	project, _, opts := runnerFixture(t, backend)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := batch.NewRunner(project, logging.NewNop()).Run(ctx, opts)
	if err != nil || !report.Canceled {
		t.Fatalf("expected canceled report, got %+v err=%v", report, err)
	}
	if len(backend.Jobs) != 0 {
		t.Fatal("backend must not run with a canceled context")
	}
}

func TestRunNumberingContinuesAcrossItems(t *testing.T) {
	backend := &testsupport.RecordingBackend{}
	project, _, opts := runnerFixture(t, backend)
	opts.StartNumber = "098"
	opts.Items = append(opts.Items, timeline.NewRenderItem("ffmpeg", "H.264 Review", ".mp4"))

	report, err := batch.NewRunner(project, logging.NewNop()).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	var names []string
	for _, job := range report.Jobs {
		names = append(names, filepath.Base(job.Path))
	}
	want := []string{"Show_098.mov", "Show_099.mov", "Show_100.mov", "Show_101.mp4", "Show_102.mp4", "Show_103.mp4"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("numbering mismatch (-want +got):\n%s", diff)
	}
	if got := trackNames(project.Tracks()); !cmp.Equal(got, []string{"V1 [ ProRes HQ ]", "V1 [ H.264 Review ]", "V1"}) {
		t.Fatalf("unexpected track order %v", got)
	}
}

func TestRunOfflineWritesCommandFile(t *testing.T) {
	backend := &testsupport.RecordingBackend{}
	project, track, opts := runnerFixture(t, backend)
	before := snapshot(track)
	registry := presets.NewRegistry(logging.NewNop())
	preset, err := registry.Resolve("")
	if err != nil {
		t.Fatalf("resolve preset: %v", err)
	}
	opts.Mode = batch.ModeOffline
	opts.Preset = preset

	report, err := batch.NewRunner(project, logging.NewNop()).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(backend.Jobs) != 0 {
		t.Fatal("offline mode must not render")
	}
	if diff := cmp.Diff(before, snapshot(track)); diff != "" {
		t.Fatalf("offline mode mutated the source track (-want +got):\n%s", diff)
	}
	dir := filepath.Dir(opts.BasePath)
	wantFile := filepath.Join(dir, "BatchEncodeEvents_[ProRes HQ].bat")
	if len(report.CommandFiles) != 1 || report.CommandFiles[0] != wantFile {
		t.Fatalf("unexpected command files %v", report.CommandFiles)
	}
	data, err := os.ReadFile(wantFile)
	if err != nil {
		t.Fatalf("read command file: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	if lines[0] != "" || len(lines) != 5 {
		t.Fatalf("expected leading blank line and three commands, got %q", data)
	}
	want := `ffmpeg -i "/media/V1/clipA.mov" -ss 00:00:00.000 -t 00:00:04.600 -vcodec prores -profile 2 -acodec copy "` + filepath.Join(dir, "Show_00001.mov") + `"`
	if lines[1] != want {
		t.Fatalf("first command:\n got %s\nwant %s", lines[1], want)
	}
	if !strings.Contains(lines[2], "-ss 00:00:00.400 -t 00:00:02.400") {
		t.Fatalf("second command window wrong: %s", lines[2])
	}

	output := project.Tracks()[0]
	if output.Count() != 3 || !output.At(0).ActiveTake().Media.Offline || output.At(0).ActiveTake().Offset != 0 {
		t.Fatalf("expected offline placeholders on the output track")
	}
	for _, job := range report.Jobs {
		if job.Status != batch.JobDeferred {
			t.Fatalf("offline job status = %s", job.Status)
		}
	}
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*timeline.Project, *batch.Options)
		want   string
	}{
		{"no templates", func(_ *timeline.Project, o *batch.Options) { o.Items = nil }, "no render templates"},
		{"missing dir", func(_ *timeline.Project, o *batch.Options) { o.BasePath = "/does/not/exist/Show_" }, "output directory"},
		{"no tracks", func(p *timeline.Project, _ *batch.Options) { p.Tracks()[0].Selected = false }, "no tracks selected"},
		{"wrong kind", func(_ *timeline.Project, o *batch.Options) { o.MediaKind = timeline.MediaAudio }, "no tracks selected"},
		{"no preset", func(_ *timeline.Project, o *batch.Options) { o.Mode = batch.ModeOffline }, "preset"},
		{"empty selection", func(_ *timeline.Project, o *batch.Options) { o.Mode = batch.ModeSelection }, "selection"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := &testsupport.RecordingBackend{}
			project, _, opts := runnerFixture(t, backend)
			tc.mutate(project, &opts)
			_, err := batch.NewRunner(project, logging.NewNop()).Run(context.Background(), opts)
			if !errors.Is(err, batch.ErrValidation) || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected validation error mentioning %q, got %v", tc.want, err)
			}
			if len(backend.Jobs) != 0 {
				t.Fatal("nothing may render after a validation error")
			}
		})
	}
}

func TestRunNoEventsOnSelectedTracks(t *testing.T) {
	project := timeline.NewProject(25)
	project.AddTrack(timeline.MediaVideo, "Empty").Selected = true
	opts := batch.Options{Mode: batch.ModeEvents, BasePath: filepath.Join(t.TempDir(), "x_"), Items: []timeline.RenderItem{proRes}}

	_, err := batch.NewRunner(project, logging.NewNop()).Run(context.Background(), opts)
	if !errors.Is(err, batch.ErrValidation) || !strings.Contains(err.Error(), "no events") {
		t.Fatalf("expected no-events validation error, got %v", err)
	}
}

func TestRunExistingFileAbortsBeforeRender(t *testing.T) {
	backend := &testsupport.RecordingBackend{}
	project, track, opts := runnerFixture(t, backend)
	before := snapshot(track)
	testsupport.WriteFile(t, filepath.Join(filepath.Dir(opts.BasePath), "Show_00001.mov"), 1)

	_, err := batch.NewRunner(project, logging.NewNop()).Run(context.Background(), opts)
	if !errors.Is(err, batch.ErrValidation) || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing-file validation error, got %v", err)
	}
	if diff := cmp.Diff(before, snapshot(track)); diff != "" {
		t.Fatalf("source track not restored (-want +got):\n%s", diff)
	}
}

func TestRunRegionsSelectionAndProject(t *testing.T) {
	backend := &testsupport.RecordingBackend{}
	project, _, opts := runnerFixture(t, backend)
	if _, err := timeline.AddRegionsForEvents(project); err != nil {
		t.Fatalf("AddRegionsForEvents: %v", err)
	}
	project.SetSelection(25, 50)
	dir := filepath.Dir(opts.BasePath)
	runner := batch.NewRunner(project, logging.NewNop())

	opts.Mode = batch.ModeRegions
	report, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("regions: %v", err)
	}
	if len(report.Jobs) != 3 || report.Jobs[2].Path != filepath.Join(dir, "Show_ffmpeg_ProRes HQ[2].mov") {
		t.Fatalf("unexpected region jobs %+v", report.Jobs)
	}
	if report.Jobs[1].WindowStart != 100 || report.Jobs[1].WindowLength != 50 {
		t.Fatalf("region window should be unpadded: %+v", report.Jobs[1])
	}

	opts.Mode = batch.ModeSelection
	report, err = runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	if len(report.Jobs) != 1 || report.Jobs[0].Path != filepath.Join(dir, "Show_ffmpeg_ProRes HQ.mov") || report.Jobs[0].WindowStart != 25 {
		t.Fatalf("unexpected selection job %+v", report.Jobs)
	}

	opts.Mode = batch.ModeProject
	opts.Overwrite = true
	report, err = runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if report.Jobs[0].WindowStart != 0 || report.Jobs[0].WindowLength != 250 {
		t.Fatalf("project render should cover the whole timeline: %+v", report.Jobs[0])
	}
	if len(project.Tracks()) != 1 {
		t.Fatal("pass-through modes must not add output tracks")
	}
}

func TestPlanDoesNotTouchTimeline(t *testing.T) {
	backend := &testsupport.RecordingBackend{}
	project, track, opts := runnerFixture(t, backend)
	before := snapshot(track)

	report, err := batch.NewRunner(project, logging.NewNop()).Plan(opts)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(backend.Jobs) != 0 || len(project.Tracks()) != 1 {
		t.Fatal("Plan must not render or add tracks")
	}
	if diff := cmp.Diff(before, snapshot(track)); diff != "" {
		t.Fatalf("Plan mutated the track (-want +got):\n%s", diff)
	}
	if len(report.Jobs) != 3 || report.Jobs[1].WindowStart != 90 || report.Jobs[1].WindowLength != 60 || report.Jobs[1].Status != batch.JobPlanned {
		t.Fatalf("unexpected plan %+v", report.Jobs)
	}

	opts.Mode = batch.ModeOffline
	opts.Preset = presets.Preset{Label: "x", Template: "{0}"}
	report, err = batch.NewRunner(project, logging.NewNop()).Plan(opts)
	if err != nil {
		t.Fatalf("Plan offline returned error: %v", err)
	}
	if report.Jobs[0].WindowStart != 0 || len(report.CommandFiles) != 1 {
		t.Fatalf("unexpected offline plan %+v", report)
	}
}

func TestParseMode(t *testing.T) {
	if mode, err := batch.ParseMode(" Offline "); err != nil || mode != batch.ModeOffline {
		t.Fatalf("ParseMode = %v, %v", mode, err)
	}
	if mode, _ := batch.ParseMode(""); mode != batch.ModeEvents {
		t.Fatalf("empty mode should default to events, got %v", mode)
	}
	if _, err := batch.ParseMode("batch"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func trackNames(tracks []*timeline.Track) []string {
	names := make([]string, len(tracks))
	for i, track := range tracks {
		names[i] = track.Name
	}
	return names
}

func TestRunRecordsJobWhenSpliceFails(t *testing.T) {
	backend := &testsupport.RecordingBackend{}
	project, track, opts := runnerFixture(t, backend)
	probeErr := errors.New("unreadable output")
	project.Configure(timeline.WithMediaProber(testsupport.FixedProber{Err: probeErr}))
	before := snapshot(track)

	var progressed []batch.Job
	opts.Progress = func(job batch.Job) { progressed = append(progressed, job) }

	report, err := batch.NewRunner(project, logging.NewNop()).Run(context.Background(), opts)
	if !errors.Is(err, probeErr) {
		t.Fatalf("expected splice error, got %v", err)
	}
	if report == nil || len(report.Jobs) != 1 || len(progressed) != 1 {
		t.Fatalf("expected the rendered job to be reported, got %+v", report)
	}
	job := report.Jobs[0]
	if job.Status != batch.JobFailed || filepath.Base(job.Path) != "Show_00001.mov" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if _, err := os.Stat(job.Path); err != nil {
		t.Fatalf("rendered file should remain on disk: %v", err)
	}
	if diff := cmp.Diff(before, snapshot(track)); diff != "" {
		t.Fatalf("source track not restored (-want +got):\n%s", diff)
	}
}
