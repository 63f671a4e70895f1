package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"eventbatch/internal/timeline"
)

// EventFixture describes one event for NewProject: start and length in frames,
// the take offset, and the source media length.
type EventFixture struct {
	Start       int
	Length      int
	Offset      int
	MediaLength int
	Media       string
	FadeIn      int
	FadeOut     int
	Transition  string
	Mute        bool
}

// TrackFixture describes one selected video track for NewProject.
type TrackFixture struct {
	Name   string
	Kind   timeline.MediaKind
	Events []EventFixture
}

// NewProject builds a 25 fps project with the given tracks selected. Every
// event gets its own media unless EventFixture.Media names a shared path.
func NewProject(tracks []TrackFixture, opts ...timeline.ProjectOption) *timeline.Project {
	project := timeline.NewProject(timeline.DefaultFrameRate, opts...)
	for _, fixture := range tracks {
		kind := fixture.Kind
		if kind == "" {
			kind = timeline.MediaVideo
		}
		track := project.AddTrack(kind, fixture.Name)
		track.Selected = true
		for i, ev := range fixture.Events {
			path := ev.Media
			if path == "" {
				path = filepath.Join("/media", fixture.Name, "clip"+string(rune('A'+i))+".mov")
			}
			media := project.AddMedia(&timeline.Media{
				Path:     path,
				Length:   timeline.FromFrames(ev.MediaLength),
				TapeName: "Tape " + fixture.Name,
				Comment:  "source " + filepath.Base(path),
			})
			event := timeline.NewEvent(timeline.FromFrames(ev.Start), timeline.FromFrames(ev.Length))
			event.Mute = ev.Mute
			event.FadeIn.Length = timeline.FromFrames(ev.FadeIn)
			event.FadeOut.Length = timeline.FromFrames(ev.FadeOut)
			if ev.Transition != "" {
				event.FadeIn.Transition = project.AddTransition(ev.Transition)
				event.FadeOut.Transition = project.AddTransition(ev.Transition)
			}
			event.AddTake(&timeline.Take{Media: media, Offset: timeline.FromFrames(ev.Offset)})
			track.Add(event)
		}
	}
	return project
}

// RecordingBackend is a timeline.RenderBackend that records every job. It
// writes a small file at the job path on success. Statuses, when set, are
// returned in order; the last one repeats.
type RecordingBackend struct {
	mu       sync.Mutex
	Jobs     []timeline.RenderJob
	Statuses []timeline.RenderStatus
	Err      error
	// Observe, when set, runs inside Render before the file is written.
	Observe func(timeline.RenderJob)
}

func (b *RecordingBackend) Render(ctx context.Context, job timeline.RenderJob) (timeline.RenderStatus, error) {
	b.mu.Lock()
	b.Jobs = append(b.Jobs, job)
	status := timeline.RenderComplete
	if n := len(b.Statuses); n > 0 {
		idx := len(b.Jobs) - 1
		if idx >= n {
			idx = n - 1
		}
		status = b.Statuses[idx]
	}
	b.mu.Unlock()

	if b.Observe != nil {
		b.Observe(job)
	}
	if status != timeline.RenderComplete {
		return status, b.Err
	}
	if err := os.MkdirAll(filepath.Dir(job.Path), 0o755); err != nil {
		return timeline.RenderFailed, err
	}
	if err := os.WriteFile(job.Path, []byte("rendered"), 0o644); err != nil {
		return timeline.RenderFailed, err
	}
	return status, nil
}

// FixedProber reports the same duration for every path.
type FixedProber struct {
	Seconds float64
	Err     error
}

func (p FixedProber) ProbeDuration(context.Context, string) (float64, error) {
	return p.Seconds, p.Err
}
