package timeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Project is an in-process host timeline.
type Project struct {
	rate           float64
	selectionStart Timecode
	selectionLen   Timecode

	tracks      []*Track
	regions     []Region
	transitions []*Transition
	media       []*Media

	backend RenderBackend
	prober  MediaProber
}

// ProjectOption configures a Project.
type ProjectOption func(*Project)

// WithRenderBackend sets the backend used by Render.
func WithRenderBackend(backend RenderBackend) ProjectOption {
	return func(p *Project) {
		p.backend = backend
	}
}

// WithMediaProber sets the prober used by OpenMedia.
func WithMediaProber(prober MediaProber) ProjectOption {
	return func(p *Project) {
		p.prober = prober
	}
}

// NewProject constructs an empty project at the given frame rate.
func NewProject(rate float64, opts ...ProjectOption) *Project {
	p := &Project{rate: normalizeRate(rate)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Configure applies options to an existing project, which is how a loaded
// project gets its render backend and prober.
func (p *Project) Configure(opts ...ProjectOption) {
	for _, opt := range opts {
		opt(p)
	}
}

// FrameRate returns the project frame rate.
func (p *Project) FrameRate() float64 {
	return p.rate
}

// Tracks returns the project's tracks, top first.
func (p *Project) Tracks() []*Track {
	out := make([]*Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// AddTrack appends a track at the bottom of the project.
func (p *Project) AddTrack(kind MediaKind, name string) *Track {
	track := NewTrack(kind, name)
	p.tracks = append(p.tracks, track)
	return track
}

// InsertTrack places a new track at index, pushing the track already there
// down. Out-of-range indexes append.
func (p *Project) InsertTrack(index int, kind MediaKind, name string) *Track {
	track := NewTrack(kind, name)
	if index < 0 || index >= len(p.tracks) {
		p.tracks = append(p.tracks, track)
		return track
	}
	p.tracks = append(p.tracks, nil)
	copy(p.tracks[index+1:], p.tracks[index:])
	p.tracks[index] = track
	return track
}

// TrackIndex returns the position of track, or -1.
func (p *Project) TrackIndex(track *Track) int {
	for i, candidate := range p.tracks {
		if candidate == track {
			return i
		}
	}
	return -1
}

// AddTransition registers a transition in the catalog. Names are unique; the
// existing entry is returned for duplicates.
func (p *Project) AddTransition(name string) *Transition {
	if existing, ok := p.LookupTransition(name); ok {
		return existing
	}
	tr := &Transition{Name: strings.TrimSpace(name)}
	p.transitions = append(p.transitions, tr)
	return tr
}

// Transitions lists the catalog in registration order.
func (p *Project) Transitions() []*Transition {
	out := make([]*Transition, len(p.transitions))
	copy(out, p.transitions)
	return out
}

// LookupTransition finds a catalog entry by descriptive name.
func (p *Project) LookupTransition(name string) (*Transition, bool) {
	name = strings.TrimSpace(name)
	for _, tr := range p.transitions {
		if tr.Name == name {
			return tr, true
		}
	}
	return nil, false
}

// AddRegion appends a region marker.
func (p *Project) AddRegion(region Region) {
	p.regions = append(p.regions, region)
}

// Regions returns region markers in insertion order.
func (p *Project) Regions() []Region {
	out := make([]Region, len(p.regions))
	copy(out, p.regions)
	return out
}

// SetSelection sets the timeline selection range.
func (p *Project) SetSelection(start, length Timecode) {
	p.selectionStart = start
	p.selectionLen = maxTimecode(0, length)
}

// Selection returns the current selection range.
func (p *Project) Selection() (Timecode, Timecode) {
	return p.selectionStart, p.selectionLen
}

// Length is the end of the last event on any track.
func (p *Project) Length() Timecode {
	var end Timecode
	for _, track := range p.tracks {
		for _, e := range track.events {
			end = maxTimecode(end, e.End())
		}
	}
	return end
}

// AddMedia registers media in the pool, returning the pooled entry when a
// media with the same path already exists.
func (p *Project) AddMedia(media *Media) *Media {
	for _, existing := range p.media {
		if existing.Path == media.Path {
			return existing
		}
	}
	p.media = append(p.media, media)
	return media
}

// Media lists the media pool in registration order.
func (p *Project) Media() []*Media {
	out := make([]*Media, len(p.media))
	copy(out, p.media)
	return out
}

// OpenMedia registers a decoded media file, probing its length.
func (p *Project) OpenMedia(ctx context.Context, path string) (*Media, error) {
	for _, existing := range p.media {
		if existing.Path == path && !existing.Offline {
			return existing, nil
		}
	}
	if p.prober == nil {
		return nil, errors.New("open media: no media prober configured")
	}
	seconds, err := p.prober.ProbeDuration(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open media %s: %w", path, err)
	}
	media := &Media{Path: path, Length: FromSeconds(seconds, p.rate)}
	p.media = append(p.media, media)
	return media, nil
}

// OfflineMedia registers a placeholder for a file that will be produced later.
func (p *Project) OfflineMedia(path string) *Media {
	return p.AddMedia(&Media{Path: path, Offline: true})
}

// Render hands the visible material in the window to the render backend.
func (p *Project) Render(ctx context.Context, path string, item RenderItem, start, length Timecode) (RenderStatus, error) {
	if p.backend == nil {
		return RenderFailed, errors.New("render: no render backend configured")
	}
	if err := ctx.Err(); err != nil {
		return RenderCanceled, nil
	}
	job := RenderJob{
		Path:      path,
		Item:      item,
		Start:     start,
		Length:    length,
		FrameRate: p.rate,
		Segments:  p.VisibleSegments(start, length),
	}
	return p.backend.Render(ctx, job)
}

// VisibleSegments returns the source material visible in the window. The
// topmost unmuted track of the first kind that has unmuted events in the
// window wins; video is preferred over audio.
func (p *Project) VisibleSegments(start, length Timecode) []Segment {
	for _, kind := range []MediaKind{MediaVideo, MediaAudio} {
		for _, track := range p.tracks {
			if track.Mute || track.Kind != kind {
				continue
			}
			if segments := trackSegments(track, start, length); len(segments) > 0 {
				return segments
			}
		}
	}
	return nil
}

func trackSegments(track *Track, start, length Timecode) []Segment {
	windowEnd := start + length
	var segments []Segment
	for _, e := range track.events {
		if e.Mute {
			continue
		}
		take := e.ActiveTake()
		if take == nil || take.Media == nil || take.Media.Offline {
			continue
		}
		segStart := maxTimecode(start, e.Start)
		segEnd := minTimecode(windowEnd, e.End())
		if segEnd <= segStart {
			continue
		}
		segments = append(segments, Segment{
			Kind:      track.Kind,
			MediaPath: take.Media.Path,
			Offset:    take.Offset + (segStart - e.Start),
			Start:     segStart,
			Length:    segEnd - segStart,
		})
	}
	return segments
}

var (
	_ Timeline    = (*Project)(nil)
	_ Renderer    = (*Project)(nil)
	_ MediaSource = (*Project)(nil)
)
