package timeline

import (
	"context"
	"strings"
)

// RenderStatus is the tri-state result of a host render call.
type RenderStatus int

const (
	RenderComplete RenderStatus = iota
	RenderCanceled
	RenderFailed
)

func (s RenderStatus) String() string {
	switch s {
	case RenderComplete:
		return "complete"
	case RenderCanceled:
		return "canceled"
	case RenderFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RenderItem is one selected output format: a renderer, one of its templates,
// and the file extension it produces.
type RenderItem struct {
	Renderer  string
	Template  string
	Extension string
}

// NewRenderItem builds an item, stripping the leading "*" hosts put on
// extension filters.
func NewRenderItem(renderer, template, extension string) RenderItem {
	ext := strings.TrimLeft(strings.TrimSpace(extension), "*")
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return RenderItem{
		Renderer:  strings.TrimSpace(renderer),
		Template:  strings.TrimSpace(template),
		Extension: ext,
	}
}

// Timeline is read/write access to the host's tracks and catalogs.
type Timeline interface {
	Tracks() []*Track
	InsertTrack(index int, kind MediaKind, name string) *Track
	TrackIndex(track *Track) int
	LookupTransition(name string) (*Transition, bool)
	Regions() []Region
	Selection() (start, length Timecode)
	Length() Timecode
	FrameRate() float64
}

// Renderer is the host's synchronous render facility.
type Renderer interface {
	Render(ctx context.Context, path string, item RenderItem, start, length Timecode) (RenderStatus, error)
}

// MediaSource creates media references for files produced by a batch.
type MediaSource interface {
	OpenMedia(ctx context.Context, path string) (*Media, error)
	OfflineMedia(path string) *Media
}

// Segment is one stretch of source media covering part of a render window.
type Segment struct {
	Kind      MediaKind
	MediaPath string
	Offset    Timecode
	Start     Timecode
	Length    Timecode
}

// RenderJob is what a backend receives for one host render call.
type RenderJob struct {
	Path      string
	Item      RenderItem
	Start     Timecode
	Length    Timecode
	FrameRate float64
	Segments  []Segment
}

// RenderBackend produces output files for render jobs.
type RenderBackend interface {
	Render(ctx context.Context, job RenderJob) (RenderStatus, error)
}

// MediaProber reports the duration of a media file in seconds.
type MediaProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}
