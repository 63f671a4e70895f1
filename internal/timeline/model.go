package timeline

import (
	"fmt"
	"sort"
	"strings"
)

// MediaKind identifies the stream type a track carries.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// ParseMediaKind maps user input to a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video", "":
		return MediaVideo, nil
	case "audio":
		return MediaAudio, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", value)
	}
}

// CurveKind is the shape of a fade envelope.
type CurveKind string

const (
	CurveLinear CurveKind = "linear"
	CurveFast   CurveKind = "fast"
	CurveSlow   CurveKind = "slow"
	CurveSmooth CurveKind = "smooth"
	CurveSharp  CurveKind = "sharp"
)

// Transition references an entry in the host transition catalog.
type Transition struct {
	Name string
}

// Fade is the in or out envelope of an event.
type Fade struct {
	Length          Timecode
	Curve           CurveKind
	Gain            float64
	ReciprocalCurve bool
	Transition      *Transition
}

// Media is a source or rendered file known to the project. Offline media is a
// placeholder for a file that does not exist yet.
type Media struct {
	Path     string
	Length   Timecode
	TapeName string
	Comment  string
	Offline  bool
}

// Take points an event into its media.
type Take struct {
	Media  *Media
	Offset Timecode
}

// MediaPath returns the path of the referenced media, or "" when unset.
func (t *Take) MediaPath() string {
	if t == nil || t.Media == nil {
		return ""
	}
	return t.Media.Path
}

// Event is a clip placed on a track.
type Event struct {
	Start   Timecode
	Length  Timecode
	Mute    bool
	Takes   []*Take
	FadeIn  Fade
	FadeOut Fade
}

// NewEvent constructs an event with default unity-gain linear fades.
func NewEvent(start, length Timecode) *Event {
	return &Event{
		Start:   start,
		Length:  length,
		FadeIn:  Fade{Curve: CurveLinear, Gain: 1},
		FadeOut: Fade{Curve: CurveLinear, Gain: 1},
	}
}

// End is the first frame after the event.
func (e *Event) End() Timecode {
	return e.Start + e.Length
}

// SetEnd moves the event's end while keeping its start. The resulting length
// never goes below zero.
func (e *Event) SetEnd(end Timecode) {
	e.Length = maxTimecode(0, end-e.Start)
}

// ActiveTake returns the take used for playback, or nil when the event has
// none.
func (e *Event) ActiveTake() *Take {
	if e == nil || len(e.Takes) == 0 {
		return nil
	}
	return e.Takes[0]
}

// AddTake attaches a take and makes it active.
func (e *Event) AddTake(take *Take) {
	e.Takes = append([]*Take{take}, e.Takes...)
}

// Track is an ordered lane of events.
type Track struct {
	Name     string
	Kind     MediaKind
	Selected bool
	Mute     bool

	events []*Event
}

// NewTrack constructs an empty track.
func NewTrack(kind MediaKind, name string) *Track {
	return &Track{Name: name, Kind: kind}
}

// Events returns the track's events ordered by start.
func (t *Track) Events() []*Event {
	out := make([]*Event, len(t.events))
	copy(out, t.events)
	return out
}

// Count returns the number of events on the track.
func (t *Track) Count() int {
	return len(t.events)
}

// At returns the event at index, or nil when out of range.
func (t *Track) At(index int) *Event {
	if index < 0 || index >= len(t.events) {
		return nil
	}
	return t.events[index]
}

// Index returns the position of e among the track's events, or -1.
func (t *Track) Index(e *Event) int {
	for i, candidate := range t.events {
		if candidate == e {
			return i
		}
	}
	return -1
}

// Add places an event on the track. Ordering by start is established here;
// later field edits do not reorder the track.
func (t *Track) Add(e *Event) {
	t.events = append(t.events, e)
	sort.SliceStable(t.events, func(i, j int) bool {
		return t.events[i].Start < t.events[j].Start
	})
}

// Region is a named marker range over the whole timeline.
type Region struct {
	Start  Timecode
	Length Timecode
	Name   string
}
