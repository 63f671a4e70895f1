package batch

import (
	"errors"

	"eventbatch/internal/timeline"
)

// ErrEventNotOnTrack is returned when isolating an event its track does not
// contain.
var ErrEventNotOnTrack = errors.New("event is not on track")

// Lease is the borrowed state of one isolation cycle. Restore returns every
// field the cycle touched to its saved value; it is safe to call twice.
type Lease struct {
	start    timeline.Timecode
	length   timeline.Timecode
	restore  func()
	restored bool
}

// Window is the padded render range of the isolated event.
func (l *Lease) Window() (start, length timeline.Timecode) {
	return l.start, l.length
}

// Restore undoes the isolation.
func (l *Lease) Restore() {
	if l == nil || l.restored {
		return
	}
	l.restored = true
	l.restore()
}

type eventState struct {
	start      timeline.Timecode
	length     timeline.Timecode
	offset     timeline.Timecode
	fadeIn     timeline.Timecode
	fadeOut    timeline.Timecode
	take       *timeline.Take
	neighbours []neighbourState
	mutes      []muteState
}

type neighbourState struct {
	event  *timeline.Event
	start  timeline.Timecode
	length timeline.Timecode
}

type muteState struct {
	event *timeline.Event
	mute  bool
}

// Isolate prepares event for a standalone render of its padded window:
// siblings are muted, fades zeroed, the event padded by margins with its take
// offset shifted to keep the material aligned, and the immediate neighbours
// pulled up to the padded edges so transitions cannot bleed in.
func Isolate(track *timeline.Track, event *timeline.Event, margins Margins) (*Lease, error) {
	index := track.Index(event)
	if index < 0 {
		return nil, ErrEventNotOnTrack
	}
	events := track.Events()

	saved := eventState{
		start:   event.Start,
		length:  event.Length,
		fadeIn:  event.FadeIn.Length,
		fadeOut: event.FadeOut.Length,
		take:    event.ActiveTake(),
		mutes:   make([]muteState, 0, len(events)),
	}
	if saved.take != nil {
		saved.offset = saved.take.Offset
	}
	for _, e := range events {
		saved.mutes = append(saved.mutes, muteState{event: e, mute: e.Mute})
	}

	for _, e := range events {
		e.Mute = e != event
	}

	event.FadeIn.Length = 0
	event.FadeOut.Length = 0
	event.Start -= margins.Left
	event.Length += margins.Left + margins.Right
	if saved.take != nil {
		saved.take.Offset -= margins.Left
	}

	if index > 0 {
		prev := events[index-1]
		saved.neighbours = append(saved.neighbours, neighbourState{event: prev, start: prev.Start, length: prev.Length})
		prev.SetEnd(event.Start)
	}
	if index < len(events)-1 {
		next := events[index+1]
		saved.neighbours = append(saved.neighbours, neighbourState{event: next, start: next.Start, length: next.Length})
		next.Start = event.End()
	}

	return &Lease{
		start:  event.Start,
		length: event.Length,
		restore: func() {
			for _, n := range saved.neighbours {
				n.event.Start = n.start
				n.event.Length = n.length
			}
			event.Start = saved.start
			event.Length = saved.length
			if saved.take != nil {
				saved.take.Offset = saved.offset
			}
			event.FadeIn.Length = saved.fadeIn
			event.FadeOut.Length = saved.fadeOut
			for _, m := range saved.mutes {
				m.event.Mute = m.mute
			}
		},
	}, nil
}

// WithIsolation isolates event, runs fn with the padded window, and restores
// the timeline on every exit path, panics included.
func WithIsolation(track *timeline.Track, event *timeline.Event, margins Margins, fn func(start, length timeline.Timecode) error) error {
	lease, err := Isolate(track, event, margins)
	if err != nil {
		return err
	}
	defer lease.Restore()
	return fn(lease.Window())
}
