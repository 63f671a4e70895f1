package batch

import "eventbatch/internal/timeline"

// Margins are the head and tail padding applied around an event.
type Margins struct {
	Left  timeline.Timecode
	Right timeline.Timecode
}

// Total is the combined padding.
func (m Margins) Total() timeline.Timecode {
	return m.Left + m.Right
}

// ComputeMargins clamps the requested padding to the source material around
// the event. The head margin cannot reach before the start of the media and
// the tail margin cannot run past its end; missing room yields zero.
func ComputeMargins(requested, takeOffset, mediaLength, eventLength timeline.Timecode) Margins {
	if requested < 0 {
		requested = 0
	}
	if takeOffset < 0 {
		takeOffset = 0
	}
	left := requested
	if takeOffset < left {
		left = takeOffset
	}
	right := requested
	tail := mediaLength - takeOffset - eventLength - left
	if tail < right {
		right = tail
	}
	if right < 0 {
		right = 0
	}
	return Margins{Left: left, Right: right}
}

// EventMargins computes margins for an event from its active take. Events
// without media get no padding.
func EventMargins(e *timeline.Event, requested timeline.Timecode) Margins {
	take := e.ActiveTake()
	if take == nil || take.Media == nil {
		return Margins{}
	}
	return ComputeMargins(requested, take.Offset, take.Media.Length, e.Length)
}
