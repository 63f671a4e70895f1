package batch

import (
	"context"
	"fmt"
	"log/slog"

	"eventbatch/internal/logging"
	"eventbatch/internal/timeline"
)

// SpliceRequest describes one rendered (or deferred) event to place on an
// output track.
type SpliceRequest struct {
	Source  *timeline.Event
	Target  *timeline.Track
	Path    string
	Start   timeline.Timecode
	Length  timeline.Timecode
	Margins Margins
	Offline bool
}

// Splicer builds output events from batch results.
type Splicer struct {
	timeline timeline.Timeline
	media    timeline.MediaSource
	logger   *slog.Logger
}

// NewSplicer constructs a Splicer over the host adapters.
func NewSplicer(tl timeline.Timeline, media timeline.MediaSource, logger *slog.Logger) *Splicer {
	return &Splicer{
		timeline: tl,
		media:    media,
		logger:   logging.NewComponentLogger(logger, "splice"),
	}
}

// Splice creates the new event at the original, unpadded position, copies the
// source fades, and attaches a take on the output media. Rendered media is
// offset by the head margin so the padded material sits under the fade-in;
// offline placeholders start at zero.
func (s *Splicer) Splice(ctx context.Context, req SpliceRequest) (*timeline.Event, error) {
	var (
		media  *timeline.Media
		offset timeline.Timecode
		err    error
	)
	if req.Offline {
		media = s.media.OfflineMedia(req.Path)
	} else {
		media, err = s.media.OpenMedia(ctx, req.Path)
		if err != nil {
			return nil, fmt.Errorf("splice %s: %w", req.Path, err)
		}
		offset = req.Margins.Left
	}

	if sourceMedia := sourceMediaOf(req.Source); sourceMedia != nil {
		media.TapeName = sourceMedia.TapeName
		media.Comment = sourceMedia.Comment
	}

	target := timeline.NewEvent(req.Start, req.Length)
	req.Target.Add(target)
	s.copyFades(req.Source, target)
	target.AddTake(&timeline.Take{Media: media, Offset: offset})
	return target, nil
}

func sourceMediaOf(e *timeline.Event) *timeline.Media {
	take := e.ActiveTake()
	if take == nil {
		return nil
	}
	return take.Media
}

func (s *Splicer) copyFades(source, target *timeline.Event) {
	copyEnvelope(&target.FadeIn, source.FadeIn)
	copyEnvelope(&target.FadeOut, source.FadeOut)

	// Presets are not carried over; only the transition type is.
	if tr := source.FadeIn.Transition; tr != nil {
		target.FadeIn.Transition = s.lookupTransition(tr.Name)
	}
	if tr := source.FadeOut.Transition; tr != nil {
		target.FadeOut.Transition = s.lookupTransition(tr.Name)
	}
}

func copyEnvelope(dst *timeline.Fade, src timeline.Fade) {
	dst.Length = src.Length
	dst.Curve = src.Curve
	dst.Gain = src.Gain
	dst.ReciprocalCurve = src.ReciprocalCurve
}

func (s *Splicer) lookupTransition(name string) *timeline.Transition {
	tr, ok := s.timeline.LookupTransition(name)
	if !ok {
		logging.WarnWithContext(s.logger, "transition not found in catalog", "transition_missing",
			logging.String("transition", name),
			logging.String(logging.FieldImpact, "output event keeps the fade without a transition"),
		)
		return nil
	}
	return tr
}
