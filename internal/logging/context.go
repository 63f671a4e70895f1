package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent names the package or subsystem emitting the line.
	FieldComponent = "component"
	// FieldRunID identifies one batch run.
	FieldRunID = "run_id"
	// FieldTrack is the source track being processed.
	FieldTrack = "track"
	// FieldEventIndex is the zero-based event index within its track.
	FieldEventIndex = "event_index"
	// FieldRenderMode is the batch mode (events, offline, regions, ...).
	FieldRenderMode = "render_mode"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	runIDKey contextKey = iota
	trackKey
)

// WithRunID attaches a batch run ID to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run ID stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithTrack attaches the source track name to ctx.
func WithTrack(ctx context.Context, track string) context.Context {
	return context.WithValue(ctx, trackKey, track)
}

// TrackFromContext returns the track stored by WithTrack.
func TrackFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	track, ok := ctx.Value(trackKey).(string)
	return track, ok && track != ""
}

// ContextFields extracts the standard attrs carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if track, ok := TrackFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTrack, track))
	}
	return fields
}

// WithContext returns logger augmented with the fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
