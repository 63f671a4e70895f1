package batch

import (
	"errors"
	"fmt"
	"strings"

	"eventbatch/internal/timeline"
)

var (
	// ErrValidation marks errors raised before or between render calls.
	ErrValidation = errors.New("validation error")
	// ErrRenderFailed marks host render failures.
	ErrRenderFailed = errors.New("render failed")
)

// ValidationError reports a problem with the run inputs or an output path.
type ValidationError struct {
	Message string
	Path    string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Path)
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationf(path, format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Path: path}
}

// RenderFailure describes a render the host reported as failed.
type RenderFailure struct {
	Path     string
	Renderer string
	Template string
	Start    string
	Length   string
	Err      error
}

func (e *RenderFailure) Error() string {
	var b strings.Builder
	b.WriteString("render failed:")
	b.WriteString("\n    file name: ")
	b.WriteString(e.Path)
	b.WriteString("\n    renderer: ")
	b.WriteString(e.Renderer)
	b.WriteString("\n    template: ")
	b.WriteString(e.Template)
	b.WriteString("\n    start time: ")
	b.WriteString(e.Start)
	b.WriteString("\n    length: ")
	b.WriteString(e.Length)
	if e.Err != nil {
		b.WriteString("\n    cause: ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is lets errors.Is match ErrRenderFailed.
func (e *RenderFailure) Is(target error) bool {
	return target == ErrRenderFailed
}

func (e *RenderFailure) Unwrap() error {
	return e.Err
}

func newRenderFailure(path string, item timeline.RenderItem, start, length timeline.Timecode, rate float64, err error) *RenderFailure {
	return &RenderFailure{
		Path:     path,
		Renderer: item.Renderer,
		Template: item.Template,
		Start:    start.Format(rate),
		Length:   length.Format(rate),
		Err:      err,
	}
}
