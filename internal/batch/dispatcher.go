package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventbatch/internal/logging"
	"eventbatch/internal/timeline"
)

// Dispatcher validates output paths and invokes the host render facility.
type Dispatcher struct {
	renderer  timeline.Renderer
	rate      float64
	overwrite bool
	logger    *slog.Logger
	exists    func(string) bool
}

// NewDispatcher wraps renderer. rate is used to format failure messages.
func NewDispatcher(renderer timeline.Renderer, rate float64, overwrite bool, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		renderer:  renderer,
		rate:      rate,
		overwrite: overwrite,
		logger:    logging.NewComponentLogger(logger, "dispatcher"),
		exists:    fileExists,
	}
}

// CheckPath applies the render preconditions to path.
func (d *Dispatcher) CheckPath(path string) error {
	if err := ValidateFilePath(path); err != nil {
		return err
	}
	if !d.overwrite && d.exists(path) {
		return validationf(path, "file already exists")
	}
	return nil
}

// Render renders the window to path. Complete and Canceled are returned as
// statuses; a failed render becomes a *RenderFailure.
func (d *Dispatcher) Render(ctx context.Context, path string, item timeline.RenderItem, start, length timeline.Timecode) (timeline.RenderStatus, error) {
	if err := d.CheckPath(path); err != nil {
		return timeline.RenderFailed, err
	}

	d.logger.Debug("render started",
		logging.String("path", path),
		logging.String("renderer", item.Renderer),
		logging.String("template", item.Template),
		logging.String("start", start.Format(d.rate)),
		logging.String("length", length.Format(d.rate)),
	)
	began := time.Now()
	status, err := d.renderer.Render(ctx, path, item, start, length)

	switch {
	case status == timeline.RenderComplete && err == nil:
		d.logger.Info("render complete",
			logging.String("path", path),
			logging.Duration("elapsed", time.Since(began)),
		)
		return status, nil
	case status == timeline.RenderCanceled:
		d.logger.Info("render canceled", logging.String("path", path))
		return status, nil
	default:
		if err == nil {
			err = fmt.Errorf("host returned status %s", status)
		}
		return timeline.RenderFailed, newRenderFailure(path, item, start, length, d.rate, err)
	}
}
