package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"eventbatch/internal/config"
	"eventbatch/internal/logging"
	"eventbatch/internal/timeline"
)

// ErrUnknownItem is returned when a job names a template the registry did not
// discover.
var ErrUnknownItem = errors.New("render item is not available")

// Engine renders one job using a template's arguments.
type Engine interface {
	Name() string
	Available() error
	Render(ctx context.Context, job timeline.RenderJob, tmpl config.Template) (timeline.RenderStatus, error)
}

// Registry is the render backend for a project.
type Registry struct {
	engines   map[string]Engine
	templates []config.Template
	logger    *slog.Logger
}

// NewRegistry discovers the usable templates from the catalog.
func NewRegistry(templates []config.Template, logger *slog.Logger, engines ...Engine) *Registry {
	r := &Registry{
		engines: make(map[string]Engine, len(engines)),
		logger:  logging.NewComponentLogger(logger, "render"),
	}
	for _, engine := range engines {
		r.engines[strings.ToLower(engine.Name())] = engine
	}

	unavailable := make(map[string]error)
	for _, tmpl := range templates {
		key := strings.ToLower(strings.TrimSpace(tmpl.Renderer))
		engine, ok := r.engines[key]
		if !ok {
			logging.WarnWithContext(r.logger, "skipping template with unknown renderer", "renderer_unknown",
				logging.String("renderer", tmpl.Renderer),
				logging.String("template", tmpl.Name),
				logging.String(logging.FieldImpact, "template is not offered for rendering"),
			)
			continue
		}
		err, checked := unavailable[key]
		if !checked {
			err = engine.Available()
			unavailable[key] = err
		}
		if err != nil {
			logging.WarnWithContext(r.logger, "skipping template with unavailable renderer", "renderer_unavailable",
				logging.String("renderer", tmpl.Renderer),
				logging.String("template", tmpl.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "install the renderer or set tools.ffmpeg"),
			)
			continue
		}
		r.templates = append(r.templates, tmpl)
	}
	r.logger.Debug("render templates discovered", logging.Int("templates", len(r.templates)))
	return r
}

// Templates returns the discovered templates in catalog order.
func (r *Registry) Templates() []config.Template {
	out := make([]config.Template, len(r.templates))
	copy(out, r.templates)
	return out
}

// Items returns the render items of the discovered templates.
func (r *Registry) Items() []timeline.RenderItem {
	items := make([]timeline.RenderItem, 0, len(r.templates))
	for _, tmpl := range r.templates {
		items = append(items, tmpl.Item())
	}
	return items
}

// Render dispatches the job to the engine owning its template.
func (r *Registry) Render(ctx context.Context, job timeline.RenderJob) (timeline.RenderStatus, error) {
	for _, tmpl := range r.templates {
		if tmpl.Item() != job.Item {
			continue
		}
		engine := r.engines[strings.ToLower(strings.TrimSpace(tmpl.Renderer))]
		status, err := engine.Render(ctx, job, tmpl)
		r.logger.Debug("render finished",
			logging.String("path", job.Path),
			logging.String("template", tmpl.Name),
			logging.String("status", status.String()),
			logging.Int("segments", len(job.Segments)),
		)
		return status, err
	}
	return timeline.RenderFailed, fmt.Errorf("%w: %s/%s", ErrUnknownItem, job.Item.Renderer, job.Item.Template)
}

var _ timeline.RenderBackend = (*Registry)(nil)
