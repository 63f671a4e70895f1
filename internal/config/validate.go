package config

import (
	"errors"
	"fmt"
	"strings"

	"eventbatch/internal/timeline"
)

// RenderModes lists the accepted render.mode values.
var RenderModes = []string{"events", "offline", "regions", "selection", "project"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateTemplates(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRender() error {
	if !contains(RenderModes, c.Render.Mode) {
		return fmt.Errorf("render.mode must be one of %s, got %q", strings.Join(RenderModes, ", "), c.Render.Mode)
	}
	if c.Render.MarginFrames < 0 {
		return errors.New("render.margin_frames must be zero or positive")
	}
	if c.Render.FrameRate <= 0 {
		return errors.New("render.frame_rate must be positive")
	}
	if _, err := timeline.ParseMediaKind(c.Render.MediaKind); err != nil {
		return fmt.Errorf("render.media_kind: %w", err)
	}
	return nil
}

func (c *Config) validateTemplates() error {
	if len(c.Templates) == 0 {
		return errors.New("at least one [[templates]] entry is required")
	}
	seen := make(map[timeline.RenderItem]struct{}, len(c.Templates))
	for i, tmpl := range c.Templates {
		field := fmt.Sprintf("templates[%d]", i)
		if tmpl.Renderer == "" {
			return fmt.Errorf("%s.renderer must be set", field)
		}
		if tmpl.Name == "" {
			return fmt.Errorf("%s.name must be set", field)
		}
		if tmpl.Extension == "" {
			return fmt.Errorf("%s.extension must be set", field)
		}
		item := tmpl.Item()
		if _, dup := seen[item]; dup {
			return fmt.Errorf("%s duplicates template %s/%s", field, tmpl.Renderer, tmpl.Name)
		}
		seen[item] = struct{}{}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
