package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eventbatch/internal/timeline"
)

// normalize trims and expands every field. configDir anchors a relative
// preset file.
func (c *Config) normalize(configDir string) error {
	if err := c.normalizePaths(configDir); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeTemplates()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths(configDir string) error {
	base := strings.TrimSpace(c.Paths.OutputBase)
	if base == "" {
		if value, ok := os.LookupEnv(OutputBaseEnv); ok {
			base = strings.TrimSpace(value)
		}
	}
	if base == "" {
		base = defaultOutputBase
	}
	var err error
	if c.Paths.OutputBase, err = expandPath(base); err != nil {
		return fmt.Errorf("paths.output_base: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	preset := strings.TrimSpace(c.Paths.PresetFile)
	if preset == "" {
		preset = defaultPresetFile
	}
	if !filepath.IsAbs(preset) && !strings.HasPrefix(preset, "~") && configDir != "" {
		preset = filepath.Join(configDir, preset)
	}
	if c.Paths.PresetFile, err = expandPath(preset); err != nil {
		return fmt.Errorf("paths.preset_file: %w", err)
	}
	if c.Paths.ProjectFile, err = expandPath(strings.TrimSpace(c.Paths.ProjectFile)); err != nil {
		return fmt.Errorf("paths.project_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.Mode = strings.ToLower(strings.TrimSpace(c.Render.Mode))
	if c.Render.Mode == "" {
		c.Render.Mode = defaultRenderMode
	}
	c.Render.StartNumber = strings.TrimSpace(c.Render.StartNumber)
	c.Render.MediaKind = strings.ToLower(strings.TrimSpace(c.Render.MediaKind))
	if c.Render.MediaKind == "" {
		c.Render.MediaKind = string(timeline.MediaVideo)
	}
	if c.Render.FrameRate == 0 {
		c.Render.FrameRate = timeline.DefaultFrameRate
	}
	c.Render.CommandFile = strings.TrimSpace(c.Render.CommandFile)
	if c.Render.CommandFile == "" {
		c.Render.CommandFile = defaultCommandFile
	}
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
}

func (c *Config) normalizeTemplates() {
	for i := range c.Templates {
		tmpl := &c.Templates[i]
		tmpl.Renderer = strings.ToLower(strings.TrimSpace(tmpl.Renderer))
		tmpl.Name = strings.TrimSpace(tmpl.Name)
		tmpl.Extension = tmpl.Item().Extension
	}
}

func (c *Config) normalizeTools() {
	if c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg); c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	if c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe); c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
