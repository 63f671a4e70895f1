package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"eventbatch/internal/timeline"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	OutputBase  string `toml:"output_base"`
	LogDir      string `toml:"log_dir"`
	PresetFile  string `toml:"preset_file"`
	ProjectFile string `toml:"project_file"`
}

// Render holds the settings the batch dialog would otherwise collect.
type Render struct {
	Mode              string  `toml:"mode"`
	MarginFrames      int     `toml:"margin_frames"`
	StartNumber       string  `toml:"start_number"`
	OverwriteExisting bool    `toml:"overwrite_existing"`
	MediaKind         string  `toml:"media_kind"`
	FrameRate         float64 `toml:"frame_rate"`
	CommandFile       string  `toml:"command_file"`
	Preset            string  `toml:"preset"`
}

// Template is one renderer output format. Args are passed to the backend
// between the input and output arguments.
type Template struct {
	Renderer  string   `toml:"renderer"`
	Name      string   `toml:"name"`
	Extension string   `toml:"extension"`
	Args      []string `toml:"args"`
}

// Item converts the template into the render item used by the batch engine.
func (t Template) Item() timeline.RenderItem {
	return timeline.NewRenderItem(t.Renderer, t.Name, t.Extension)
}

// Tools names the external binaries.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for eventbatch.
type Config struct {
	Paths     Paths      `toml:"paths"`
	Render    Render     `toml:"render"`
	Templates []Template `toml:"templates"`
	Tools     Tools      `toml:"tools"`
	Logging   Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/eventbatch/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file. It
// returns the config, the resolved path, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// A file that lists templates replaces the default catalog.
		cfg.Templates = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if len(cfg.Templates) == 0 {
			cfg.Templates = defaultTemplates()
		}
	}

	if err := cfg.normalize(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("eventbatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// OutputDir is the directory part of the output base.
func (c *Config) OutputDir() string {
	base := c.Paths.OutputBase
	if strings.HasSuffix(base, string(filepath.Separator)) {
		return filepath.Clean(base)
	}
	return filepath.Dir(base)
}

// SelectTemplates resolves selectors against the template catalog. A selector
// is either "name" or "renderer/name"; no selectors means every template.
func (c *Config) SelectTemplates(selectors []string) ([]Template, error) {
	if len(selectors) == 0 {
		out := make([]Template, len(c.Templates))
		copy(out, c.Templates)
		return out, nil
	}
	out := make([]Template, 0, len(selectors))
	for _, selector := range selectors {
		selector = strings.TrimSpace(selector)
		renderer, name, qualified := strings.Cut(selector, "/")
		if !qualified {
			name, renderer = renderer, ""
		}
		found := false
		for _, tmpl := range c.Templates {
			if !strings.EqualFold(tmpl.Name, name) {
				continue
			}
			if renderer != "" && !strings.EqualFold(tmpl.Renderer, renderer) {
				continue
			}
			out = append(out, tmpl)
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("template %q is not configured", selector)
		}
	}
	return out, nil
}

// TemplateFor returns the template behind a render item.
func (c *Config) TemplateFor(item timeline.RenderItem) (Template, bool) {
	for _, tmpl := range c.Templates {
		if tmpl.Item() == item {
			return tmpl, true
		}
	}
	return Template{}, false
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	trailing := strings.HasSuffix(pathValue, "/") || strings.HasSuffix(pathValue, string(filepath.Separator))
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	if trailing && absolute != string(filepath.Separator) {
		absolute += string(filepath.Separator)
	}
	return absolute, nil
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
