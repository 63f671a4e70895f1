package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"eventbatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The output directory exists; the log directory does not.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputBase = filepath.Join(base, "out", "Show_")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.PresetFile = filepath.Join(base, "PresetList.txt")
	cfgVal.Paths.ProjectFile = filepath.Join(base, "project.db")
	if err := os.MkdirAll(filepath.Join(base, "out"), 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithMarginFrames sets render.margin_frames.
func WithMarginFrames(frames int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.MarginFrames = frames
	}
}

// WithRenderMode sets render.mode.
func WithRenderMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.Mode = mode
	}
}

// WithTemplates replaces the template catalog.
func WithTemplates(templates ...config.Template) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Templates = templates
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
