package preflight

import (
	"context"
	"strings"

	"eventbatch/internal/config"
)

// Result reports the outcome of a single preflight check. Optional results do
// not block a run.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the checks that apply to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.OutputDir()),
		CheckBinary(ctx, "FFmpeg", cfg.Tools.FFmpeg, false),
		CheckBinary(ctx, "FFprobe", cfg.Tools.FFprobe, false),
	}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		results = append(results, CheckWritableParent("Log directory", dir))
	}
	if path := strings.TrimSpace(cfg.Paths.ProjectFile); path != "" {
		results = append(results, CheckWritableParent("Project file", path))
	}
	if path := strings.TrimSpace(cfg.Paths.PresetFile); path != "" {
		results = append(results, CheckPresetFile(path))
	}
	return results
}

// FirstFailure returns the first failed required check.
func FirstFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return r, true
		}
	}
	return Result{}, false
}
