package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eventbatch/internal/batch"
	"eventbatch/internal/config"
	"eventbatch/internal/presets"
	"eventbatch/internal/timeline"
)

// batchFlags override the [render] section for one invocation.
type batchFlags struct {
	mode        string
	templates   []string
	margin      int
	startNumber string
	overwrite   bool
	preset      string
	outputBase  string
	mediaKind   string
	commandFile string
	json        bool
}

func addBatchFlags(cmd *cobra.Command, f *batchFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.mode, "mode", "m", "", "Render mode: events, offline, regions, selection, project")
	flags.StringSliceVarP(&f.templates, "template", "t", nil, "Template name or renderer/name (repeatable, default all)")
	flags.IntVar(&f.margin, "margin", 0, "Head and tail margin in frames")
	flags.StringVar(&f.startNumber, "start-number", "", "First file number; its length sets the padding")
	flags.BoolVar(&f.overwrite, "overwrite", false, "Replace existing output files")
	flags.StringVar(&f.preset, "preset", "", "External command preset label or position (offline mode)")
	flags.StringVarP(&f.outputBase, "output", "o", "", "Output base: directory plus optional file-name prefix")
	flags.StringVar(&f.mediaKind, "kind", "", "Track kind to process: video or audio")
	flags.StringVar(&f.commandFile, "command-file", "", "Command file name for offline mode")
	flags.BoolVar(&f.json, "json", false, "Output JSON")
}

// options merges the flags over cfg. Templates are resolved by the caller.
func (f *batchFlags) options(cmd *cobra.Command, cfg *config.Config, templates []config.Template, registry *presets.Registry) (batch.Options, error) {
	flags := cmd.Flags()

	modeValue := cfg.Render.Mode
	if flags.Changed("mode") {
		modeValue = f.mode
	}
	mode, err := batch.ParseMode(modeValue)
	if err != nil {
		return batch.Options{}, err
	}

	kindValue := cfg.Render.MediaKind
	if flags.Changed("kind") {
		kindValue = f.mediaKind
	}
	kind, err := timeline.ParseMediaKind(kindValue)
	if err != nil {
		return batch.Options{}, err
	}

	opts := batch.Options{
		Mode:         mode,
		BasePath:     cfg.Paths.OutputBase,
		MarginFrames: cfg.Render.MarginFrames,
		StartNumber:  cfg.Render.StartNumber,
		Overwrite:    cfg.Render.OverwriteExisting || f.overwrite,
		MediaKind:    kind,
		CommandFile:  cfg.Render.CommandFile,
	}
	if flags.Changed("output") {
		base, err := expandOutputBase(f.outputBase)
		if err != nil {
			return batch.Options{}, err
		}
		opts.BasePath = base
	}
	if flags.Changed("margin") {
		opts.MarginFrames = f.margin
	}
	if flags.Changed("start-number") {
		opts.StartNumber = f.startNumber
	}
	if flags.Changed("command-file") {
		opts.CommandFile = f.commandFile
	}
	for _, tmpl := range templates {
		opts.Items = append(opts.Items, tmpl.Item())
	}

	if mode == batch.ModeOffline {
		selector := cfg.Render.Preset
		if flags.Changed("preset") {
			selector = f.preset
		}
		preset, err := registry.Resolve(selector)
		if err != nil {
			return batch.Options{}, err
		}
		opts.Preset = preset
	}
	return opts, nil
}

// expandOutputBase expands "~". A trailing separator survives and marks a base
// without a file-name prefix.
func expandOutputBase(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("output base is empty")
	}
	return config.ExpandPath(value)
}

// requireAvailable fails on the first template whose renderer was not
// discovered.
func requireAvailable(templates []config.Template, available []timeline.RenderItem) error {
	for _, tmpl := range templates {
		found := false
		for _, item := range available {
			if item == tmpl.Item() {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("template %s/%s is not available; run \"eventbatch check\"", tmpl.Renderer, tmpl.Name)
		}
	}
	return nil
}
