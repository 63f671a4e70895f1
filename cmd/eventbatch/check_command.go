package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"eventbatch/internal/config"
	"eventbatch/internal/logging"
	"eventbatch/internal/preflight"
	"eventbatch/internal/render"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check directories, tools, and render templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			fmt.Fprintln(out, "Environment")
			failed := false
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				switch {
				case !result.Passed && result.Optional:
					kind = statusWarn
				case !result.Passed:
					kind = statusError
					failed = true
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out, "Templates")
			ffmpeg := render.NewFFmpeg(cfg.Tools.FFmpeg, logging.NewNop())
			registry := render.NewRegistry(cfg.Templates, logging.NewNop(), ffmpeg, render.NewDrapto(ffmpeg, logging.NewNop()))
			available := registry.Items()
			for _, tmpl := range cfg.Templates {
				label := tmpl.Renderer + "/" + tmpl.Name
				if templateAvailable(tmpl, registry.Templates()) {
					fmt.Fprintln(out, renderStatusLine(label, statusOK, tmpl.Extension, colorize))
					continue
				}
				fmt.Fprintln(out, renderStatusLine(label, statusWarn, "renderer unavailable", colorize))
			}
			if len(available) == 0 {
				failed = true
			}

			if failed {
				return errors.New("environment check failed")
			}
			return nil
		},
	}
}

func templateAvailable(tmpl config.Template, available []config.Template) bool {
	for _, candidate := range available {
		if candidate.Item() == tmpl.Item() {
			return true
		}
	}
	return false
}
