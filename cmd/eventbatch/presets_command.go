package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"eventbatch/internal/presets"
)

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "External command presets for offline renders",
	}
	presetsCmd.AddCommand(newPresetsListCommand(ctx))
	presetsCmd.AddCommand(newPresetsShowCommand(ctx))
	return presetsCmd
}

type presetView struct {
	Position int    `json:"position"`
	Label    string `json:"label"`
	Template string `json:"template"`
	Selected bool   `json:"selected"`
}

func newPresetsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in and file presets in selection order",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.presetRegistry()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			selected, err := registry.Resolve(cfg.Render.Preset)
			if err != nil {
				return err
			}

			views := make([]presetView, 0, registry.Len())
			for i, p := range registry.List() {
				views = append(views, presetView{Position: i + 1, Label: p.Label, Template: p.Template, Selected: p.Label == selected.Label})
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				mark := ""
				if v.Selected {
					mark = "*"
				}
				rows = append(rows, []string{strconv.Itoa(v.Position), mark, v.Label, v.Template})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "", "Label", "Template"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newPresetsShowCommand(ctx *commandContext) *cobra.Command {
	var source, dest, start, duration string
	cmd := &cobra.Command{
		Use:   "show <label|position>",
		Short: "Show a preset and an example command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.presetRegistry()
			if err != nil {
				return err
			}
			preset, err := registry.Resolve(args[0])
			if err != nil {
				return err
			}
			example, err := presets.Command(preset.Template, presets.Params{
				Source:      source,
				Destination: dest,
				Start:       start,
				Duration:    duration,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Label:    %s\n", preset.Label)
			fmt.Fprintf(out, "Template: %s\n", preset.Template)
			fmt.Fprintf(out, "Example:  %s\n", example)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "source.mov", "Example source path for {0}")
	cmd.Flags().StringVar(&dest, "dest", "Show_00001.mov", "Example destination path for {1}")
	cmd.Flags().StringVar(&start, "start", "00:00:01.000", "Example start for {2}")
	cmd.Flags().StringVar(&duration, "duration", "00:00:04.000", "Example duration for {3}")
	return cmd
}
