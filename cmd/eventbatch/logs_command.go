package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"eventbatch/internal/logging"
	"eventbatch/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log records",
		Long: `Show records from the JSON log file under paths.log_dir. Pass --run with
the run ID from a render report (or its first characters) to see one batch run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.LogDir == "" {
				return errors.New("paths.log_dir is not set")
			}
			var minLevel slog.Level
			if err := minLevel.UnmarshalText([]byte(level)); err != nil {
				return fmt.Errorf("--level: %w", err)
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			filter := logs.Filter{RunID: runID, MinLevel: minLevel}
			out := cmd.OutOrStdout()

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Filter: filter})
			if err != nil {
				return err
			}
			for _, record := range result.Records {
				fmt.Fprintln(out, record.Format())
			}
			if !follow {
				return nil
			}

			offset := result.Offset
			for {
				result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Wait: 5 * time.Second, Filter: filter})
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				for _, record := range result.Records {
					fmt.Fprintln(out, record.Format())
				}
				offset = result.Offset
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().StringVar(&runID, "run", "", "Only records from this run ID (prefix match)")
	cmd.Flags().StringVar(&level, "level", "debug", "Minimum level: debug, info, warn, error")
	return cmd
}
