package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"eventbatch/internal/batch"
	"eventbatch/internal/preflight"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the selected events and splice the results back",
		Long: `Render every event of the selected tracks as its own file, padded by the
configured margin, and place the results on new tracks above the sources.

Offline mode renders nothing: it splices placeholders and writes a command
file per template built from the selected external command preset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, true, func(s *session) error {
				presetRegistry, err := ctx.presetRegistry()
				if err != nil {
					return err
				}
				templates, err := s.cfg.SelectTemplates(flags.templates)
				if err != nil {
					return err
				}
				opts, err := flags.options(cmd, s.cfg, templates, presetRegistry)
				if err != nil {
					return err
				}

				if opts.Mode != batch.ModeOffline {
					if err := requireAvailable(templates, s.registry.Items()); err != nil {
						return err
					}
					if failure, failed := preflight.FirstFailure(preflight.RunAll(cmd.Context(), s.cfg)); failed {
						return fmt.Errorf("preflight %s: %s", failure.Name, failure.Detail)
					}
				}

				runner := batch.NewRunner(s.project, s.logger)
				plan, err := runner.Plan(opts)
				if err != nil {
					return err
				}
				var progress *jobProgress
				if !flags.json {
					progress = newJobProgress(cmd.ErrOrStderr(), len(plan.Jobs))
					opts.Progress = progress.observe
				}

				report, runErr := runner.Run(cmd.Context(), opts)
				progress.finish()
				if report != nil {
					if err := printReport(cmd, report, s.project.FrameRate(), flags.json); err != nil {
						return errors.Join(runErr, err)
					}
				}
				return runErr
			})
		},
	}
	addBatchFlags(cmd, &flags)
	return cmd
}
