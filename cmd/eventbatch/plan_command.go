package main

import (
	"github.com/spf13/cobra"

	"eventbatch/internal/batch"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List the jobs a render would run without touching the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, false, func(s *session) error {
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
				report, err := batch.NewRunner(s.project, s.logger).Plan(opts)
				if err != nil {
					return err
				}
				return printReport(cmd, report, s.project.FrameRate(), flags.json)
			})
		},
	}
	addBatchFlags(cmd, &flags)
	return cmd
}
