package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eventbatch/internal/timeline"
)

func newRegionsCommand(ctx *commandContext) *cobra.Command {
	regionsCmd := &cobra.Command{
		Use:   "regions",
		Short: "Region markers used by region renders",
	}
	regionsCmd.AddCommand(newRegionsListCommand(ctx))
	regionsCmd.AddCommand(newRegionsAddCommand(ctx))
	regionsCmd.AddCommand(newRegionsFromEventsCommand(ctx))
	return regionsCmd
}

type regionView struct {
	Index  int    `json:"index"`
	Start  string `json:"start"`
	Length string `json:"length"`
	Name   string `json:"name,omitempty"`
}

func newRegionsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List region markers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, false, func(s *session) error {
				rate := s.project.FrameRate()
				views := make([]regionView, 0)
				for i, r := range s.project.Regions() {
					views = append(views, regionView{Index: i, Start: r.Start.Format(rate), Length: r.Length.Format(rate), Name: r.Name})
				}
				if asJSON {
					return writeJSON(cmd, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No regions")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{strconv.Itoa(v.Index), v.Start, v.Length, v.Name})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Start", "Length", "Name"}, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newRegionsAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <start> <length> [name]",
		Short: "Add a region marker",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, true, func(s *session) error {
				rate := s.project.FrameRate()
				start, err := timeline.ParseTimecode(args[0], rate)
				if err != nil {
					return err
				}
				length, err := timeline.ParseTimecode(args[1], rate)
				if err != nil {
					return err
				}
				region := timeline.Region{Start: start, Length: length}
				if len(args) == 3 {
					region.Name = strings.TrimSpace(args[2])
				}
				s.project.AddRegion(region)
				fmt.Fprintf(cmd.OutOrStdout(), "Added region %d\n", len(s.project.Regions())-1)
				return nil
			})
		},
	}
}

func newRegionsFromEventsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "from-events",
		Short: "Add a region over every event of the first selected track",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, true, func(s *session) error {
				added, err := timeline.AddRegionsForEvents(s.project)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d regions\n", len(added))
				return nil
			})
		},
	}
}
