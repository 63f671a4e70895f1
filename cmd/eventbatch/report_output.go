package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"eventbatch/internal/batch"
)

type jobView struct {
	Track        string `json:"track,omitempty"`
	Event        int    `json:"event"`
	Renderer     string `json:"renderer"`
	Template     string `json:"template"`
	Path         string `json:"path"`
	Start        string `json:"start"`
	Length       string `json:"length"`
	WindowStart  string `json:"window_start"`
	WindowLength string `json:"window_length"`
	MarginLeft   int64  `json:"margin_left_frames"`
	MarginRight  int64  `json:"margin_right_frames"`
	Status       string `json:"status"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
}

type reportView struct {
	RunID        string    `json:"run_id"`
	Mode         string    `json:"mode"`
	Canceled     bool      `json:"canceled"`
	Jobs         []jobView `json:"jobs"`
	CommandFiles []string  `json:"command_files,omitempty"`
}

func newReportView(report *batch.Report, rate float64) reportView {
	view := reportView{
		RunID:        report.RunID,
		Mode:         string(report.Mode),
		Canceled:     report.Canceled,
		Jobs:         make([]jobView, 0, len(report.Jobs)),
		CommandFiles: report.CommandFiles,
	}
	for _, job := range report.Jobs {
		jv := jobView{
			Track:        job.Track,
			Event:        job.EventIndex,
			Renderer:     job.Item.Renderer,
			Template:     job.Item.Template,
			Path:         job.Path,
			Start:        job.Start.Format(rate),
			Length:       job.Length.Format(rate),
			WindowStart:  job.WindowStart.Format(rate),
			WindowLength: job.WindowLength.Format(rate),
			MarginLeft:   job.Margins.Left.Frames(),
			MarginRight:  job.Margins.Right.Frames(),
			Status:       string(job.Status),
		}
		if job.Status == batch.JobComplete {
			if info, err := os.Stat(job.Path); err == nil {
				jv.SizeBytes = info.Size()
			}
		}
		view.Jobs = append(view.Jobs, jv)
	}
	return view
}

func printReport(cmd *cobra.Command, report *batch.Report, rate float64, asJSON bool) error {
	view := newReportView(report, rate)
	if asJSON {
		return writeJSON(cmd, view)
	}

	out := cmd.OutOrStdout()
	if len(view.Jobs) == 0 {
		fmt.Fprintln(out, "No jobs")
	} else {
		headers := []string{"#", "Track", "Event", "Template", "Window", "Margins", "Output", "Size", "Status"}
		rows := make([][]string, 0, len(view.Jobs))
		var total int64
		for i, job := range view.Jobs {
			event := "-"
			if job.Event >= 0 {
				event = strconv.Itoa(job.Event)
			}
			size := ""
			if job.SizeBytes > 0 {
				size = humanize.Bytes(uint64(job.SizeBytes))
				total += job.SizeBytes
			}
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				job.Track,
				event,
				job.Renderer + "/" + job.Template,
				job.WindowStart + " +" + job.WindowLength,
				fmt.Sprintf("%d/%d", job.MarginLeft, job.MarginRight),
				job.Path,
				size,
				job.Status,
			})
		}
		fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft}))
		if total > 0 {
			fmt.Fprintf(out, "Rendered %s\n", humanize.Bytes(uint64(total)))
		}
	}
	for _, path := range view.CommandFiles {
		fmt.Fprintf(out, "Command file: %s\n", path)
	}
	if view.Canceled {
		fmt.Fprintln(out, "Run canceled; remaining jobs were skipped")
	}
	return nil
}
