package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"eventbatch/internal/batch"
)

// jobProgress reports finished jobs: a bar on terminals, one line per job
// otherwise.
type jobProgress struct {
	bar *progressbar.ProgressBar
	out io.Writer
}

func newJobProgress(out io.Writer, total int) *jobProgress {
	if !isTerminal(out) {
		return &jobProgress{out: out}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
	)
	return &jobProgress{bar: bar, out: out}
}

func (p *jobProgress) observe(job batch.Job) {
	if p.bar != nil {
		p.bar.Describe(filepath.Base(job.Path))
		_ = p.bar.Add(1)
		return
	}
	fmt.Fprintf(p.out, "%-9s %s\n", job.Status, job.Path)
}

func (p *jobProgress) finish() {
	if p != nil && p.bar != nil {
		_ = p.bar.Finish()
	}
}
