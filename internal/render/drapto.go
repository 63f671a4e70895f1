package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	draptolib "github.com/five82/drapto"

	"eventbatch/internal/config"
	"eventbatch/internal/logging"
	"eventbatch/internal/timeline"
)

// encodeFunc encodes input into outputDir, producing <stem>.mkv there.
type encodeFunc func(ctx context.Context, input, outputDir string) error

// Drapto renders AV1 archive copies. The window is first cut to a lossless
// intermediate with ffmpeg and then encoded with the drapto library.
// Template args are not used.
type Drapto struct {
	ffmpeg *FFmpeg
	encode encodeFunc
	logger *slog.Logger
}

// NewDrapto returns an engine that cuts with ffmpeg.
func NewDrapto(ffmpeg *FFmpeg, logger *slog.Logger) *Drapto {
	return &Drapto{ffmpeg: ffmpeg, encode: libraryEncode, logger: logging.NewComponentLogger(logger, "drapto")}
}

func (d *Drapto) Name() string { return "drapto" }

// Available requires ffmpeg, which drapto also drives internally.
func (d *Drapto) Available() error {
	return d.ffmpeg.Available()
}

// Render cuts, encodes, and moves the result to job.Path.
func (d *Drapto) Render(ctx context.Context, job timeline.RenderJob, tmpl config.Template) (timeline.RenderStatus, error) {
	if len(job.Segments) == 0 {
		return timeline.RenderFailed, fmt.Errorf("render %s: %w", job.Path, ErrNoMaterial)
	}
	work, err := os.MkdirTemp(filepath.Dir(job.Path), ".drapto-")
	if err != nil {
		return timeline.RenderFailed, fmt.Errorf("render %s: create work dir: %w", job.Path, err)
	}
	defer os.RemoveAll(work)

	return renderAtomically(ctx, job.Path, func(tmp string) error {
		source := filepath.Join(work, "source.mkv")
		if err := d.ffmpeg.run(ctx, ffmpegArgs(job, intermediateArgs, source)); err != nil {
			return fmt.Errorf("cut intermediate: %w", err)
		}
		encoded := filepath.Join(work, "encoded")
		if err := os.MkdirAll(encoded, 0o755); err != nil {
			return err
		}
		d.logger.Info("launching drapto encode",
			logging.String("input", source),
			logging.String("template", tmpl.Name),
			logging.String("output", job.Path),
		)
		if err := d.encode(ctx, source, encoded); err != nil {
			return fmt.Errorf("drapto encode: %w", err)
		}
		return os.Rename(filepath.Join(encoded, "source.mkv"), tmp)
	})
}

// intermediateArgs keep the cut lossless and filter-compatible.
var intermediateArgs = []string{"-c:v", "ffv1", "-c:a", "flac"}

func libraryEncode(ctx context.Context, input, outputDir string) error {
	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return err
	}
	var rep draptolib.Reporter
	_, err = encoder.EncodeWithReporter(ctx, input, outputDir, rep)
	return err
}

var _ Engine = (*Drapto)(nil)
