package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"eventbatch/internal/config"
	"eventbatch/internal/logging"
	"eventbatch/internal/timeline"
)

var commandContext = exec.CommandContext

// ErrNoMaterial is returned when nothing visible lies in the render window.
var ErrNoMaterial = errors.New("no visible material in render window")

// FFmpeg renders jobs by cutting and concatenating source media with ffmpeg.
type FFmpeg struct {
	binary string
	logger *slog.Logger
}

// NewFFmpeg returns an engine running binary.
func NewFFmpeg(binary string, logger *slog.Logger) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, logger: logging.NewComponentLogger(logger, "ffmpeg")}
}

func (f *FFmpeg) Name() string { return "ffmpeg" }

// Available reports whether the binary can be found.
func (f *FFmpeg) Available() error {
	if _, err := exec.LookPath(f.binary); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	return nil
}

// Render writes the job's visible segments to job.Path.
func (f *FFmpeg) Render(ctx context.Context, job timeline.RenderJob, tmpl config.Template) (timeline.RenderStatus, error) {
	if len(job.Segments) == 0 {
		return timeline.RenderFailed, fmt.Errorf("render %s: %w", job.Path, ErrNoMaterial)
	}
	return renderAtomically(ctx, job.Path, func(tmp string) error {
		return f.run(ctx, ffmpegArgs(job, tmpl.Args, tmp))
	})
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	f.logger.Debug("running ffmpeg", logging.String("command", f.binary+" "+strings.Join(args, " ")))
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, detail)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// ffmpegArgs builds the command line for a job. One segment is a plain seek
// and trim. Several segments are joined with the concat filter.
func ffmpegArgs(job timeline.RenderJob, templateArgs []string, out string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}
	for _, seg := range job.Segments {
		args = append(args,
			"-ss", seconds(seg.Offset, job.FrameRate),
			"-t", seconds(seg.Length, job.FrameRate),
			"-i", seg.MediaPath,
		)
	}
	if len(job.Segments) > 1 {
		stream, video, audio := "v", 1, 0
		if job.Segments[0].Kind == timeline.MediaAudio {
			stream, video, audio = "a", 0, 1
		}
		var graph strings.Builder
		for i := range job.Segments {
			fmt.Fprintf(&graph, "[%d:%s:0]", i, stream)
		}
		fmt.Fprintf(&graph, "concat=n=%d:v=%d:a=%d[out]", len(job.Segments), video, audio)
		args = append(args, "-filter_complex", graph.String(), "-map", "[out]")
	}
	args = append(args, templateArgs...)
	return append(args, out)
}

func seconds(t timeline.Timecode, rate float64) string {
	return strconv.FormatFloat(t.Seconds(rate), 'f', 3, 64)
}

// renderAtomically runs write against a temporary sibling of path and renames
// it into place on success. Cancellation maps to RenderCanceled.
func renderAtomically(ctx context.Context, path string, write func(tmp string) error) (timeline.RenderStatus, error) {
	tmp := partialPath(path)
	defer os.Remove(tmp)

	if err := write(tmp); err != nil {
		if ctx.Err() != nil {
			return timeline.RenderCanceled, nil
		}
		return timeline.RenderFailed, fmt.Errorf("render %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return timeline.RenderCanceled, nil
	}
	if err := os.Rename(tmp, path); err != nil {
		return timeline.RenderFailed, fmt.Errorf("render %s: %w", path, err)
	}
	return timeline.RenderComplete, nil
}

// partialPath keeps the extension so muxers can still infer the container.
func partialPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".partial"+ext)
}

var _ Engine = (*FFmpeg)(nil)
