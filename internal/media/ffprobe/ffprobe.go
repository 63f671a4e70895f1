package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"eventbatch/internal/logging"
)

// ErrNoDuration is returned when ffprobe reports no usable duration.
var ErrNoDuration = errors.New("ffprobe: media has no duration")

// Result is the parsed output of one ffprobe run.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one stream in the container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

// Format is the container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// HasVideo reports whether any stream is video.
func (r Result) HasVideo() bool {
	return r.firstStream("video") != nil
}

// HasAudio reports whether any stream is audio.
func (r Result) HasAudio() bool {
	return r.firstStream("audio") != nil
}

func (r Result) firstStream(kind string) *Stream {
	for i := range r.Streams {
		if strings.EqualFold(r.Streams[i].CodecType, kind) {
			return &r.Streams[i]
		}
	}
	return nil
}

// DurationSeconds returns the container duration, falling back to the longest
// stream. Zero means unknown.
func (r Result) DurationSeconds() float64 {
	if d := parseFloat(r.Format.Duration); d > 0 {
		return d
	}
	var longest float64
	for _, stream := range r.Streams {
		if d := parseFloat(stream.Duration); d > longest {
			longest = d
		}
	}
	return longest
}

// FrameRate returns the first video stream's frame rate, or 0.
func (r Result) FrameRate() float64 {
	video := r.firstStream("video")
	if video == nil {
		return 0
	}
	if rate := parseRatio(video.RFrameRate); rate > 0 {
		return rate
	}
	return parseRatio(video.AvgFrameRate)
}

// SizeBytes returns the reported container size, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if size <= 0 {
		return 0
	}
	return int64(size)
}

// parseFloat returns 0 for empty, invalid, and non-finite values.
func parseFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0
	}
	return parsed
}

// parseRatio reads ffprobe rates such as "30000/1001".
func parseRatio(value string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		return parseFloat(num)
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return parseFloat(num) / d
}

// Prober measures media with ffprobe.
type Prober struct {
	binary string
	logger *slog.Logger
}

// NewProber returns a Prober running binary.
func NewProber(binary string, logger *slog.Logger) *Prober {
	return &Prober{binary: binary, logger: logging.NewComponentLogger(logger, "ffprobe")}
}

// ProbeDuration returns the media duration in seconds.
func (p *Prober) ProbeDuration(ctx context.Context, path string) (float64, error) {
	result, err := Inspect(ctx, p.binary, path)
	if err != nil {
		return 0, err
	}
	seconds := result.DurationSeconds()
	if seconds <= 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrNoDuration)
	}
	p.logger.Debug("media probed",
		logging.String("path", path),
		logging.Float64("duration_seconds", seconds),
		logging.Int64("size_bytes", result.SizeBytes()),
		logging.Bool("video", result.HasVideo()),
	)
	return seconds, nil
}
