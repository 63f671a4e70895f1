package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultFrameRate is used when a project does not declare one.
const DefaultFrameRate = 25.0

// Timecode is a timeline position or duration counted in frames.
type Timecode int64

// FromFrames converts a frame count into a Timecode.
func FromFrames(frames int) Timecode {
	return Timecode(frames)
}

// FromSeconds converts seconds into the nearest whole frame at rate.
func FromSeconds(seconds, rate float64) Timecode {
	rate = normalizeRate(rate)
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	return Timecode(math.Round(seconds * rate))
}

// Frames returns the frame count.
func (t Timecode) Frames() int64 {
	return int64(t)
}

// Seconds converts the frame count to seconds at rate.
func (t Timecode) Seconds(rate float64) float64 {
	return float64(t) / normalizeRate(rate)
}

// Format renders the timecode as HH:MM:SS.mmm at rate. Negative values are
// prefixed with a minus sign.
func (t Timecode) Format(rate float64) string {
	sign := ""
	frames := int64(t)
	if frames < 0 {
		sign = "-"
		frames = -frames
	}
	totalMillis := int64(math.Round(float64(frames) * 1000 / normalizeRate(rate)))
	millis := totalMillis % 1000
	totalSeconds := totalMillis / 1000
	seconds := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := totalSeconds / 3600
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, hours, minutes, seconds, millis)
}

// String renders the raw frame count, which is what log lines and error
// messages carry when no frame rate is at hand.
func (t Timecode) String() string {
	return fmt.Sprintf("%df", int64(t))
}

// ParseTimecode reads "120f" as frames, "[HH:]MM:SS[.mmm]" as clock time,
// and a bare number as seconds. A comma is accepted as decimal separator.
func ParseTimecode(text string, rate float64) (Timecode, error) {
	value := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if value == "" {
		return 0, fmt.Errorf("empty timecode")
	}
	if frames, ok := strings.CutSuffix(value, "f"); ok {
		n, err := strconv.ParseInt(frames, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid frame count %q", text)
		}
		return Timecode(n), nil
	}

	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timecode %q", text)
	}
	var seconds float64
	for i, part := range parts {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil || n < 0 || math.IsInf(n, 0) || (i < len(parts)-1 && n != math.Trunc(n)) {
			return 0, fmt.Errorf("invalid timecode %q", text)
		}
		seconds = seconds*60 + n
	}
	return FromSeconds(seconds, rate), nil
}

func minTimecode(a, b Timecode) Timecode {
	if a < b {
		return a
	}
	return b
}

func maxTimecode(a, b Timecode) Timecode {
	if a > b {
		return a
	}
	return b
}

func normalizeRate(rate float64) float64 {
	if math.IsNaN(rate) || rate <= 0 {
		return DefaultFrameRate
	}
	return rate
}
