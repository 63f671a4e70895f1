package presets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"eventbatch/internal/logging"
)

// Preset is a labelled external command template.
type Preset struct {
	Label    string
	Template string
}

// DefaultLabel is the preset selected when none is configured.
const DefaultLabel = "FFmpeg: ProRes [112Mbps 10-bit, Audio Copy]"

var builtins = []Preset{
	{Label: "All Files", Template: "{0} | {1} | {2} | {3}"},
	{Label: "FFmpeg: ProRes [36Mbps 10-bit, Audio Copy]", Template: `ffmpeg -i "{0}" -ss {2} -t {3} -vcodec prores -profile 0 -acodec copy "{1}"`},
	{Label: "FFmpeg: ProRes [75Mbps 10-bit, Audio Copy]", Template: `ffmpeg -i "{0}" -ss {2} -t {3} -vcodec prores -profile 1 -acodec copy "{1}"`},
	{Label: "FFmpeg: ProRes [112Mbps 10-bit, Audio Copy]", Template: `ffmpeg -i "{0}" -ss {2} -t {3} -vcodec prores -profile 2 -acodec copy "{1}"`},
	{Label: "FFmpeg: ProRes [185Mbps 10-bit, Audio Copy]", Template: `ffmpeg -i "{0}" -ss {2} -t {3} -vcodec prores -profile 3 -acodec copy "{1}"`},
}

// ErrPresetNotFound is returned when a lookup misses.
var ErrPresetNotFound = errors.New("preset not found")

// Registry is an ordered label → template table. The first entry for a label
// wins.
type Registry struct {
	presets []Preset
	logger  *slog.Logger
}

// NewRegistry returns a registry seeded with the built-in presets.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{logger: logging.NewComponentLogger(logger, "presets")}
	for _, p := range builtins {
		r.add(p)
	}
	return r
}

// List returns the presets in order.
func (r *Registry) List() []Preset {
	out := make([]Preset, len(r.presets))
	copy(out, r.presets)
	return out
}

// Len is the number of presets.
func (r *Registry) Len() int {
	return len(r.presets)
}

// Get looks a preset up by label.
func (r *Registry) Get(label string) (Preset, bool) {
	label = strings.TrimSpace(label)
	for _, p := range r.presets {
		if p.Label == label {
			return p, true
		}
	}
	return Preset{}, false
}

// At returns the preset at a 1-based position, the way file-dialog filter
// indexes count.
func (r *Registry) At(position int) (Preset, bool) {
	if position < 1 || position > len(r.presets) {
		return Preset{}, false
	}
	return r.presets[position-1], true
}

// Resolve accepts either a label or a 1-based position.
func (r *Registry) Resolve(selector string) (Preset, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		selector = DefaultLabel
	}
	if p, ok := r.Get(selector); ok {
		return p, nil
	}
	var position int
	if _, err := fmt.Sscanf(selector, "%d", &position); err == nil {
		if p, ok := r.At(position); ok {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, selector)
}

func (r *Registry) add(p Preset) bool {
	if _, exists := r.Get(p.Label); exists {
		return false
	}
	if err := checkTemplate(p.Template); err != nil {
		logging.WarnWithContext(r.logger, "skipping malformed preset", "preset_invalid",
			logging.String("label", p.Label),
			logging.Error(err),
			logging.String(logging.FieldImpact, "preset is not selectable"),
		)
		return false
	}
	r.presets = append(r.presets, Preset{Label: p.Label, Template: p.Template})
	return true
}

// Merge reads alternating label/template lines from src and appends labels
// not already present. It returns the number of presets added.
func (r *Registry) Merge(src io.Reader) (int, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return 0, fmt.Errorf("read presets: %w", err)
	}
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isComment(line) {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan presets: %w", err)
	}

	added := 0
	for i := 0; i+1 < len(lines); i += 2 {
		if r.add(Preset{Label: lines[i], Template: lines[i+1]}) {
			added++
		}
	}
	return added, nil
}

// LoadFile merges a preset file. A missing file is not an error.
func (r *Registry) LoadFile(path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open preset file: %w", err)
	}
	defer file.Close()

	added, err := r.Merge(file)
	if err != nil {
		return added, err
	}
	r.logger.Debug("preset file merged", logging.String("path", path), logging.Int("added", added))
	return added, nil
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#")
}
