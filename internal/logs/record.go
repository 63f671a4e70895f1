package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"eventbatch/internal/logging"
)

// Record is one decoded line of the log file. Lines that are not JSON are
// kept as a message-only record at info level.
type Record struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	RunID     string
	Attrs     map[string]any
}

// ParseRecord decodes a JSON log line.
func ParseRecord(line string) Record {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return Record{Level: slog.LevelInfo, Message: line}
	}
	record := Record{Level: slog.LevelInfo, Attrs: map[string]any{}}
	for key, value := range fields {
		text, _ := value.(string)
		switch key {
		case slog.TimeKey:
			record.Time, _ = time.Parse(time.RFC3339Nano, text)
		case slog.LevelKey:
			_ = record.Level.UnmarshalText([]byte(text))
		case slog.MessageKey:
			record.Message = text
		case slog.SourceKey:
		case logging.FieldComponent:
			record.Component = text
		case logging.FieldRunID:
			record.RunID = text
		default:
			record.Attrs[key] = value
		}
	}
	return record
}

// Filter selects records. The zero Filter matches every record.
type Filter struct {
	// RunID matches records whose run ID starts with the value, so the short
	// form shown in console output works too.
	RunID string
	// MinLevel drops records below the level; nil keeps all levels.
	MinLevel slog.Leveler
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	if f.MinLevel != nil && r.Level < f.MinLevel.Level() {
		return false
	}
	if runID := strings.TrimSpace(f.RunID); runID != "" && !strings.HasPrefix(r.RunID, runID) {
		return false
	}
	return true
}

// Format renders the record as a single console line with sorted attributes.
func (r Record) Format() string {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", r.Level.String())
	if r.Component != "" {
		fmt.Fprintf(&b, "[%s] ", r.Component)
	}
	b.WriteString(r.Message)

	keys := make([]string, 0, len(r.Attrs))
	for key := range r.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, r.Attrs[key])
	}
	return b.String()
}
