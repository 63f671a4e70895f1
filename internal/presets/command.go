package presets

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/valyala/fasttemplate"
)

// Params is one event's external render parameters.
type Params struct {
	Source      string
	Destination string
	Start       string
	Duration    string
}

// Command substitutes params into template. Start and duration are
// normalized from decimal-comma to decimal-point notation; unknown
// placeholders are left as written.
func Command(template string, p Params) (string, error) {
	values := map[string]string{
		"0": p.Source,
		"1": p.Destination,
		"2": strings.ReplaceAll(p.Start, ",", "."),
		"3": strings.ReplaceAll(p.Duration, ",", "."),
	}
	var b strings.Builder
	_, err := fasttemplate.ExecuteFunc(template, "{", "}", &b, func(w io.Writer, tag string) (int, error) {
		if value, ok := values[tag]; ok {
			return io.WriteString(w, value)
		}
		return io.WriteString(w, "{"+tag+"}")
	})
	if err != nil {
		return "", fmt.Errorf("expand command template: %w", err)
	}
	return b.String(), nil
}

// Generate renders one command line per parameter tuple.
func Generate(template string, params []Params) (string, error) {
	var b strings.Builder
	for _, p := range params {
		line, err := Command(template, p)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// checkTemplate rejects templates whose placeholders would not expand: an
// unclosed "{" makes the substitution engine copy the rest of the line
// verbatim, so every later placeholder would be lost.
func checkTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return fmt.Errorf("empty template")
	}
	var tags []string
	_, err := fasttemplate.ExecuteFunc(template, "{", "}", io.Discard, func(w io.Writer, tag string) (int, error) {
		tags = append(tags, tag)
		return 0, nil
	})
	if err != nil {
		return fmt.Errorf("expand command template: %w", err)
	}
	for _, tag := range tags {
		if tag == "" || strings.Contains(tag, "{") {
			return fmt.Errorf("malformed placeholder {%s}", tag)
		}
	}
	if open := strings.LastIndex(template, "{"); open > strings.LastIndex(template, "}") {
		return fmt.Errorf("unclosed placeholder at offset %d", open)
	}
	return nil
}

// WriteCommandFile atomically writes content to path as UTF-8 text preceded
// by a blank line.
func WriteCommandFile(path, content string) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o755))
	if err != nil {
		return fmt.Errorf("create pending command file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := io.WriteString(pending, "\n"+content); err != nil {
		return fmt.Errorf("write command file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace command file: %w", err)
	}
	return nil
}
