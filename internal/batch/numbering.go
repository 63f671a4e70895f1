package batch

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultNumberWidth is the width used when no start number text is given.
const DefaultNumberWidth = 5

// Sequencer hands out zero-padded file numbers for one batch run.
type Sequencer struct {
	next  int
	width int
}

// NewSequencer starts counting at start with a fixed display width.
func NewSequencer(start, width int) *Sequencer {
	if start < 0 {
		start = 0
	}
	if width < 1 {
		width = 1
	}
	return &Sequencer{next: start, width: width}
}

// ParseSequencer builds a sequencer from user text such as "00001". Non-digit
// characters are ignored; the width is the length of the trimmed text. Empty
// or unparsable text falls back to the defaults.
func ParseSequencer(text string, defaultStart, defaultWidth int) *Sequencer {
	trimmed := strings.TrimSpace(text)
	width := len([]rune(trimmed))
	if width == 0 {
		width = defaultWidth
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r <= '9' {
			return r
		}
		return -1
	}, trimmed)
	start, err := strconv.Atoi(digits)
	if err != nil {
		start = defaultStart
	}
	return NewSequencer(start, width)
}

// Next returns the current number padded to the width and advances.
func (s *Sequencer) Next() string {
	value := fmt.Sprintf("%0*d", s.width, s.next)
	s.next++
	return value
}

// Peek returns the value Next would return without advancing.
func (s *Sequencer) Peek() int {
	return s.next
}

// Width is the configured minimum display width.
func (s *Sequencer) Width() int {
	return s.width
}
