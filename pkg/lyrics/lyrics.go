package lyrics

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

type Length string

const (
	Short  Length = "short"
	Medium Length = "medium"
	Long   Length = "long"
)

// Profile describes how many display lines a length tier targets and the
// token budget passed to the backend.
type Profile struct {
	Lines  int
	Budget int
	Label  string
	Option string
}

var profiles = map[Length]Profile{
	Short:  {Lines: 8, Budget: 200, Label: "8 lines", Option: "Short (8 bars)"},
	Medium: {Lines: 16, Budget: 400, Label: "16 lines", Option: "Medium (16 bars)"},
	Long:   {Lines: 24, Budget: 600, Label: "24 lines", Option: "Long (24 bars)"},
}

// Lengths returns the recognized lengths in ascending order.
func Lengths() []Length {
	return []Length{Short, Medium, Long}
}

// ProfileOf returns the profile of the given length.
func ProfileOf(l Length) (Profile, bool) {
	p, ok := profiles[l]
	return p, ok
}

// ParseLength parses a length option.
func ParseLength(s string) (Length, error) {
	l := Length(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := profiles[l]; !ok {
		return "", fmt.Errorf("%w: invalid length option %q", ErrValidation, s)
	}
	return l, nil
}

type Request struct {
	Theme  string `json:"theme"`
	Mood   string `json:"mood"`
	Length Length `json:"length"`
}

// Validate checks that theme and mood are present and the length is known.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Theme) == "" || strings.TrimSpace(r.Mood) == "" || r.Length == "" {
		return fmt.Errorf("%w: theme, mood, and length are required", ErrValidation)
	}
	if _, ok := profiles[r.Length]; !ok {
		return fmt.Errorf("%w: invalid length option %q", ErrValidation, r.Length)
	}
	return nil
}

func (r Request) String() string {
	return fmt.Sprintf("{%s, m: %s, l: %s}", r.Theme, r.Mood, r.Length)
}

// Document is a generated lyric passage. It is never modified after creation.
type Document struct {
	ID    string
	Raw   string
	Lines []string
}

// NewDocument builds a document from raw text, dropping blank lines.
func NewDocument(raw string) *Document {
	return &Document{
		ID:    ulid.Make().String(),
		Raw:   raw,
		Lines: SplitLines(raw),
	}
}

// Len returns the number of lines, zero for a nil document.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Lines)
}

// Line returns the i-th line or an empty string when out of range.
func (d *Document) Line(i int) string {
	if i < 0 || i >= d.Len() {
		return ""
	}
	return d.Lines[i]
}

// SplitLines splits text on line breaks and discards lines that are empty
// after trimming.
func SplitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
