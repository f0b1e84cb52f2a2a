// Package reference parses scripture references such as "Bible John 3:16" or "Quran 2:255"
// into typed values that can be compared and used as map keys.
package reference

import (
	"fmt"
	"strings"
)

// Tradition names a scripture corpus.
type Tradition string

const (
	Quran Tradition = "quran"
	Bible Tradition = "bible"
	Torah Tradition = "torah"
)

// Traditions returns all supported traditions in display order.
func Traditions() []Tradition {
	return []Tradition{Quran, Bible, Torah}
}

// ParseTradition matches s case-insensitively against the supported traditions.
func ParseTradition(s string) (Tradition, error) {
	t := Tradition(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown tradition %q", ErrMalformed, s)
	}
	return t, nil
}

// Valid reports whether t is one of the supported traditions.
func (t Tradition) Valid() bool {
	switch t {
	case Quran, Bible, Torah:
		return true
	}
	return false
}

// Title returns the display name ("Quran", "Bible", "Torah").
func (t Tradition) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}
