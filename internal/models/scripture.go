// Package models defines the records served by the lookup layer: chapters, verses,
// related texts, curated connections and per-reference interlinks.
package models

import (
	"errors"

	"github.com/hyperjump/tsunagu/internal/reference"
)

// ErrNotFound is returned for well-formed lookups that have no record.
// Most chapters only carry placeholder data, so callers should expect it.
var ErrNotFound = errors.New("not found")

// Verse is a single verse (ayah) of a chapter.
type Verse struct {
	Number          int    `json:"number" yaml:"number"`
	OriginalText    string `json:"original_text" yaml:"original"`
	Translation     string `json:"translation" yaml:"translation"`
	Transliteration string `json:"transliteration,omitempty" yaml:"transliteration,omitempty"`
	Commentary      string `json:"commentary,omitempty" yaml:"commentary,omitempty"`
}

// Chapter is a chapter of a book, or a surah of the Quran.
// VerseCount is the declared length; Verses may hold fewer records while the
// catalog is still being populated.
type Chapter struct {
	Tradition  reference.Tradition `json:"tradition" yaml:"tradition"`
	Book       string              `json:"book,omitempty" yaml:"book,omitempty"`
	Number     int                 `json:"number" yaml:"number"`
	Name       string              `json:"name" yaml:"name"`
	Title      string              `json:"title,omitempty" yaml:"title,omitempty"`
	Period     string              `json:"period,omitempty" yaml:"period,omitempty"`
	VerseCount int                 `json:"verse_count" yaml:"verse_count"`
	Themes     []string            `json:"themes" yaml:"themes"`
	Summary    string              `json:"summary" yaml:"summary"`
	KeyVerses  []string            `json:"key_verses" yaml:"key_verses"`
	Verses     []Verse             `json:"verses" yaml:"verses"`
}

// Complete reports whether every declared verse is present.
func (c *Chapter) Complete() bool {
	return len(c.Verses) == c.VerseCount
}

// Reference returns the chapter-level reference of c.
func (c *Chapter) Reference() reference.Reference {
	ref := reference.Reference{Tradition: c.Tradition, Book: c.Book, Chapter: c.Number}
	if c.Tradition == reference.Quran {
		ref.Book = itoa(c.Number)
	}
	return ref
}

// Clone returns a deep copy so callers cannot mutate catalog state.
func (c *Chapter) Clone() *Chapter {
	out := *c
	out.Themes = cloneStrings(c.Themes)
	out.KeyVerses = cloneStrings(c.KeyVerses)
	out.Verses = append([]Verse(nil), c.Verses...)
	return &out
}
