package reference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is matched by every error returned from Parse.
var ErrMalformed = errors.New("malformed reference")

// ParseError describes why a reference string could not be parsed.
type ParseError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed reference %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed reference %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes every ParseError match ErrMalformed.
func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

// Reference is a parsed scripture reference. It is a comparable value.
//
// For the Quran, Book holds the surah number and Chapter equals it.
// Verse is 0 for chapter-only references.
type Reference struct {
	Tradition Tradition `json:"tradition"`
	Book      string    `json:"book"`
	Chapter   int       `json:"chapter"`
	Verse     int       `json:"verse,omitempty"`
}

// Key is the normalized lookup form of a Reference: book names are lower-cased.
// Two references that name the same passage have equal keys.
type Key struct {
	Tradition Tradition
	Book      string
	Chapter   int
	Verse     int
}

// Key returns the normalized lookup key.
func (r Reference) Key() Key {
	return Key{
		Tradition: r.Tradition,
		Book:      NormalizeBook(r.Tradition, r.Book),
		Chapter:   r.Chapter,
		Verse:     r.Verse,
	}
}

// String renders k as a slash-separated path, e.g. "bible/song-of-solomon/2" or "quran/2/255".
func (k Key) String() string {
	parts := []string{string(k.Tradition)}
	if k.Book != "" {
		parts = append(parts, strings.ReplaceAll(k.Book, " ", "-"))
	}
	parts = append(parts, strconv.Itoa(k.Chapter))
	if k.Verse > 0 {
		parts = append(parts, strconv.Itoa(k.Verse))
	}
	return strings.Join(parts, "/")
}

// ChapterKey returns the key of the chapter containing r.
func (r Reference) ChapterKey() Key {
	k := r.Key()
	k.Verse = 0
	return k
}

// HasVerse reports whether r points at a single verse.
func (r Reference) HasVerse() bool { return r.Verse > 0 }

// String renders the canonical form accepted by Parse.
func (r Reference) String() string {
	var b strings.Builder
	b.WriteString(r.Tradition.Title())
	b.WriteByte(' ')
	if r.Tradition != Quran {
		b.WriteString(r.Book)
		b.WriteByte(' ')
	}
	b.WriteString(strconv.Itoa(r.Chapter))
	if r.HasVerse() {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(r.Verse))
	}
	return b.String()
}

// NormalizeBook returns the matching form of a book name. Quran references have
// no separate book, so the result is always empty for them.
func NormalizeBook(t Tradition, book string) string {
	if t == Quran {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(book), " "))
}
