package reference

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/hyperjump/tsunagu/pkg/utils"
)

// refGrammar matches "<tradition> <book words...> <chapter>[:<verse>]".
// A trailing bare integer in Words is the chapter of a chapter-only reference.
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Tradition string   `@Word`
	Words     []string `@(Int | Word)*`
	Locator   string   `@Locator?`
}

// Locator must precede Int so "3:16" lexes as a single token.
var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Locator", Pattern: `[0-9]+:[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Word", Pattern: `\p{L}[\p{L}'’\-]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a reference such as "Quran 2:255", "Bible John 3:16",
// "bible 1 john 4" or "Torah Genesis 1:1". The tradition token is
// case-insensitive; book names are title-cased for display.
// Every error returned matches ErrMalformed.
func Parse(raw string) (Reference, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Reference{}, &ParseError{Input: raw, Reason: "empty reference"}
	}
	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return Reference{}, &ParseError{Input: raw, Reason: "unexpected format", Err: err}
	}

	tradition := Tradition(strings.ToLower(parsed.Tradition))
	if !tradition.Valid() {
		return Reference{}, &ParseError{Input: raw, Reason: "unknown tradition " + strconv.Quote(parsed.Tradition)}
	}

	words := parsed.Words
	var chapter, verse int
	if parsed.Locator != "" {
		c, v, _ := strings.Cut(parsed.Locator, ":")
		if chapter, err = positive(c); err != nil {
			return Reference{}, &ParseError{Input: raw, Reason: "invalid chapter", Err: err}
		}
		if verse, err = positive(v); err != nil {
			return Reference{}, &ParseError{Input: raw, Reason: "invalid verse", Err: err}
		}
	} else {
		if len(words) == 0 {
			return Reference{}, &ParseError{Input: raw, Reason: "missing chapter"}
		}
		last := words[len(words)-1]
		if _, convErr := strconv.Atoi(last); convErr != nil {
			return Reference{}, &ParseError{Input: raw, Reason: "missing chapter"}
		}
		if chapter, err = positive(last); err != nil {
			return Reference{}, &ParseError{Input: raw, Reason: "invalid chapter", Err: err}
		}
		words = words[:len(words)-1]
	}

	ref := Reference{Tradition: tradition, Chapter: chapter, Verse: verse}
	if tradition == Quran {
		if len(words) != 0 {
			return Reference{}, &ParseError{Input: raw, Reason: "surah must be a number"}
		}
		ref.Book = strconv.Itoa(chapter)
		return ref, nil
	}
	if len(words) == 0 {
		return Reference{}, &ParseError{Input: raw, Reason: "missing book name"}
	}
	if !validBook(words) {
		return Reference{}, &ParseError{Input: raw, Reason: "invalid book name " + strconv.Quote(strings.Join(words, " "))}
	}
	ref.Book = utils.TitleCase(strings.Join(words, " "))
	return ref, nil
}

// validBook reports whether words form a book name: alphabetic words, optionally
// led by one ordinal as in "1 John".
func validBook(words []string) bool {
	for i, w := range words {
		if _, err := strconv.Atoi(w); err == nil && (i > 0 || len(words) == 1) {
			return false
		}
	}
	return true
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
