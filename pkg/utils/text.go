// Package utils provides shared utilities for text handling and logging.
package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:maxLen]), unicode.IsSpace) + "..."
}

// minorWords stay lower-case inside a title ("Song of Solomon").
var minorWords = map[string]bool{
	"of": true, "the": true, "and": true,
}

// TitleCase normalizes whitespace and capitalizes each word of a book name.
// Minor words are lower-cased unless they start the name.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if i > 0 && minorWords[w] {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

var slugInvalid = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slugify lower-cases s and joins its words with hyphens ("1 John" -> "1-john").
func Slugify(s string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

var localePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})?$`)

// ValidLocale reports whether code looks like a language code ("en", "mr", "pt-BR").
// Codes are used as path segments and file names, so anything else is rejected.
func ValidLocale(code string) bool {
	return localePattern.MatchString(code)
}
