// Package keyword provides topic search over chapters and curated connections.
package keyword

import (
	"errors"
)

// ErrEmptyQuery is returned when a search query has no terms.
var ErrEmptyQuery = errors.New("empty query")

// Kind identifies what a hit points at.
type Kind string

const (
	KindChapter    Kind = "chapter"
	KindConnection Kind = "connection"
)

// SearchOptions optional parameters for topic search. Nil means use defaults.
type SearchOptions struct {
	// Kind restricts hits to one record kind. Empty matches both.
	Kind Kind
	// TitleBoost multiplies the contribution of title and theme matches (e.g. 3.0).
	TitleBoost float64
	// Fuzziness is the maximum edit distance per term. 0 disables fuzzy matching.
	Fuzziness int
}

// Hit is a single search result.
type Hit struct {
	ID    string  `json:"id"`
	Kind  Kind    `json:"kind"`
	Title string  `json:"title"`
	Ref   string  `json:"ref"`
	Score float64 `json:"score"`
}

// Results are the hits for a query, with a corrected query when terms look misspelled.
type Results struct {
	Query      string `json:"query"`
	Hits       []*Hit `json:"hits"`
	DidYouMean string `json:"did_you_mean,omitempty"`
}

// TermDictionary provides access to indexed terms for spell checking.
type TermDictionary interface {
	// Terms returns every indexed term with its document frequency.
	Terms() (map[string]int, error)
}
