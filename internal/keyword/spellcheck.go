package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is a candidate correction for one term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
	Score     float64
}

// SpellChecker suggests corrections for query terms that are not in the dictionary.
// Book names and transliterations are easy to misspell ("Deutronomy", "Bereshith").
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	maxSuggestions int

	once  sync.Once
	terms map[string]int
	err   error
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions returned per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a SpellChecker over dict. Terms are read once, on first use;
// the catalog index never changes after it is built.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SpellChecker) load() (map[string]int, error) {
	s.once.Do(func() {
		s.terms, s.err = s.dictionary.Terms()
	})
	return s.terms, s.err
}

// Known reports whether term is in the dictionary.
func (s *SpellChecker) Known(term string) bool {
	terms, err := s.load()
	if err != nil {
		return false
	}
	_, ok := terms[strings.ToLower(term)]
	return ok
}

// Suggest returns corrections for term, best first. Closer and more frequent terms rank higher.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	terms, err := s.load()
	if err != nil {
		return nil
	}
	term = strings.ToLower(term)
	n := len([]rune(term))

	var out []Suggestion
	for candidate, freq := range terms {
		if candidate == term {
			continue
		}
		if diff := len([]rune(candidate)) - n; diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		d := EditDistance(term, candidate)
		if d > s.maxDistance {
			continue
		}
		out = append(out, Suggestion{
			Term:      candidate,
			Distance:  d,
			Frequency: freq,
			Score:     float64(freq) / float64(d+1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}

// SuggestedQuery replaces each unknown term of query with its best suggestion.
// The query is returned unchanged when every term is known or has no suggestion.
func (s *SpellChecker) SuggestedQuery(query string) string {
	terms := tokenizeQuery(query)
	changed := false
	for i, term := range terms {
		if s.Known(term) {
			continue
		}
		if sug := s.Suggest(term); len(sug) > 0 {
			terms[i] = sug[0].Term
			changed = true
		}
	}
	if !changed {
		return query
	}
	return strings.Join(terms, " ")
}

// EditDistance is the optimal string alignment distance between a and b: insertions,
// deletions, substitutions and adjacent transpositions each cost one. Runes are compared.
func EditDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	d := make([][]int, len(ra)+1)
	for i := range d {
		d[i] = make([]int, len(rb)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+1)
			}
		}
	}
	return d[len(ra)][len(rb)]
}
