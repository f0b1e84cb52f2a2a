package models

import "strconv"

// TextType is the corpus a related text belongs to.
type TextType string

const (
	TextQuran    TextType = "quran"
	TextBible    TextType = "bible"
	TextTorah    TextType = "torah"
	TextExternal TextType = "external"
)

// Valid reports whether t is a known text type.
func (t TextType) Valid() bool {
	switch t {
	case TextQuran, TextBible, TextTorah, TextExternal:
		return true
	}
	return false
}

// Relevance is the curated reason two texts are related. It is data, never computed.
type Relevance string

const (
	RelevanceDirect     Relevance = "direct"
	RelevanceThematic   Relevance = "thematic"
	RelevanceHistorical Relevance = "historical"
	RelevanceProphetic  Relevance = "prophetic"
	RelevanceParallel   Relevance = "parallel"
)

// Valid reports whether r is a known relevance category.
func (r Relevance) Valid() bool {
	switch r {
	case RelevanceDirect, RelevanceThematic, RelevanceHistorical, RelevanceProphetic, RelevanceParallel:
		return true
	}
	return false
}

// RelatedText points from a source reference to related content.
// Path is filled in by the link generator and never stored.
type RelatedText struct {
	Type        TextType  `json:"type" yaml:"type"`
	Reference   string    `json:"reference" yaml:"reference"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Relevance   Relevance `json:"relevance" yaml:"relevance"`
	Keywords    []string  `json:"keywords" yaml:"keywords"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	Path        string    `json:"path,omitempty" yaml:"-"`
}

// Clone returns a deep copy of t.
func (t RelatedText) Clone() RelatedText {
	t.Keywords = cloneStrings(t.Keywords)
	return t
}

// Connection is a curated cross-tradition association with a stable ID
// such as "creation-narratives".
type Connection struct {
	ID           string        `json:"id" yaml:"id"`
	Title        string        `json:"title" yaml:"title"`
	Description  string        `json:"description" yaml:"description"`
	Significance string        `json:"significance,omitempty" yaml:"significance,omitempty"`
	Themes       []string      `json:"themes" yaml:"themes"`
	Texts        []RelatedText `json:"texts" yaml:"texts"`
}

// Clone returns a deep copy of c.
func (c *Connection) Clone() *Connection {
	out := *c
	out.Themes = cloneStrings(c.Themes)
	out.Texts = cloneTexts(c.Texts)
	return &out
}

// VerseInterlinks is the set of related material for one source reference.
type VerseInterlinks struct {
	Reference       string        `json:"reference" yaml:"reference"`
	RelatedTexts    []RelatedText `json:"related_texts" yaml:"related_texts"`
	CrossReferences []string      `json:"cross_references" yaml:"cross_references"`
	Themes          []string      `json:"themes" yaml:"themes"`
	Keywords        []string      `json:"keywords" yaml:"keywords"`
	SEODescription  string        `json:"seo_description,omitempty" yaml:"seo_description,omitempty"`
}

// Clone returns a deep copy of v.
func (v *VerseInterlinks) Clone() *VerseInterlinks {
	out := *v
	out.RelatedTexts = cloneTexts(v.RelatedTexts)
	out.CrossReferences = cloneStrings(v.CrossReferences)
	out.Themes = cloneStrings(v.Themes)
	out.Keywords = cloneStrings(v.Keywords)
	return &out
}

func cloneTexts(in []RelatedText) []RelatedText {
	if in == nil {
		return nil
	}
	out := make([]RelatedText, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func itoa(n int) string { return strconv.Itoa(n) }
