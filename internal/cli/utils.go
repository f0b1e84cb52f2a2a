// Package cli provides output helpers for the tsunagu command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/tsunagu/internal/keyword"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("invalid output format %q (want text or json)", s)
}

const rule = "─────────────────────────────────────────────────────────"

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteChapter writes a chapter, or a single verse of it when verse is non-nil.
func WriteChapter(w io.Writer, ch *models.Chapter, verse *models.Verse, format OutputFormat) error {
	if format == OutputJSON {
		if verse != nil {
			return WriteJSON(w, map[string]interface{}{"reference": ch.Reference().String(), "verse": verse})
		}
		return WriteJSON(w, ch)
	}
	heading := ch.Reference().String() + " - " + ch.Name
	if ch.Title != "" {
		heading += " (" + ch.Title + ")"
	}
	fmt.Fprintln(w, heading)
	if verse != nil {
		writeVerse(w, *verse)
		return nil
	}
	fmt.Fprintf(w, "Verses: %d of %d available\n", len(ch.Verses), ch.VerseCount)
	if len(ch.Themes) > 0 {
		fmt.Fprintf(w, "Themes: %s\n", strings.Join(ch.Themes, ", "))
	}
	if ch.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", ch.Summary)
	}
	for _, v := range ch.Verses {
		writeVerse(w, v)
	}
	return nil
}

func writeVerse(w io.Writer, v models.Verse) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%d. %s\n", v.Number, v.Translation)
	if v.OriginalText != "" {
		fmt.Fprintf(w, "   %s\n", v.OriginalText)
	}
	if v.Transliteration != "" {
		fmt.Fprintf(w, "   %s\n", v.Transliteration)
	}
}

// WriteInterlinks writes the related material of a reference.
func WriteInterlinks(w io.Writer, il *models.VerseInterlinks, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, il)
	}
	fmt.Fprintf(w, "Interlinks for %s\n", il.Reference)
	if il.SEODescription != "" {
		fmt.Fprintf(w, "%s\n", il.SEODescription)
	}
	if len(il.Themes) > 0 {
		fmt.Fprintf(w, "Themes: %s\n", strings.Join(il.Themes, ", "))
	}
	fmt.Fprintln(w)
	for _, rt := range il.RelatedTexts {
		writeRelatedText(w, rt)
	}
	if len(il.CrossReferences) > 0 {
		fmt.Fprintf(w, "See also: %s\n", strings.Join(il.CrossReferences, "; "))
	}
	return nil
}

func writeRelatedText(w io.Writer, rt models.RelatedText) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "[%s] %s: %s\n", rt.Relevance, rt.Reference, rt.Title)
	if rt.Description != "" {
		fmt.Fprintf(w, "%s\n", utils.Truncate(rt.Description, 200))
	}
	switch {
	case rt.Path != "":
		fmt.Fprintf(w, "-> %s\n", rt.Path)
	case rt.URL != "":
		fmt.Fprintf(w, "-> %s\n", rt.URL)
	}
}

// WriteConnection writes one curated connection with its texts.
func WriteConnection(w io.Writer, conn *models.Connection, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, conn)
	}
	fmt.Fprintf(w, "%s (%s)\n", conn.Title, conn.ID)
	if len(conn.Themes) > 0 {
		fmt.Fprintf(w, "Themes: %s\n", strings.Join(conn.Themes, ", "))
	}
	if conn.Description != "" {
		fmt.Fprintf(w, "\n%s\n", conn.Description)
	}
	if conn.Significance != "" {
		fmt.Fprintf(w, "\n%s\n", conn.Significance)
	}
	fmt.Fprintln(w)
	for _, rt := range conn.Texts {
		writeRelatedText(w, rt)
	}
	return nil
}

// WriteConnections writes a list of connections, one line each.
func WriteConnections(w io.Writer, conns []*models.Connection, format OutputFormat) error {
	if format == OutputJSON {
		if conns == nil {
			conns = []*models.Connection{}
		}
		return WriteJSON(w, conns)
	}
	if len(conns) == 0 {
		fmt.Fprintln(w, "No connections.")
		return nil
	}
	for _, c := range conns {
		fmt.Fprintf(w, "%-32s %s [%s]\n", c.ID, c.Title, strings.Join(c.Themes, ", "))
	}
	return nil
}

// WriteSearchResults writes topic search results in the given format.
func WriteSearchResults(w io.Writer, res *keyword.Results, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, res)
	}
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(res.Hits), res.Query)
	for i, h := range res.Hits {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "[%s] Rank: %d | Score: %.4f\n", h.Kind, i+1, h.Score)
		fmt.Fprintf(w, "%s\n", h.Title)
		fmt.Fprintf(w, "Ref: %s\n", h.Ref)
	}
	if res.DidYouMean != "" {
		fmt.Fprintf(w, "Did you mean: %s?\n", res.DidYouMean)
	}
	return nil
}
