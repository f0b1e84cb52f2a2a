package keyword

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/catalog"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/reference"
)

var textFields = []string{"title", "themes", "content"}

// BleveIndex is an in-memory Bleve index built from a catalog.
type BleveIndex struct {
	index   bleve.Index
	speller *SpellChecker
	logger  *zap.Logger
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so names like "Bereshit"
	// are searchable as written.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	textFieldMapping.Store = true
	for _, f := range textFields {
		docMapping.AddFieldMappingsAt(f, textFieldMapping)
	}
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	keywordFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("kind", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("ref", keywordFieldMapping)

	im.AddDocumentMapping("record", docMapping)
	im.DefaultType = "record"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex indexes every chapter and connection of cat in memory.
func NewBleveIndex(cat *catalog.Catalog, logger *zap.Logger) (*BleveIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	b := &BleveIndex{index: index, logger: logger}

	batch := index.NewBatch()
	for _, t := range reference.Traditions() {
		for ch := range cat.Chapters(t) {
			if err := batch.Index(ChapterID(ch), chapterRecord(ch)); err != nil {
				_ = index.Close()
				return nil, fmt.Errorf("failed to index %s: %w", ch.Reference(), err)
			}
		}
	}
	for _, conn := range cat.Connections() {
		if err := batch.Index(ConnectionID(conn.ID), connectionRecord(conn)); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index connection %q: %w", conn.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index catalog: %w", err)
	}

	b.speller = NewSpellChecker(b)
	count, _ := index.DocCount()
	logger.Debug("topic index built", zap.Uint64("records", count))
	return b, nil
}

// ChapterID returns the index id of a chapter.
func ChapterID(ch *models.Chapter) string {
	return string(KindChapter) + ":" + ch.Reference().ChapterKey().String()
}

// ConnectionID returns the index id of a connection.
func ConnectionID(id string) string {
	return string(KindConnection) + ":" + id
}

func chapterRecord(ch *models.Chapter) map[string]interface{} {
	var content strings.Builder
	content.WriteString(ch.Summary)
	for _, v := range ch.Verses {
		content.WriteString("\n")
		content.WriteString(v.Translation)
	}
	title := ch.Reference().String() + " " + ch.Name
	if ch.Title != "" {
		title += " " + ch.Title
	}
	return map[string]interface{}{
		"kind":    string(KindChapter),
		"ref":     ch.Reference().String(),
		"title":   title,
		"themes":  strings.Join(ch.Themes, " "),
		"content": content.String(),
	}
}

func connectionRecord(conn *models.Connection) map[string]interface{} {
	content := []string{conn.Description, conn.Significance}
	for _, rt := range conn.Texts {
		content = append(content, rt.Title, rt.Description, strings.Join(rt.Keywords, " "))
	}
	return map[string]interface{}{
		"kind":    string(KindConnection),
		"ref":     conn.ID,
		"title":   conn.Title,
		"themes":  strings.Join(conn.Themes, " "),
		"content": strings.Join(content, "\n"),
	}
}

// Search runs query over titles, themes and content and returns up to limit hits.
// When nothing matches, a corrected query is suggested from the indexed terms.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) (*Results, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}
	titleBoost := 1.0
	fuzziness := 0
	var kind Kind
	if opts != nil {
		if opts.TitleBoost > 0 {
			titleBoost = opts.TitleBoost
		}
		if opts.Fuzziness > 0 {
			fuzziness = min(opts.Fuzziness, 2)
		}
		kind = opts.Kind
	}

	fields := make([]blevequery.Query, 0, len(textFields))
	for _, f := range textFields {
		boost := 1.0
		if f != "content" {
			boost = titleBoost
		}
		fields = append(fields, fieldQuery(query, terms, f, boost, fuzziness))
	}
	var q blevequery.Query = bleve.NewDisjunctionQuery(fields...)
	if kind != "" {
		kq := bleve.NewTermQuery(string(kind))
		kq.SetField("kind")
		q = bleve.NewConjunctionQuery(q, kq)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"kind", "title", "ref"}
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := &Results{Query: query, Hits: make([]*Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		hit := &Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["kind"].(string); ok {
			hit.Kind = Kind(v)
		}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Title = v
		}
		if v, ok := h.Fields["ref"].(string); ok {
			hit.Ref = v
		}
		out.Hits = append(out.Hits, hit)
	}
	if len(out.Hits) == 0 {
		if corrected := b.speller.SuggestedQuery(query); corrected != query {
			out.DidYouMean = corrected
		}
	}
	return out, nil
}

// fieldQuery matches query on one field. With fuzziness > 0 each term is matched
// within that edit distance.
func fieldQuery(query string, terms []string, field string, boost float64, fuzziness int) blevequery.Query {
	if fuzziness == 0 {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		mq.SetBoost(boost)
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		fq.SetBoost(boost)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Terms returns every term in the text fields with its document frequency.
// A term present in several fields reports the highest frequency seen.
func (b *BleveIndex) Terms() (map[string]int, error) {
	terms := make(map[string]int)
	for _, f := range textFields {
		dict, err := b.index.FieldDict(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s terms: %w", f, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil {
				_ = dict.Close()
				return nil, err
			}
			if entry == nil {
				break
			}
			terms[entry.Term] = max(terms[entry.Term], int(entry.Count))
		}
		_ = dict.Close()
	}
	return terms, nil
}

// DocCount returns the number of indexed records.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
