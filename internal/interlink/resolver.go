// Package interlink resolves curated cross-tradition connections and the related
// texts attached to a scripture reference. Resolution is keyed lookup over
// hand-curated data; relevance is never inferred.
package interlink

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/catalog"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/reference"
	"github.com/hyperjump/tsunagu/pkg/utils"
)

// seoDescriptionLength is the usual search snippet limit.
const seoDescriptionLength = 160

// Resolver answers connection and interlink queries against a catalog.
type Resolver struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewResolver returns a resolver over c.
func NewResolver(c *catalog.Catalog, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{catalog: c, logger: logger}
}

// ConnectionByID returns the connection with the given ID or an error matching models.ErrNotFound.
func (r *Resolver) ConnectionByID(id string) (*models.Connection, error) {
	return r.catalog.Connection(id)
}

// Connections returns all connections in catalog order.
func (r *Resolver) Connections() []*models.Connection {
	return r.catalog.Connections()
}

// RelatedConnections returns the other connections sharing at least one theme with id,
// most shared themes first. Ties keep catalog order. The connection itself is never included.
func (r *Resolver) RelatedConnections(id string) ([]*models.Connection, error) {
	source, err := r.catalog.Connection(id)
	if err != nil {
		return nil, err
	}
	themes := themeSet(source.Themes)

	type scored struct {
		conn   *models.Connection
		shared int
	}
	var candidates []scored
	for _, conn := range r.catalog.Connections() {
		if conn.ID == source.ID {
			continue
		}
		shared := 0
		for t := range themeSet(conn.Themes) {
			if themes[t] {
				shared++
			}
		}
		if shared > 0 {
			candidates = append(candidates, scored{conn: conn, shared: shared})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].shared > candidates[j].shared
	})

	out := make([]*models.Connection, len(candidates))
	for i, c := range candidates {
		out[i] = c.conn
	}
	return out, nil
}

// Interlinks returns the curated interlinks for ref. A verse reference without its own
// entry falls back to the entry of its chapter. When the entry has no SEO description
// one is derived from the chapter summary or the related titles.
func (r *Resolver) Interlinks(ref reference.Reference) (*models.VerseInterlinks, error) {
	il, ok := r.catalog.Interlinks(ref.Key())
	if !ok && ref.HasVerse() {
		il, ok = r.catalog.Interlinks(ref.ChapterKey())
	}
	if !ok {
		return nil, fmt.Errorf("%w: interlinks for %s", models.ErrNotFound, ref)
	}
	if il.SEODescription == "" {
		il.SEODescription = r.describe(ref, il)
	}
	if il.RelatedTexts == nil {
		il.RelatedTexts = []models.RelatedText{}
	}
	r.logger.Debug("interlinks resolved",
		zap.String("reference", ref.String()),
		zap.String("entry", il.Reference),
		zap.Int("related", len(il.RelatedTexts)),
	)
	return il, nil
}

func (r *Resolver) describe(ref reference.Reference, il *models.VerseInterlinks) string {
	if ch, err := r.catalog.Chapter(ref.Tradition, ref.Book, ref.Chapter); err == nil && ch.Summary != "" {
		return utils.Truncate(ch.Summary, seoDescriptionLength-3)
	}
	titles := make([]string, 0, len(il.RelatedTexts))
	for _, t := range il.RelatedTexts {
		titles = append(titles, t.Title)
	}
	desc := ref.String()
	if len(titles) > 0 {
		desc += " and related texts: " + strings.Join(titles, ", ")
	}
	return utils.Truncate(desc, seoDescriptionLength-3)
}

func themeSet(themes []string) map[string]bool {
	set := make(map[string]bool, len(themes))
	for _, t := range themes {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = true
		}
	}
	return set
}
