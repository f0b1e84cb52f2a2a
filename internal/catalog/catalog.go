// Package catalog is the in-memory content store: chapters and verses per tradition,
// curated cross-tradition connections, and per-reference interlinks.
// A Catalog is built once and is read-only afterwards, so it is safe for concurrent use.
package catalog

import (
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/reference"
)

// Data is the raw material a Catalog is built from. It is what the YAML loader,
// the embedded seed and the SQLite snapshot all produce.
type Data struct {
	Chapters    []models.Chapter         `yaml:"chapters"`
	Connections []models.Connection      `yaml:"connections"`
	Interlinks  []models.VerseInterlinks `yaml:"interlinks"`
}

type chapterKey struct {
	tradition reference.Tradition
	book      string
	number    int
}

// Catalog is an immutable content store.
type Catalog struct {
	chapters    map[chapterKey]*models.Chapter
	order       map[reference.Tradition][]*models.Chapter
	connections []*models.Connection
	byID        map[string]*models.Connection
	interlinks  map[reference.Key]*models.VerseInterlinks
	sources     []*models.VerseInterlinks
}

// New validates data and builds a Catalog. Structural problems (duplicate chapters,
// unordered verses, duplicate connection IDs) are errors. Curated references that do
// not parse are authoring mistakes: they are logged and, for interlink entries, skipped.
func New(data Data, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		chapters:   make(map[chapterKey]*models.Chapter),
		order:      make(map[reference.Tradition][]*models.Chapter),
		byID:       make(map[string]*models.Connection),
		interlinks: make(map[reference.Key]*models.VerseInterlinks),
	}
	for i := range data.Chapters {
		if err := c.addChapter(data.Chapters[i].Clone()); err != nil {
			return nil, err
		}
	}
	for i := range data.Connections {
		if err := c.addConnection(data.Connections[i].Clone(), logger); err != nil {
			return nil, err
		}
	}
	for i := range data.Interlinks {
		if err := c.addInterlinks(data.Interlinks[i].Clone(), logger); err != nil {
			return nil, err
		}
	}
	logger.Debug("catalog built",
		zap.Int("chapters", len(c.chapters)),
		zap.Int("connections", len(c.connections)),
		zap.Int("interlinks", len(c.interlinks)),
	)
	return c, nil
}

func (c *Catalog) addChapter(ch *models.Chapter) error {
	if !ch.Tradition.Valid() {
		return fmt.Errorf("chapter %q: unknown tradition %q", ch.Name, ch.Tradition)
	}
	if ch.Number < 1 {
		return fmt.Errorf("%s chapter %q: number must be >= 1", ch.Tradition, ch.Name)
	}
	if ch.Tradition != reference.Quran {
		if strings.TrimSpace(ch.Book) == "" {
			return fmt.Errorf("%s chapter %d: book is required", ch.Tradition, ch.Number)
		}
		ch.Book = strings.Join(strings.Fields(ch.Book), " ")
	} else {
		ch.Book = ""
	}
	key := chapterKey{ch.Tradition, reference.NormalizeBook(ch.Tradition, ch.Book), ch.Number}
	if _, dup := c.chapters[key]; dup {
		return fmt.Errorf("duplicate chapter %s", ch.Reference())
	}
	last := 0
	for _, v := range ch.Verses {
		if v.Number <= last {
			return fmt.Errorf("chapter %s: verse %d out of order or duplicated", ch.Reference(), v.Number)
		}
		last = v.Number
	}
	if ch.VerseCount == 0 {
		ch.VerseCount = len(ch.Verses)
	}
	if last > ch.VerseCount {
		return fmt.Errorf("chapter %s: verse %d exceeds verse count %d", ch.Reference(), last, ch.VerseCount)
	}
	c.chapters[key] = ch
	c.order[ch.Tradition] = append(c.order[ch.Tradition], ch)
	return nil
}

func (c *Catalog) addConnection(conn *models.Connection, logger *zap.Logger) error {
	if conn.ID == "" {
		return fmt.Errorf("connection %q: id is required", conn.Title)
	}
	if _, dup := c.byID[conn.ID]; dup {
		return fmt.Errorf("duplicate connection id %q", conn.ID)
	}
	checkTexts(conn.Texts, logger.With(zap.String("connection", conn.ID)))
	c.byID[conn.ID] = conn
	c.connections = append(c.connections, conn)
	return nil
}

func (c *Catalog) addInterlinks(il *models.VerseInterlinks, logger *zap.Logger) error {
	ref, err := reference.Parse(il.Reference)
	if err != nil {
		logger.Warn("skipping interlinks with malformed source reference",
			zap.String("reference", il.Reference), zap.Error(err))
		return nil
	}
	key := ref.Key()
	if _, dup := c.interlinks[key]; dup {
		return fmt.Errorf("duplicate interlinks for %s", ref)
	}
	il.Reference = ref.String()
	checkTexts(il.RelatedTexts, logger.With(zap.String("source", il.Reference)))
	c.interlinks[key] = il
	c.sources = append(c.sources, il)
	return nil
}

// checkTexts logs curation mistakes in related texts. They are kept: the link
// generator reports them again when a page asks for a path.
func checkTexts(texts []models.RelatedText, logger *zap.Logger) {
	for _, t := range texts {
		if !t.Relevance.Valid() {
			logger.Warn("related text has unknown relevance",
				zap.String("reference", t.Reference), zap.String("relevance", string(t.Relevance)))
		}
		if t.Type == models.TextExternal {
			continue
		}
		if !t.Type.Valid() {
			logger.Warn("related text has unknown type",
				zap.String("reference", t.Reference), zap.String("type", string(t.Type)))
		}
		if _, err := reference.Parse(t.Reference); err != nil {
			logger.Warn("related text has malformed reference",
				zap.String("reference", t.Reference), zap.Error(err))
		}
	}
}

// Chapter returns a chapter by tradition, book and number. The book is ignored for the Quran.
func (c *Catalog) Chapter(t reference.Tradition, book string, number int) (*models.Chapter, error) {
	ch, ok := c.chapters[chapterKey{t, reference.NormalizeBook(t, book), number}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, describe(t, book, number))
	}
	return ch.Clone(), nil
}

// Verse returns one verse of a chapter. A verse inside the declared verse count that
// has not been populated yet is reported as not found; it is never fabricated.
func (c *Catalog) Verse(t reference.Tradition, book string, chapter, verse int) (*models.Verse, error) {
	ch, ok := c.chapters[chapterKey{t, reference.NormalizeBook(t, book), chapter}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, describe(t, book, chapter))
	}
	for i := range ch.Verses {
		if ch.Verses[i].Number == verse {
			v := ch.Verses[i]
			return &v, nil
		}
	}
	if verse >= 1 && verse <= ch.VerseCount {
		return nil, fmt.Errorf("%w: %s:%d not yet available", models.ErrNotFound, describe(t, book, chapter), verse)
	}
	return nil, fmt.Errorf("%w: %s:%d", models.ErrNotFound, describe(t, book, chapter), verse)
}

// Lookup resolves a parsed reference to its chapter and, when the reference names
// a verse, to that verse.
func (c *Catalog) Lookup(ref reference.Reference) (*models.Chapter, *models.Verse, error) {
	ch, err := c.Chapter(ref.Tradition, ref.Book, ref.Chapter)
	if err != nil {
		return nil, nil, err
	}
	if !ref.HasVerse() {
		return ch, nil, nil
	}
	v, err := c.Verse(ref.Tradition, ref.Book, ref.Chapter, ref.Verse)
	if err != nil {
		return ch, nil, err
	}
	return ch, v, nil
}

// Chapters yields every chapter of a tradition in catalog order.
// The sequence can be ranged over any number of times.
func (c *Catalog) Chapters(t reference.Tradition) iter.Seq[*models.Chapter] {
	return func(yield func(*models.Chapter) bool) {
		for _, ch := range c.order[t] {
			if !yield(ch.Clone()) {
				return
			}
		}
	}
}

// Books returns the distinct book names of a tradition in catalog order.
// The Quran has no books and returns nil.
func (c *Catalog) Books(t reference.Tradition) []string {
	if t == reference.Quran {
		return nil
	}
	var books []string
	seen := make(map[string]bool)
	for _, ch := range c.order[t] {
		key := reference.NormalizeBook(t, ch.Book)
		if !seen[key] {
			seen[key] = true
			books = append(books, ch.Book)
		}
	}
	return books
}

// Connection returns a curated connection by ID.
func (c *Catalog) Connection(id string) (*models.Connection, error) {
	conn, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: connection %q", models.ErrNotFound, id)
	}
	return conn.Clone(), nil
}

// Connections returns every connection in catalog order.
func (c *Catalog) Connections() []*models.Connection {
	out := make([]*models.Connection, len(c.connections))
	for i, conn := range c.connections {
		out[i] = conn.Clone()
	}
	return out
}

// Interlinks returns the curated interlinks stored under exactly key.
func (c *Catalog) Interlinks(key reference.Key) (*models.VerseInterlinks, bool) {
	il, ok := c.interlinks[key]
	if !ok {
		return nil, false
	}
	return il.Clone(), true
}

// Snapshot returns a copy of the catalog contents in catalog order.
func (c *Catalog) Snapshot() Data {
	var data Data
	for _, t := range reference.Traditions() {
		for ch := range c.Chapters(t) {
			data.Chapters = append(data.Chapters, *ch)
		}
	}
	for _, conn := range c.Connections() {
		data.Connections = append(data.Connections, *conn)
	}
	for _, il := range c.sources {
		data.Interlinks = append(data.Interlinks, *il.Clone())
	}
	return data
}

func describe(t reference.Tradition, book string, number int) string {
	if t == reference.Quran {
		return fmt.Sprintf("%s surah %d", t.Title(), number)
	}
	return fmt.Sprintf("%s %s %d", t.Title(), book, number)
}
