package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/reference"
)

func testData() Data {
	return Data{
		Chapters: []models.Chapter{
			{Tradition: reference.Quran, Number: 1, Name: "Al-Fatiha", VerseCount: 2,
				Verses: []models.Verse{{Number: 1, Translation: "In the name of Allah"}, {Number: 2, Translation: "All praise"}}},
			{Tradition: reference.Quran, Number: 2, Name: "Al-Baqarah", VerseCount: 286,
				Verses: []models.Verse{{Number: 255, Translation: "Allah - there is no deity except Him"}}},
			{Tradition: reference.Bible, Book: "John", Number: 3, Name: "John 3", VerseCount: 36,
				Verses: []models.Verse{{Number: 16, Translation: "For God so loved the world"}}},
			{Tradition: reference.Bible, Book: "1 John", Number: 4, Name: "1 John 4", VerseCount: 21},
		},
		Connections: []models.Connection{
			{ID: "creation-narratives", Title: "Creation", Themes: []string{"Creation"}},
		},
		Interlinks: []models.VerseInterlinks{
			{Reference: "bible john 3:16", Themes: []string{"Love"}},
		},
	}
}

func mustParse(t *testing.T, raw string) reference.Reference {
	t.Helper()
	ref, err := reference.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return ref
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(testData(), zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestCatalog_ChapterIdentity(t *testing.T) {
	c := newTestCatalog(t)
	for _, tr := range reference.Traditions() {
		for ch := range c.Chapters(tr) {
			got, err := c.Chapter(tr, ch.Book, ch.Number)
			if err != nil {
				t.Fatalf("Chapter(%s, %q, %d): %v", tr, ch.Book, ch.Number, err)
			}
			if got.Number != ch.Number {
				t.Errorf("Chapter(%s, %d).Number = %d", tr, ch.Number, got.Number)
			}
		}
	}
}

func TestCatalog_ChapterBookMatching(t *testing.T) {
	c := newTestCatalog(t)
	if _, err := c.Chapter(reference.Bible, "  JOHN ", 3); err != nil {
		t.Errorf("book lookup should be case and space insensitive: %v", err)
	}
	if _, err := c.Chapter(reference.Quran, "ignored", 1); err != nil {
		t.Errorf("quran lookup should ignore book: %v", err)
	}
	_, err := c.Chapter(reference.Bible, "John", 4)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing chapter error = %v, want ErrNotFound", err)
	}
	_, err = c.Chapter(reference.Torah, "Genesis", 1)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing tradition error = %v, want ErrNotFound", err)
	}
}

func TestCatalog_VersePlaceholders(t *testing.T) {
	c := newTestCatalog(t)

	v, err := c.Verse(reference.Quran, "", 2, 255)
	if err != nil {
		t.Fatalf("Verse(2:255): %v", err)
	}
	if v.Number != 255 {
		t.Errorf("verse number = %d", v.Number)
	}

	// Inside the declared verse count but not yet populated.
	for _, n := range []int{1, 254, 256, 286} {
		if _, err := c.Verse(reference.Quran, "", 2, n); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Verse(2:%d) error = %v, want ErrNotFound", n, err)
		}
	}
	// Beyond the declared verse count.
	if _, err := c.Verse(reference.Quran, "", 1, 3); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Verse(1:3) error = %v, want ErrNotFound", err)
	}
	// Chapter with no realized verses at all.
	if _, err := c.Verse(reference.Bible, "1 John", 4, 8); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Verse(1 John 4:8) error = %v, want ErrNotFound", err)
	}
}

func TestCatalog_ChaptersRestartable(t *testing.T) {
	c := newTestCatalog(t)
	seq := c.Chapters(reference.Quran)
	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	if a, b := count(), count(); a != 2 || b != 2 {
		t.Errorf("Chapters(quran) yielded %d then %d, want 2 both times", a, b)
	}
	for ch := range c.Chapters(reference.Bible) {
		if ch.Number != 3 {
			t.Errorf("first bible chapter = %d, want catalog order", ch.Number)
		}
		break
	}
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := newTestCatalog(t)
	ch, _ := c.Chapter(reference.Quran, "", 1)
	ch.Verses[0].Translation = "tampered"
	again, _ := c.Chapter(reference.Quran, "", 1)
	if again.Verses[0].Translation != "In the name of Allah" {
		t.Error("catalog state mutated through returned chapter")
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := newTestCatalog(t)
	ch, v, err := c.Lookup(mustParse(t, "Bible John 3:16"))
	if err != nil {
		t.Fatal(err)
	}
	if ch.Book != "John" || v == nil || v.Number != 16 {
		t.Errorf("Lookup = %+v, %+v", ch, v)
	}
	ch, v, err = c.Lookup(mustParse(t, "Quran 2"))
	if err != nil || ch.Number != 2 || v != nil {
		t.Errorf("chapter-only Lookup = %+v, %+v, %v", ch, v, err)
	}
	ch, _, err = c.Lookup(mustParse(t, "Quran 2:1"))
	if !errors.Is(err, models.ErrNotFound) || ch == nil {
		t.Errorf("placeholder Lookup should return chapter and ErrNotFound, got %v, %v", ch, err)
	}
}

func TestCatalog_Books(t *testing.T) {
	c := newTestCatalog(t)
	books := c.Books(reference.Bible)
	if len(books) != 2 || books[0] != "John" || books[1] != "1 John" {
		t.Errorf("Books(bible) = %v", books)
	}
	if c.Books(reference.Quran) != nil {
		t.Error("Books(quran) should be nil")
	}
}

func TestNew_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Data)
	}{
		{"duplicate chapter", func(d *Data) {
			d.Chapters = append(d.Chapters, models.Chapter{Tradition: reference.Bible, Book: "john", Number: 3})
		}},
		{"zero chapter number", func(d *Data) {
			d.Chapters = append(d.Chapters, models.Chapter{Tradition: reference.Quran, Number: 0})
		}},
		{"unknown tradition", func(d *Data) {
			d.Chapters = append(d.Chapters, models.Chapter{Tradition: "vedas", Number: 1})
		}},
		{"bible chapter without book", func(d *Data) {
			d.Chapters = append(d.Chapters, models.Chapter{Tradition: reference.Bible, Number: 9})
		}},
		{"verses out of order", func(d *Data) {
			d.Chapters = append(d.Chapters, models.Chapter{Tradition: reference.Quran, Number: 3, VerseCount: 200,
				Verses: []models.Verse{{Number: 5}, {Number: 4}}})
		}},
		{"verse beyond count", func(d *Data) {
			d.Chapters = append(d.Chapters, models.Chapter{Tradition: reference.Quran, Number: 3, VerseCount: 2,
				Verses: []models.Verse{{Number: 3}}})
		}},
		{"duplicate connection", func(d *Data) {
			d.Connections = append(d.Connections, models.Connection{ID: "creation-narratives"})
		}},
		{"connection without id", func(d *Data) {
			d.Connections = append(d.Connections, models.Connection{Title: "untitled"})
		}},
		{"duplicate interlinks", func(d *Data) {
			d.Interlinks = append(d.Interlinks, models.VerseInterlinks{Reference: "Bible John 3:16"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testData()
			tt.mutate(&data)
			if _, err := New(data, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_VerseCountDefaultsToRealized(t *testing.T) {
	c, err := New(Data{Chapters: []models.Chapter{
		{Tradition: reference.Quran, Number: 103, Verses: []models.Verse{{Number: 1}, {Number: 2}, {Number: 3}}},
	}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ch, _ := c.Chapter(reference.Quran, "", 103)
	if ch.VerseCount != 3 || !ch.Complete() {
		t.Errorf("VerseCount = %d, want 3", ch.VerseCount)
	}
}

func TestNew_LogsCurationMistakes(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	data := testData()
	data.Interlinks = append(data.Interlinks, models.VerseInterlinks{Reference: "Gospel John 3"})
	data.Connections = append(data.Connections, models.Connection{
		ID: "broken",
		Texts: []models.RelatedText{
			{Type: models.TextBible, Reference: "Bible John", Relevance: models.RelevanceDirect},
		},
	})
	c, err := New(data, zap.New(core))
	if err != nil {
		t.Fatalf("curation mistakes must not fail the build: %v", err)
	}
	if logs.FilterMessage("skipping interlinks with malformed source reference").Len() != 1 {
		t.Error("malformed interlink source should be logged")
	}
	if logs.FilterMessage("related text has malformed reference").Len() != 1 {
		t.Error("malformed related text reference should be logged")
	}
	if _, err := c.Connection("broken"); err != nil {
		t.Errorf("connection with bad text should be kept: %v", err)
	}
}

func TestDefault(t *testing.T) {
	c, err := Default(zap.NewNop())
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	fatiha, err := c.Chapter(reference.Quran, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !fatiha.Complete() || fatiha.Name != "Al-Fatiha" {
		t.Errorf("Al-Fatiha = %+v", fatiha)
	}
	if _, err := c.Connection("creation-narratives"); err != nil {
		t.Errorf("seed should contain creation-narratives: %v", err)
	}
	if _, ok := c.Interlinks(mustParse(t, "Quran 2:255").Key()); !ok {
		t.Error("seed should contain interlinks for Quran 2:255")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	chapters := `
chapters:
  - tradition: torah
    book: Exodus
    number: 20
    name: Yitro
    verse_count: 26
    themes: [Law]
    verses:
      - number: 2
        original: "אָנֹכִי יְהוָה אֱלֹהֶיךָ"
        translation: "I am the LORD your God"
`
	links := `
connections:
  - id: ten-commandments
    title: The Ten Commandments
    themes: [Law]
`
	if err := os.WriteFile(filepath.Join(dir, "a-torah.yaml"), []byte(chapters), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b-links.yml"), []byte(links), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Verse(reference.Torah, "exodus", 20, 2)
	if err != nil || v.Translation != "I am the LORD your God" {
		t.Errorf("Verse = %+v, %v", v, err)
	}
	if len(c.Connections()) != 1 {
		t.Errorf("connections = %d", len(c.Connections()))
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	bad := `
chapters:
  - tradition: quran
    number: 1
    nmae: typo
`
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, zap.NewNop()); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	c := newTestCatalog(t)
	rebuilt, err := New(c.Snapshot(), nil)
	if err != nil {
		t.Fatalf("rebuilding from snapshot: %v", err)
	}
	for _, tr := range reference.Traditions() {
		var a, b int
		for range c.Chapters(tr) {
			a++
		}
		for range rebuilt.Chapters(tr) {
			b++
		}
		if a != b {
			t.Errorf("%s chapters: %d vs %d", tr, a, b)
		}
	}
	if _, ok := rebuilt.Interlinks(mustParse(t, "Bible John 3:16").Key()); !ok {
		t.Error("interlinks lost in snapshot")
	}
}
