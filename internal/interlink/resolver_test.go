package interlink

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/catalog"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/reference"
)

func mustParse(t *testing.T, raw string) reference.Reference {
	t.Helper()
	ref, err := reference.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return ref
}

func newResolver(t *testing.T, data catalog.Data) *Resolver {
	t.Helper()
	c, err := catalog.New(data, zap.NewNop())
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return NewResolver(c, zap.NewNop())
}

func connectionData() catalog.Data {
	return catalog.Data{Connections: []models.Connection{
		{ID: "creation-narratives", Themes: []string{"Creation", "Divine Power", "Humanity"}},
		{ID: "flood", Themes: []string{"Judgment", "Covenant"}},
		{ID: "adam", Themes: []string{"humanity", "Creation"}},
		{ID: "signs", Themes: []string{"Divine Power"}},
		{ID: "image-of-god", Themes: []string{"Humanity"}},
		{ID: "all-three", Themes: []string{"Creation", "Divine Power", "Humanity"}},
	}}
}

func ids(conns []*models.Connection) []string {
	out := make([]string, len(conns))
	for i, c := range conns {
		out[i] = c.ID
	}
	return out
}

func TestRelatedConnections_OrderAndTies(t *testing.T) {
	r := newResolver(t, connectionData())
	got, err := r.RelatedConnections("creation-narratives")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"all-three", "adam", "signs", "image-of-god"}
	if strings.Join(ids(got), ",") != strings.Join(want, ",") {
		t.Errorf("RelatedConnections = %v, want %v", ids(got), want)
	}
}

func TestRelatedConnections_NeverSelf(t *testing.T) {
	r := newResolver(t, connectionData())
	for _, conn := range r.Connections() {
		related, err := r.RelatedConnections(conn.ID)
		if err != nil {
			t.Fatal(err)
		}
		for _, rc := range related {
			if rc.ID == conn.ID {
				t.Errorf("RelatedConnections(%q) includes itself", conn.ID)
			}
		}
	}
}

func TestRelatedConnections_NoSharedThemes(t *testing.T) {
	r := newResolver(t, connectionData())
	got, err := r.RelatedConnections("flood")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("flood shares no themes, got %v", ids(got))
	}
}

func TestRelatedConnections_UnknownID(t *testing.T) {
	r := newResolver(t, connectionData())
	if _, err := r.RelatedConnections("missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestConnectionByID(t *testing.T) {
	c, err := catalog.Default(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(c, nil)
	conn, err := r.ConnectionByID("creation-narratives")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, th := range conn.Themes {
		if th == "Creation" {
			found = true
		}
	}
	if !found {
		t.Errorf("themes = %v, want Creation", conn.Themes)
	}

	empty := newResolver(t, catalog.Data{})
	if _, err := empty.ConnectionByID("creation-narratives"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func interlinkData() catalog.Data {
	return catalog.Data{
		Chapters: []models.Chapter{
			{Tradition: reference.Quran, Number: 112, Name: "Al-Ikhlas", VerseCount: 4,
				Summary: "A short surah affirming the oneness of God."},
		},
		Interlinks: []models.VerseInterlinks{
			{Reference: "Bible John 3:16", SEODescription: "curated",
				RelatedTexts: []models.RelatedText{{Type: models.TextQuran, Reference: "Quran 1:1", Title: "The Basmala", Relevance: models.RelevanceThematic}}},
			{Reference: "Quran 112", Themes: []string{"Oneness of God"}},
			{Reference: "Torah Deuteronomy 6:4",
				RelatedTexts: []models.RelatedText{{Type: models.TextBible, Reference: "Bible Mark 12:29", Title: "The Greatest Commandment", Relevance: models.RelevanceDirect}}},
		},
	}
}

func TestInterlinks(t *testing.T) {
	r := newResolver(t, interlinkData())

	il, err := r.Interlinks(mustParse(t, "bible JOHN 3:16"))
	if err != nil {
		t.Fatal(err)
	}
	if il.SEODescription != "curated" || len(il.RelatedTexts) != 1 {
		t.Errorf("John 3:16 interlinks = %+v", il)
	}
	if il.RelatedTexts[0].Relevance != models.RelevanceThematic {
		t.Error("relevance must come from curated data")
	}
}

func TestInterlinks_ChapterFallback(t *testing.T) {
	r := newResolver(t, interlinkData())
	il, err := r.Interlinks(mustParse(t, "Quran 112:3"))
	if err != nil {
		t.Fatal(err)
	}
	if il.Reference != "Quran 112" {
		t.Errorf("fallback entry = %q", il.Reference)
	}
	if il.SEODescription != "A short surah affirming the oneness of God." {
		t.Errorf("derived SEO description = %q", il.SEODescription)
	}
	if il.RelatedTexts == nil {
		t.Error("RelatedTexts should be empty, not nil")
	}
}

func TestInterlinks_DescriptionFromTitles(t *testing.T) {
	r := newResolver(t, interlinkData())
	il, err := r.Interlinks(mustParse(t, "Torah Deuteronomy 6:4"))
	if err != nil {
		t.Fatal(err)
	}
	want := "Torah Deuteronomy 6:4 and related texts: The Greatest Commandment"
	if il.SEODescription != want {
		t.Errorf("SEODescription = %q, want %q", il.SEODescription, want)
	}
	if len([]rune(il.SEODescription)) > seoDescriptionLength {
		t.Error("description too long")
	}
}

func TestInterlinks_NotFound(t *testing.T) {
	r := newResolver(t, interlinkData())
	for _, in := range []string{"Bible John 3:17", "Quran 113:1", "Bible John 4"} {
		if _, err := r.Interlinks(mustParse(t, in)); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Interlinks(%q) error = %v, want ErrNotFound", in, err)
		}
	}
}
