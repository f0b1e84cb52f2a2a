package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/catalog"
	"github.com/hyperjump/tsunagu/internal/config"
	"github.com/hyperjump/tsunagu/internal/interlink"
	"github.com/hyperjump/tsunagu/internal/keyword"
	"github.com/hyperjump/tsunagu/internal/links"
)

func newTestServer(t *testing.T, withSearch bool) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	cat, err := catalog.Default(logger)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Locales.Dir = t.TempDir()

	var search Searcher
	if withSearch {
		idx, err := keyword.NewBleveIndex(cat, logger)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = idx.Close() })
		search = idx
	}
	srv := NewServer(cat, interlink.NewResolver(cat, logger), links.NewGenerator(logger), search, cfg, logger)
	return srv.Routes()
}

func get(t *testing.T, h http.Handler, target string, out interface{}) int {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("%s: content type %q", target, ct)
	}
	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s: decode: %v", target, err)
		}
	}
	return w.Code
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, false)
	var out map[string]string
	if code := get(t, h, "/health", &out); code != http.StatusOK || out["status"] != "ok" {
		t.Errorf("health: %d %v", code, out)
	}
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, false)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("a request id should be assigned")
	}

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("X-Request-Id", "abc")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("X-Request-Id"); got != "abc" {
		t.Errorf("caller request id should be kept, got %q", got)
	}
}

func TestStatus(t *testing.T) {
	h := newTestServer(t, true)
	var out struct {
		Chapters      map[string]int `json:"chapters"`
		Connections   int            `json:"connections"`
		SearchRecords int            `json:"search_records"`
	}
	if code := get(t, h, "/api/v1/status", &out); code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	if out.Chapters["quran"] != 3 || out.Chapters["bible"] != 4 || out.Chapters["torah"] != 2 {
		t.Errorf("chapters: %v", out.Chapters)
	}
	if out.Connections != 5 || out.SearchRecords != 14 {
		t.Errorf("connections %d, search records %d", out.Connections, out.SearchRecords)
	}
}

func TestListChapters(t *testing.T) {
	h := newTestServer(t, false)
	var out struct {
		Books    []string         `json:"books"`
		Chapters []chapterSummary `json:"chapters"`
	}
	if code := get(t, h, "/api/v1/traditions/quran/chapters", &out); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if len(out.Chapters) != 3 || len(out.Books) != 0 {
		t.Errorf("quran: %+v", out)
	}

	out.Chapters = nil
	if code := get(t, h, "/api/v1/traditions/Bible/chapters?book=john", &out); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if len(out.Chapters) != 1 || out.Chapters[0].Reference != "Bible John 3" {
		t.Errorf("bible john: %+v", out.Chapters)
	}

	if code := get(t, h, "/api/v1/traditions/vedas/chapters", nil); code != http.StatusBadRequest {
		t.Errorf("unknown tradition: got %d, want 400", code)
	}
}

func TestGetChapterAndVerse(t *testing.T) {
	h := newTestServer(t, false)
	tests := []struct {
		target string
		want   int
	}{
		{"/api/v1/traditions/quran/chapters/1", http.StatusOK},
		{"/api/v1/traditions/quran/chapters/2/verses/255", http.StatusOK},
		{"/api/v1/traditions/quran/chapters/2/verses/254", http.StatusNotFound},
		{"/api/v1/traditions/quran/chapters/114", http.StatusNotFound},
		{"/api/v1/traditions/quran/chapters/0", http.StatusBadRequest},
		{"/api/v1/traditions/quran/chapters/one", http.StatusBadRequest},
		{"/api/v1/traditions/bible/chapters/3", http.StatusBadRequest},
		{"/api/v1/traditions/bible/chapters/3?book=John", http.StatusOK},
		{"/api/v1/traditions/bible/chapters/3/verses/16?book=john", http.StatusOK},
		{"/api/v1/traditions/torah/chapters/6/verses/4?book=Deuteronomy", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if code := get(t, h, tt.target, nil); code != tt.want {
				t.Errorf("got %d, want %d", code, tt.want)
			}
		})
	}
}

func TestReference(t *testing.T) {
	h := newTestServer(t, false)
	var out struct {
		Canonical string `json:"canonical"`
		Verse     struct {
			Number int `json:"number"`
		} `json:"verse"`
	}
	if code := get(t, h, "/api/v1/references?ref=bible+john+3:16", &out); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if out.Canonical != "Bible John 3:16" || out.Verse.Number != 16 {
		t.Errorf("unexpected body %+v", out)
	}

	var errBody map[string]string
	if code := get(t, h, "/api/v1/references?ref=Vedas+1:1", &errBody); code != http.StatusBadRequest {
		t.Errorf("malformed: got %d", code)
	}
	if errBody["error"] == "" {
		t.Error("error body should carry a message")
	}
	if code := get(t, h, "/api/v1/references?ref=Quran+114:1", nil); code != http.StatusNotFound {
		t.Errorf("missing chapter: got %d", code)
	}
}

func TestInterlinks(t *testing.T) {
	h := newTestServer(t, false)
	var out struct {
		Reference    string `json:"reference"`
		RelatedTexts []struct {
			Reference string `json:"reference"`
			Path      string `json:"path"`
		} `json:"related_texts"`
	}
	if code := get(t, h, "/api/v1/interlinks?ref=Quran+2:255&locale=mr", &out); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if len(out.RelatedTexts) != 2 {
		t.Fatalf("related texts: %+v", out.RelatedTexts)
	}
	if out.RelatedTexts[0].Path != "/mr/sacred-texts/torah/deuteronomy/6/4" {
		t.Errorf("path = %q", out.RelatedTexts[0].Path)
	}
	if out.RelatedTexts[1].Path != "/mr/sacred-texts/bible/psalms/121/4" {
		t.Errorf("path = %q", out.RelatedTexts[1].Path)
	}

	if code := get(t, h, "/api/v1/interlinks?ref=Quran+2:255&locale=../etc", nil); code != http.StatusBadRequest {
		t.Errorf("bad locale: got %d", code)
	}
	if code := get(t, h, "/api/v1/interlinks?ref=Quran+1:2", nil); code != http.StatusNotFound {
		t.Errorf("no interlinks: got %d", code)
	}
}

func TestLink(t *testing.T) {
	h := newTestServer(t, false)
	var out map[string]string
	if code := get(t, h, "/api/v1/links?ref=Bible+Song+of+Solomon+2:1&locale=te", &out); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if out["path"] != "/te/sacred-texts/bible/song-of-solomon/2/1" {
		t.Errorf("path = %q", out["path"])
	}
	if code := get(t, h, "/api/v1/links?ref=Bible+John+3", nil); code != http.StatusUnprocessableEntity {
		t.Errorf("chapter-only link: got %d, want 422", code)
	}
	if code := get(t, h, "/api/v1/links?ref=Bible+3:16", nil); code != http.StatusBadRequest {
		t.Errorf("malformed link: got %d, want 400", code)
	}
}

func TestConnections(t *testing.T) {
	h := newTestServer(t, false)
	var list struct {
		Connections []struct {
			ID   string `json:"id"`
			Path string `json:"path"`
		} `json:"connections"`
	}
	if code := get(t, h, "/api/v1/connections?locale=bn", &list); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if len(list.Connections) != 5 || list.Connections[0].ID != "creation-narratives" {
		t.Fatalf("connections: %+v", list.Connections)
	}
	if list.Connections[0].Path != "/bn/sacred-texts/cross-connections/creation-narratives" {
		t.Errorf("path = %q", list.Connections[0].Path)
	}

	var one struct {
		Themes []string `json:"themes"`
	}
	if code := get(t, h, "/api/v1/connections/creation-narratives", &one); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if len(one.Themes) == 0 || one.Themes[0] != "Creation" {
		t.Errorf("themes: %v", one.Themes)
	}
}

func TestConnectionNotFound(t *testing.T) {
	h := newTestServer(t, false)
	var out map[string]string
	if code := get(t, h, "/api/v1/connections/no-such-id", &out); code != http.StatusNotFound {
		t.Fatalf("got %d", code)
	}
	if out["error"] != "Connection Not Found" || out["back"] != "/sacred-texts/cross-connections" {
		t.Errorf("unexpected body %v", out)
	}

	out = nil
	get(t, h, "/api/v1/connections/no-such-id?locale=te", &out)
	if out["back"] != "/te/sacred-texts/cross-connections" {
		t.Errorf("localized back link = %q", out["back"])
	}
}

func TestRelatedConnections(t *testing.T) {
	h := newTestServer(t, false)
	var out struct {
		Related []struct {
			ID string `json:"id"`
		} `json:"related"`
	}
	if code := get(t, h, "/api/v1/connections/oneness-of-god/related", &out); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	for _, c := range out.Related {
		if c.ID == "oneness-of-god" {
			t.Error("a connection is never related to itself")
		}
	}
	if len(out.Related) == 0 {
		t.Error("expected related connections sharing Worship")
	}
	if code := get(t, h, "/api/v1/connections/no-such-id/related", nil); code != http.StatusNotFound {
		t.Errorf("unknown id: got %d", code)
	}
}

func TestSearch(t *testing.T) {
	h := newTestServer(t, true)
	var out keyword.Results
	if code := get(t, h, "/api/v1/search?q=shema&limit=3", &out); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if len(out.Hits) == 0 || len(out.Hits) > 3 {
		t.Errorf("hits: %+v", out.Hits)
	}

	tests := []struct {
		target string
		want   int
	}{
		{"/api/v1/search?q=", http.StatusBadRequest},
		{"/api/v1/search?q=love&limit=-1", http.StatusBadRequest},
		{"/api/v1/search?q=love&kind=verse", http.StatusBadRequest},
		{"/api/v1/search?q=love&fuzzy=3", http.StatusBadRequest},
		{"/api/v1/search?q=love&limit=1000", http.StatusOK},
	}
	for _, tt := range tests {
		if code := get(t, h, tt.target, nil); code != tt.want {
			t.Errorf("%s: got %d, want %d", tt.target, code, tt.want)
		}
	}
}

func TestSearch_NotEnabled(t *testing.T) {
	h := newTestServer(t, false)
	if code := get(t, h, "/api/v1/search?q=love", nil); code != http.StatusNotImplemented {
		t.Errorf("got %d, want 501", code)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t, false)
	if code := get(t, h, "/api/v1/nothing", nil); code != http.StatusNotFound {
		t.Errorf("got %d", code)
	}
}
