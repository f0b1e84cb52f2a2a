package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/config"
	"github.com/hyperjump/tsunagu/internal/keyword"
	"github.com/hyperjump/tsunagu/internal/links"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/reference"
	"github.com/hyperjump/tsunagu/internal/storage"
	"github.com/hyperjump/tsunagu/pkg/utils"
)

// badRequest is an invalid query or path parameter.
type badRequest string

func (b badRequest) Error() string { return string(b) }

// chapterSummary is the list form of a chapter, without verse text.
type chapterSummary struct {
	Reference  string   `json:"reference"`
	Book       string   `json:"book,omitempty"`
	Number     int      `json:"number"`
	Name       string   `json:"name"`
	Title      string   `json:"title,omitempty"`
	VerseCount int      `json:"verse_count"`
	Available  int      `json:"available_verses"`
	Themes     []string `json:"themes"`
}

func summarize(ch *models.Chapter) chapterSummary {
	return chapterSummary{
		Reference:  ch.Reference().String(),
		Book:       ch.Book,
		Number:     ch.Number,
		Name:       ch.Name,
		Title:      ch.Title,
		VerseCount: ch.VerseCount,
		Available:  len(ch.Verses),
		Themes:     ch.Themes,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	chapters := make(map[string]int)
	verses := 0
	for _, t := range reference.Traditions() {
		for ch := range s.catalog.Chapters(t) {
			chapters[string(t)]++
			verses += len(ch.Verses)
		}
	}
	resp := map[string]interface{}{
		"chapters":    chapters,
		"verses":      verses,
		"connections": len(s.resolver.Connections()),
	}
	if s.search != nil {
		if n, err := s.search.DocCount(); err == nil {
			resp["search_records"] = n
		}
	}
	if s.config != nil {
		paths := []string{s.config.Locales.Dir}
		if s.config.Catalog.Source == config.SourceSQLite {
			paths = append(paths, storage.DatabaseFiles(s.config.Storage.DatabasePath)...)
		}
		if n, err := storage.Footprint(paths...); err == nil {
			resp["disk_usage_bytes"] = n
		} else {
			s.logger.Warn("status: disk usage failed", zap.Error(err))
		}
		resp["config"] = map[string]interface{}{
			"catalog_source": s.config.Catalog.Source,
			"locales_dir":    s.config.Locales.Dir,
			"default_locale": s.config.Locales.DefaultLocale,
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	t, err := reference.ParseTradition(chi.URLParam(r, "tradition"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	book := r.URL.Query().Get("book")
	out := make([]chapterSummary, 0)
	for ch := range s.catalog.Chapters(t) {
		if book != "" && reference.NormalizeBook(t, ch.Book) != reference.NormalizeBook(t, book) {
			continue
		}
		out = append(out, summarize(ch))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tradition": t,
		"books":     s.catalog.Books(t),
		"chapters":  out,
	})
}

// chapterParams reads tradition, number and the book query. Bible and Torah chapters need a book.
func chapterParams(r *http.Request) (reference.Tradition, string, int, error) {
	t, err := reference.ParseTradition(chi.URLParam(r, "tradition"))
	if err != nil {
		return "", "", 0, err
	}
	n, err := positiveParam(chi.URLParam(r, "number"), "chapter")
	if err != nil {
		return "", "", 0, err
	}
	book := r.URL.Query().Get("book")
	if t != reference.Quran && book == "" {
		return "", "", 0, badRequest("book query parameter is required for " + string(t))
	}
	return t, book, n, nil
}

func positiveParam(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, badRequest(name + " must be a positive integer")
	}
	return n, nil
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	t, book, n, err := chapterParams(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	ch, err := s.catalog.Chapter(t, book, n)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ch)
}

func (s *Server) handleGetVerse(w http.ResponseWriter, r *http.Request) {
	t, book, n, err := chapterParams(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	v, err := positiveParam(chi.URLParam(r, "verse"), "verse")
	if err != nil {
		s.respondErr(w, err)
		return
	}
	verse, err := s.catalog.Verse(t, book, n, v)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, verse)
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	ref, err := reference.Parse(r.URL.Query().Get("ref"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	ch, v, err := s.catalog.Lookup(ref)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp := map[string]interface{}{
		"reference": ref,
		"canonical": ref.String(),
		"chapter":   summarize(ch),
	}
	if v != nil {
		resp["verse"] = v
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// locale returns the locale query parameter or the configured default.
func (s *Server) locale(r *http.Request) (string, error) {
	locale := r.URL.Query().Get("locale")
	if locale == "" && s.config != nil {
		locale = s.config.Locales.DefaultLocale
	}
	if !utils.ValidLocale(locale) {
		return "", badRequest("invalid locale " + strconv.Quote(locale))
	}
	return locale, nil
}

func (s *Server) handleInterlinks(w http.ResponseWriter, r *http.Request) {
	ref, err := reference.Parse(r.URL.Query().Get("ref"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	locale, err := s.locale(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	il, err := s.resolver.Interlinks(ref)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.links.Resolve(il, locale))
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	ref, err := reference.Parse(r.URL.Query().Get("ref"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	locale, err := s.locale(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	path, err := links.VersePath(ref, locale)
	if err != nil {
		s.logger.Warn("unresolvable link request", zap.String("reference", ref.String()), zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"reference": ref.String(), "path": path})
}

// connectionView is a connection with its own page path.
type connectionView struct {
	*models.Connection
	Path string `json:"path"`
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	locale, err := s.locale(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	conns := s.resolver.Connections()
	out := make([]connectionView, len(conns))
	for i, c := range conns {
		out[i] = connectionView{s.links.ResolveConnection(c, locale), links.ConnectionPath(locale, c.ID)}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"connections": out})
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	locale, err := s.locale(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	conn, err := s.resolver.ConnectionByID(id)
	if errors.Is(err, models.ErrNotFound) {
		// Without an explicit locale the back link is the unprefixed index page.
		back := links.ConnectionsPath("")
		if r.URL.Query().Get("locale") != "" {
			back = links.ConnectionsPath(locale)
		}
		s.respondJSON(w, http.StatusNotFound, map[string]string{
			"error": "Connection Not Found",
			"id":    id,
			"back":  back,
		})
		return
	}
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, connectionView{s.links.ResolveConnection(conn, locale), links.ConnectionPath(locale, id)})
}

func (s *Server) handleRelatedConnections(w http.ResponseWriter, r *http.Request) {
	locale, err := s.locale(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	related, err := s.resolver.RelatedConnections(chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	out := make([]connectionView, len(related))
	for i, c := range related {
		out[i] = connectionView{c, links.ConnectionPath(locale, c.ID)}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"related": out})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		s.respondError(w, http.StatusNotImplemented, "search not enabled")
		return
	}
	q := r.URL.Query()
	limit, maxLimit := 10, 100
	opts := &keyword.SearchOptions{Kind: keyword.Kind(q.Get("kind"))}
	if s.config != nil {
		limit, maxLimit = s.config.Search.DefaultLimit, s.config.Search.MaxLimit
		opts.TitleBoost = s.config.Search.TitleBoost
		opts.Fuzziness = s.config.Search.Fuzziness
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := positiveParam(raw, "limit")
		if err != nil {
			s.respondErr(w, err)
			return
		}
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	switch opts.Kind {
	case "", keyword.KindChapter, keyword.KindConnection:
	default:
		s.respondError(w, http.StatusBadRequest, "kind must be chapter or connection")
		return
	}
	if raw := q.Get("fuzzy"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 2 {
			s.respondError(w, http.StatusBadRequest, "fuzzy must be 0, 1 or 2")
			return
		}
		opts.Fuzziness = n
	}
	s.logger.Debug("search request", zap.String("query", q.Get("q")), zap.Int("limit", limit))
	res, err := s.search.Search(r.Context(), q.Get("q"), limit, opts)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

// respondErr maps domain errors to statuses: not found 404, unresolvable 422,
// malformed input and bad parameters 400. Anything else is logged and reported as 500.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	var bad badRequest
	switch {
	case errors.As(err, &bad):
		s.respondError(w, http.StatusBadRequest, bad.Error())
	case errors.Is(err, models.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, links.ErrUnresolvable):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, reference.ErrMalformed), errors.Is(err, keyword.ErrEmptyQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
