// Package server provides the HTTP lookup API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/catalog"
	"github.com/hyperjump/tsunagu/internal/config"
	"github.com/hyperjump/tsunagu/internal/interlink"
	"github.com/hyperjump/tsunagu/internal/keyword"
	"github.com/hyperjump/tsunagu/internal/links"
)

// Searcher runs topic searches. *keyword.BleveIndex implements it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, opts *keyword.SearchOptions) (*keyword.Results, error)
	DocCount() (uint64, error)
}

// Server is the HTTP server for the lookup API.
type Server struct {
	catalog  *catalog.Catalog
	resolver *interlink.Resolver
	links    *links.Generator
	search   Searcher
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. search may be nil, in which
// case the search endpoint answers 501.
func NewServer(
	cat *catalog.Catalog,
	resolver *interlink.Resolver,
	gen *links.Generator,
	search Searcher,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		catalog:  cat,
		resolver: resolver,
		links:    gen,
		search:   search,
		config:   cfg,
		logger:   logger,
	}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Route("/traditions/{tradition}/chapters", func(r chi.Router) {
			r.Get("/", s.handleListChapters)
			r.Get("/{number}", s.handleGetChapter)
			r.Get("/{number}/verses/{verse}", s.handleGetVerse)
		})
		r.Get("/references", s.handleReference)
		r.Get("/interlinks", s.handleInterlinks)
		r.Get("/links", s.handleLink)
		r.Get("/connections", s.handleListConnections)
		r.Get("/connections/{id}", s.handleGetConnection)
		r.Get("/connections/{id}/related", s.handleRelatedConnections)
		r.Get("/search", s.handleSearch)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "route not found")
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
