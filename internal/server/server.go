// Package server exposes a canvasnote document over HTTP for front ends that
// are not the bundled TUI: a JSON API for document state, cell mutations,
// execution, and artifact import/export.
//
// The server wraps one live document. Every mutation goes through the same
// store the TUI uses, so the API inherits the store's guarantees: serialized
// mutations, validated input, and atomic snapshot publication.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/canvasnote/canvasnote/pkg/repo"
	"github.com/canvasnote/canvasnote/pkg/run"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// Config configures the HTTP server.
type Config struct {
	Addr string // listen address, e.g. ":8080"

	Store    *store.Store
	Executor *run.Executor

	// Repo optionally persists documents in MongoDB. Nil disables the
	// /api/documents endpoints.
	Repo *repo.Repository

	Logger *log.Logger
}

// Server is the canvasnote HTTP API.
type Server struct {
	store  *store.Store
	exec   *run.Executor
	repo   *repo.Repository
	logger *log.Logger
	http   *http.Server
}

// New assembles the server and its routes.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	s := &Server{
		store:  cfg.Store,
		exec:   cfg.Executor,
		repo:   cfg.Repo,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/document", s.handleGetDocument)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Get("/sequence.svg", s.handleSequenceSVG)

		r.Route("/cells", func(r chi.Router) {
			r.Post("/", s.handleAddCell)
			r.Patch("/{id}", s.handleUpdateCell)
			r.Delete("/{id}", s.handleDeleteCell)
			r.Post("/{id}/duplicate", s.handleDuplicateCell)
			r.Put("/{id}/position", s.handleCellPosition)
			r.Put("/{id}/size", s.handleCellSize)
			r.Post("/{id}/execute", s.handleExecute)
			r.Post("/{id}/interrupt", s.handleInterrupt)
		})

		r.Put("/selection", s.handleSelection)
		r.Put("/canvas", s.handleCanvas)

		if s.repo != nil {
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", s.handleListDocuments)
				r.Post("/save", s.handleSaveDocument)
				r.Post("/{id}/load", s.handleLoadDocument)
			})
		}
	})

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe starts serving and blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}

// Handler returns the assembled router, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
