// Package web exposes the engine's operational HTTP API: session CRUD for
// the automation workers, selection, usage reporting, and the manual
// cleanup trigger.
package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pearcestephens/session-engine/internal/config"
	"github.com/pearcestephens/session-engine/internal/session"
)

// Server is the HTTP server for the session engine's operational API.
type Server struct {
	cfg    *config.Config
	mgr    *session.Manager
	server *http.Server
}

// New creates a new web server around the engine manager.
func New(cfg *config.Config, mgr *session.Manager) *Server {
	s := &Server{cfg: cfg, mgr: mgr}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := []string{"*"}
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/best", s.handleSelectBest)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/usage", s.handleRecordUsage)
		r.Post("/sessions/{id}/retire", s.handleRetire)
		r.Post("/sessions/{id}/validate", s.handleValidate)
		r.Post("/cleanup", s.handleCleanup)
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ListenPort),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the configured router, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
