// Package worker provides the HTTP worker service for fusion.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/neurofusion/fusion/internal/config"
	"github.com/neurofusion/fusion/internal/db/sqlite"
	"github.com/neurofusion/fusion/internal/prompts"
	"github.com/neurofusion/fusion/internal/worker/sse"
)

// Service is the HTTP worker exposing prompt CRUD, response recording, and
// the legacy migration trigger. Change events stream to clients over SSE.
type Service struct {
	version     string
	config      *config.Config
	store       *sqlite.Store
	repo        *prompts.Repository
	migrator    *prompts.Migrator
	broadcaster *sse.Broadcaster
	router      *chi.Mux
	ready       atomic.Bool
	startTime   time.Time
}

// NewService assembles the worker around its dependencies. The migrator may
// be nil when no legacy store is configured.
func NewService(version string, cfg *config.Config, store *sqlite.Store, repo *prompts.Repository, migrator *prompts.Migrator) *Service {
	svc := &Service{
		version:     version,
		config:      cfg,
		store:       store,
		repo:        repo,
		migrator:    migrator,
		broadcaster: sse.NewBroadcaster(),
		router:      chi.NewRouter(),
		startTime:   time.Now(),
	}
	svc.setupRoutes()
	return svc
}

// Router exposes the HTTP handler, mainly for tests.
func (s *Service) Router() http.Handler {
	return s.router
}

// MarkReady flips the service into the ready state.
func (s *Service) MarkReady() {
	s.ready.Store(true)
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/ready", s.handleReady)
	s.router.Get("/api/version", s.handleVersion)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireReady)

		r.Get("/api/prompts", s.handleListPrompts)
		r.Post("/api/prompts", s.handleSavePrompt)
		r.Get("/api/prompts/search", s.handleSearchPrompts)
		r.Get("/api/prompts/{uuid}", s.handleGetPrompt)
		r.Delete("/api/prompts/{uuid}", s.handleDeletePrompt)
		r.Get("/api/prompts/{uuid}/responses", s.handleGetResponses)
		r.Post("/api/responses", s.handleSaveResponse)
		r.Post("/api/migration/run", s.handleRunMigration)
		r.Get("/api/events", s.broadcaster.HandleSSE)
	})
}

// requireReady rejects requests until startup initialization completes.
func (s *Service) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service not ready"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.config.WorkerPort),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("version", s.version).Msg("Worker listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
