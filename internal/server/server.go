// Package server exposes the graph pipeline as an HTTP JSON API.
//
// # Endpoints
//
//	GET    /healthz                 liveness and version
//	GET    /v1/palettes             available color palettes
//	POST   /v1/graph                build a graph; body is the GEDCOM file
//	POST   /v1/ancestors            ancestor chain of ?individual=
//	DELETE /v1/sessions/{id}        forget a session
//
// A graph request carries its session in the X-Session-ID header. When the
// header is missing a new session is created and returned in the same header,
// so the next upload from that caller can reuse the cached layout or reset
// it when the file changed.
//
// Errors are JSON objects {"code": ..., "message": ...}: 400 for invalid
// input and unparseable files, 409 for selections that are not part of the
// uploaded file, 413 for oversized uploads.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/astra/pkg/cache"
	"github.com/matzehuels/astra/pkg/palette"
	"github.com/matzehuels/astra/pkg/pipeline"
)

const (
	// DefaultMaxUploadBytes bounds the size of an uploaded GEDCOM file.
	DefaultMaxUploadBytes = 32 << 20

	// SessionHeader carries the session id in requests and responses.
	SessionHeader = "X-Session-ID"

	shutdownTimeout = 10 * time.Second
	cleanupInterval = 10 * time.Minute
)

// Config configures a Server.
type Config struct {
	// Runner executes the pipeline. Required.
	Runner *pipeline.Runner

	// Palettes lists the palettes requests may select. Nil uses the built-ins.
	Palettes *palette.Registry

	// Defaults are applied to every graph request before its query parameters.
	Defaults pipeline.Options

	Logger *log.Logger

	// MaxUploadBytes bounds request bodies. Zero uses DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// Server serves the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	palettes *palette.Registry
	defaults pipeline.Options
	logger   *log.Logger
	maxBody  int64
	router   chi.Router
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	s := &Server{
		runner:   cfg.Runner,
		palettes: cfg.Palettes,
		defaults: cfg.Defaults,
		logger:   cfg.Logger,
		maxBody:  cfg.MaxUploadBytes,
	}
	if s.palettes == nil {
		s.palettes = palette.NewRegistry()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxUploadBytes
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/palettes", s.handlePalettes)
		r.With(middleware.RequestSize(s.maxBody)).Post("/graph", s.handleGraph)
		r.With(middleware.RequestSize(s.maxBody)).Post("/ancestors", s.handleAncestors)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	go s.cleanup(ctx, cleanupInterval)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// cleanup drops expired sessions and, for backends that need it, expired
// cache entries every interval until ctx is done.
func (s *Server) cleanup(ctx context.Context, interval time.Duration) {
	cleaner, _ := s.runner.Cache.(cache.Cleaner)
	if s.runner.Sessions == nil && cleaner == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.runner.Sessions != nil {
				if err := s.runner.Sessions.Cleanup(ctx); err != nil {
					s.logger.Warn("session cleanup failed", "error", err)
				}
			}
			if cleaner != nil {
				if err := cleaner.Cleanup(ctx); err != nil {
					s.logger.Warn("cache cleanup failed", "error", err)
				}
			}
		}
	}
}
