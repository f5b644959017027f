// Package server exposes a resolvable file system over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bsm/rfs"
	"github.com/bsm/rfs/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server serves files and their public URLs.
type Server struct {
	config     *config.Config
	fs         *rfs.ResolvableFS
	router     chi.Router
	httpServer *http.Server
}

// New inits a server.
func New(cfg *config.Config, fs *rfs.ResolvableFS) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowOrigins,
		AllowedMethods: []string{"GET", "HEAD", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(rfs.Middleware)

	s := &Server{
		config: cfg,
		fs:     fs,
		router: r,
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	r := s.router
	prefix := strings.TrimRight(s.config.URLPrefix, "/")

	r.Get("/health", s.handleHealth)

	r.Get(prefix+"/*", s.handleServe)
	r.Head(prefix+"/*", s.handleServe)

	r.Route("/api", func(r chi.Router) {
		r.Get("/url/*", s.handleURL)
		r.Get("/list", s.handleList)
		r.Get("/list/*", s.handleList)
		r.Put("/files/*", s.handlePut)
		r.Delete("/files/*", s.handleDelete)
	})

	// request-relative URLs point at the server root
	if s.config.Resolver == config.ResolverRequest {
		r.Get("/*", s.handleServe)
		r.Head("/*", s.handleServe)
	}
}
