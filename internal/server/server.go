// Package server provides the HTTP API for latsearch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/latsearch/internal/config"
	"github.com/hyperjump/latsearch/internal/metrics"
	"github.com/hyperjump/latsearch/internal/search"
	"github.com/hyperjump/latsearch/internal/storage"
)

// Server is the HTTP server for the latsearch API.
// Every request that needs the corpus loads it fresh from the configured directory.
type Server struct {
	searcher *search.Searcher
	storage  storage.Storage
	config   *config.Config
	logger   *zap.Logger
	recorder *metrics.Recorder
	server   *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil, which disables
// the history endpoint; recorder may be nil, which skips the corpus size gauge.
func NewServer(
	searcher *search.Searcher,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	recorder *metrics.Recorder,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		searcher: searcher,
		storage:  store,
		config:   cfg,
		logger:   logger,
		recorder: recorder,
	}
}

// Handler returns the router with all API routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware())

	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/names", s.handleNames)
	r.Get("/api/v1/metrics", s.handleMetrics)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/history/{id}", s.handleHistoryRecord)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.String("corpus", s.config.Corpus.Directory))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
