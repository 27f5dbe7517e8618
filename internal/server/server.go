// Package server provides the HTTP API for Wakaru.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/wakaru/internal/config"
	"github.com/hyperjump/wakaru/internal/indexer"
	"github.com/hyperjump/wakaru/internal/inference"
	"github.com/hyperjump/wakaru/internal/query"
	"github.com/hyperjump/wakaru/internal/search"
	"github.com/hyperjump/wakaru/internal/storage"
)

// WatchService is the part of the directory watcher the API exposes.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the Wakaru API.
type Server struct {
	orchestrator *query.Orchestrator
	engine       *search.Engine
	indexer      *indexer.Indexer
	storage      storage.Storage
	inference    inference.Client
	config       *config.Config
	configPath   string
	logger       *zap.Logger
	server       *http.Server

	watch    WatchService
	configMu sync.Mutex
}

// NewServer creates a server with the given dependencies.
func NewServer(
	orchestrator *query.Orchestrator,
	engine *search.Engine,
	idx *indexer.Indexer,
	store storage.Storage,
	client inference.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		engine:       engine,
		indexer:      idx,
		storage:      store,
		inference:    client,
		config:       cfg,
		logger:       logger,
	}
}

// SetWatcher attaches a directory watcher so the watch endpoints work.
func (s *Server) SetWatcher(w WatchService, configPath string) {
	s.watch = w
	s.configPath = configPath
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/documents", s.handleIngestDocument)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
