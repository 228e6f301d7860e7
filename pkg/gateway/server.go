// Package gateway provides the HTTP server fronting the processing
// pipeline: tool admission, artifact downloads, health probes, and the
// metrics endpoint.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"fileworks-hq/vulcan/pkg/config"
	"fileworks-hq/vulcan/pkg/gateway/handlers"
	"fileworks-hq/vulcan/pkg/gateway/middleware"
	"fileworks-hq/vulcan/pkg/pipeline"
	"fileworks-hq/vulcan/pkg/telemetry/metrics"
)

// Dependencies are the collaborators the server exposes over HTTP.
type Dependencies struct {
	// Pipeline processes admitted tool requests.
	Pipeline *pipeline.Pipeline

	// Downloads serves stored artifacts.
	Downloads *handlers.DownloadHandler

	// Collector exposes the metrics endpoint. May be nil when metrics
	// are disabled.
	Collector *metrics.Collector

	// ReadyChecks probe storage dependencies for the readiness endpoint.
	ReadyChecks map[string]handlers.ReadyCheck
}

// Server is the gateway HTTP server.
type Server struct {
	config       *config.Config
	deps         Dependencies
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new gateway server.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	return &Server{
		config:       cfg,
		deps:         deps,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until the context is cancelled,
// Shutdown is requested, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting gateway server",
			"address", s.config.Server.ListenAddress,
			"free_limit", s.config.Quota.FreeLimit,
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("gateway server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	processHandler := handlers.NewProcessHandler(
		s.deps.Pipeline,
		s.config.Quota.FreeLimit,
		s.config.Server.MaxUploadBytes,
	)
	healthHandler := handlers.NewHealthHandler()
	readyHandler := handlers.NewReadyHandler(s.deps.ReadyChecks)

	// Request metrics are attached per route so the route pattern, not
	// the raw URL, becomes the path label.
	instrument := func(h http.Handler) http.Handler { return h }
	if s.deps.Collector != nil {
		instrument = middleware.MetricsMiddleware(s.deps.Collector.Request)
	}

	mux.Handle("POST /api/tools/{tool}/process", instrument(processHandler))
	mux.Handle("GET /download/{id}", instrument(s.deps.Downloads))
	mux.Handle("GET /health", healthHandler)
	mux.Handle("GET /ready", readyHandler)

	if s.deps.Collector != nil && s.config.Telemetry.Metrics.Enabled {
		path := s.config.Telemetry.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, s.deps.Collector.Handler())
	}

	var handler http.Handler = mux

	handler = middleware.CORSMiddleware(s.config.Server.CORS)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	logger := slog.Default().With("component", "gateway")
	handler = middleware.LoggingMiddleware(logger)(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return handler
}
