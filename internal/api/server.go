package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stratlab/stratlab/internal/api/handler"
	"github.com/stratlab/stratlab/internal/api/middleware"
	"github.com/stratlab/stratlab/internal/engine"
	"github.com/stratlab/stratlab/internal/metrics"
	"github.com/stratlab/stratlab/internal/rule"
	"github.com/stratlab/stratlab/internal/store"
)

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string // empty disables the metrics endpoint
}

// Dependencies are the collaborators the server routes requests to.
type Dependencies struct {
	Engine    *engine.Engine
	Assembler *engine.Assembler
	Store     store.ResultStore
	Rules     *rule.Registry
	Metrics   *metrics.Registry // may be nil
}

// Server is the StratLab HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Engine == nil || deps.Assembler == nil || deps.Rules == nil {
		return nil, fmt.Errorf("engine, assembler and rules are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)

	var root http.Handler = mux
	if deps.Metrics != nil {
		root = metrics.HTTPMiddleware(deps.Metrics)(root)
	}
	root = metrics.LoggingMiddleware(logger)(root)
	s.httpServer.Handler = root

	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	backtests := handler.NewBacktestHandler(deps.Engine, deps.Assembler, deps.Metrics, s.logger)
	results := handler.NewResultsHandler(deps.Store)
	rules := handler.NewRulesHandler(deps.Rules)

	auth := middleware.APIKeyAuth(cfg.APIKey)

	s.mux.Handle("POST /api/backtest", auth(http.HandlerFunc(backtests.Run)))
	s.mux.Handle("GET /api/results/{id}", auth(http.HandlerFunc(results.Get)))
	s.mux.Handle("GET /api/results", auth(http.HandlerFunc(results.List)))
	s.mux.Handle("GET /api/rules", auth(http.HandlerFunc(rules.List)))

	// Health and metrics stay unauthenticated for probes and scrapers.
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath,
			promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the full middleware chain, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
