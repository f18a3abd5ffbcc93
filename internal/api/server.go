package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/riskreport/internal/api/handlers"
	"github.com/wonny/riskreport/pkg/config"
	"github.com/wonny/riskreport/pkg/logger"
)

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	config     *config.Config
}

// New creates a new API server
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second, // Monte Carlo on large ledgers
			IdleTimeout:  60 * time.Second,
		},
		logger: log,
		config: cfg,
	}
}

// NewFromConfig wires handlers, metrics and router from the config
func NewFromConfig(cfg *config.Config, log *logger.Logger) *Server {
	var metrics *Metrics
	var recorder handlers.AnalysisRecorder
	if cfg.MetricsEnabled {
		metrics = NewMetrics()
		recorder = metrics
	}

	analysisHandler := handlers.NewAnalysisHandler(cfg.Analysis, cfg.MaxUploadBytes, recorder, log)
	return New(cfg, log, NewRouter(cfg, analysisHandler, metrics, log))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port":    s.config.Port,
		"env":     s.config.Env,
		"metrics": s.config.MetricsEnabled,
	}).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
