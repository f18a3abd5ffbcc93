package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/riskreport/internal/api"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

요청마다 독립된 분석 세션을 사용하며, 리포트는 요청 본문으로 전달합니다.

Endpoints:
  GET  /health         - Health check
  POST /api/analyze    - 리포트 분석 (?format=csv|html&trials=&seed=&ruin=&balance=)
  GET  /metrics        - Prometheus 메트릭 (METRICS_ENABLED=true)

Example:
  go run ./cmd/riskreport api
  go run ./cmd/riskreport api --port 8080
  curl --data-binary @report.html 'localhost:8080/api/analyze?format=html&seed=42'`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := newLogger(cfg, cmd.ErrOrStderr())

	log.WithFields(map[string]interface{}{
		"port":           cfg.Port,
		"env":            cfg.Env,
		"trials":         cfg.Analysis.Trials,
		"analysis_file":  cfg.Analysis.ConfigPath,
		"max_body_bytes": cfg.MaxUploadBytes,
	}).Info("Initializing API server")

	// 3. Create server (handlers, metrics, router)
	server := api.NewFromConfig(cfg, log)

	// 4. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Fprintln(cmd.OutOrStdout(), "\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("Failed to start server")
		}
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
