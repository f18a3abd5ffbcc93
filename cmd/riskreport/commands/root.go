package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wonny/riskreport/pkg/config"
	"github.com/wonny/riskreport/pkg/logger"
)

var (
	// Global flags
	analysisConfigFile string
	logLevel           string
	verbose            bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "riskreport",
	Short: "Backtest report risk analytics",
	Long: `riskreport - backtest report parsing and risk analytics

Broker HTML/CSV 리포트를 표준 거래 원장으로 변환하고
성과 지표, 시간대별 통계, Monte Carlo 리스크 분석을 수행합니다.

Usage:
  go run ./cmd/riskreport [command]

Examples:
  go run ./cmd/riskreport analyze report.html
  go run ./cmd/riskreport analyze trades.csv --seed 42 --json
  go run ./cmd/riskreport api --port 8080`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&analysisConfigFile, "analysis-config", "", "analysis YAML file (overrides ANALYSIS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}

// loadConfig loads env config and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if analysisConfigFile != "" {
		file, err := config.LoadAnalysisFile(analysisConfigFile)
		if err != nil {
			return nil, fmt.Errorf("load analysis config: %w", err)
		}
		file.ApplyTo(&cfg.Analysis)
		cfg.Analysis.ConfigPath = analysisConfigFile
		if err := cfg.Analysis.Validate(); err != nil {
			return nil, fmt.Errorf("analysis config: %w", err)
		}
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger keeps stdout free for command output
func newLogger(cfg *config.Config, stderr io.Writer) *logger.Logger {
	return logger.NewWithWriter(cfg, stderr)
}
