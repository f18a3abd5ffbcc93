package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/wonny/riskreport/internal/contracts"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool

	// API limits
	RateLimitRPS   float64
	RateLimitBurst int
	MaxUploadBytes int64

	// Analysis engine
	Analysis AnalysisConfig
}

// AnalysisConfig holds the engine configuration surface.
// Every field has a default so the engine runs with zero configuration.
type AnalysisConfig struct {
	InitialBalance *float64 // nil = report-implied, else 10000
	RuinThreshold  *float64 // absolute; nil = RuinFraction * initial balance
	RuinFraction   float64
	Trials         int
	MaxTrials      int    // upper bound for per-request trial overrides
	Seed           *int64 // nil = fresh random sequence per simulation
	Workers        int    // 0 = GOMAXPROCS
	SignTolerance  float64

	// ConfigPath is the optional YAML file (ANALYSIS_CONFIG) with sessions and header aliases
	ConfigPath string
	// Sessions: nil = defaults, empty = every trade is Off-session
	Sessions      contracts.SessionTable
	HeaderAliases map[string]string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),

		// API limits
		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 10),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 20<<20)),

		Analysis: DefaultAnalysisConfig(),
	}

	// YAML 분석 설정 (env 값이 우선)
	cfg.Analysis.ConfigPath = getEnv("ANALYSIS_CONFIG", "")
	if cfg.Analysis.ConfigPath != "" {
		file, err := LoadAnalysisFile(cfg.Analysis.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load analysis config: %w", err)
		}
		file.ApplyTo(&cfg.Analysis)
	}

	a := &cfg.Analysis
	if v, ok := lookupFloat("INITIAL_BALANCE"); ok {
		a.InitialBalance = &v
	}
	if v, ok := lookupFloat("RUIN_THRESHOLD"); ok {
		a.RuinThreshold = &v
	}
	a.RuinFraction = getEnvAsFloat("RUIN_FRACTION", a.RuinFraction)
	a.Trials = getEnvAsInt("MC_TRIALS", a.Trials)
	a.MaxTrials = getEnvAsInt("MC_MAX_TRIALS", a.MaxTrials)
	if v, ok := lookupInt64("MC_SEED"); ok {
		a.Seed = &v
	}
	a.Workers = getEnvAsInt("MC_WORKERS", a.Workers)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultMaxTrials bounds MC_TRIALS and per-request trial overrides (MC_MAX_TRIALS)
const DefaultMaxTrials = 100000

// DefaultAnalysisConfig returns the zero-configuration engine defaults
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		RuinFraction:  0.5,
		Trials:        1000,
		MaxTrials:     DefaultMaxTrials,
		SignTolerance: 0.01,
		Sessions:      contracts.DefaultSessions(),
		HeaderAliases: map[string]string{},
	}
}

// validate checks configuration values
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return c.Analysis.Validate()
}

// Validate checks the analysis settings
func (a *AnalysisConfig) Validate() error {
	if a.InitialBalance != nil && (*a.InitialBalance < 0 || !finite(*a.InitialBalance)) {
		return fmt.Errorf("INITIAL_BALANCE must be a non-negative number")
	}
	if a.RuinThreshold != nil && !finite(*a.RuinThreshold) {
		return fmt.Errorf("RUIN_THRESHOLD must be finite")
	}
	if a.RuinFraction < 0 || !finite(a.RuinFraction) {
		return fmt.Errorf("RUIN_FRACTION must be a non-negative number")
	}
	if a.Trials <= 0 {
		return fmt.Errorf("MC_TRIALS must be positive")
	}
	if a.MaxTrials <= 0 {
		return fmt.Errorf("MC_MAX_TRIALS must be positive")
	}
	if a.Trials > a.MaxTrials {
		return fmt.Errorf("MC_TRIALS (%d) exceeds MC_MAX_TRIALS (%d)", a.Trials, a.MaxTrials)
	}
	if a.Workers < 0 {
		return fmt.Errorf("MC_WORKERS must not be negative")
	}
	if err := a.Sessions.Validate(); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, ok := lookupFloat(key)
	if !ok {
		return defaultValue
	}
	return value
}

// lookupFloat reports whether key holds a parseable float
func lookupFloat(key string) (float64, bool) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func lookupInt64(key string) (int64, bool) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
