package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8080" {
		t.Errorf("Expected Port to be 8080, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	a := cfg.Analysis
	if a.InitialBalance != nil {
		t.Errorf("Expected report-implied initial balance, got %v", *a.InitialBalance)
	}
	if a.Trials != 1000 {
		t.Errorf("Expected 1000 trials, got %d", a.Trials)
	}
	if a.MaxTrials != DefaultMaxTrials {
		t.Errorf("Expected max trials %d, got %d", DefaultMaxTrials, a.MaxTrials)
	}
	if a.RuinFraction != 0.5 {
		t.Errorf("Expected ruin fraction 0.5, got %v", a.RuinFraction)
	}
	if a.Seed != nil {
		t.Errorf("Expected no seed, got %d", *a.Seed)
	}
	if len(a.Sessions) != 3 || a.Sessions[0].Name != "Asian" {
		t.Errorf("Expected default sessions, got %+v", a.Sessions)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("INITIAL_BALANCE", "2500.5")
	t.Setenv("RUIN_THRESHOLD", "1200")
	t.Setenv("MC_TRIALS", "5000")
	t.Setenv("MC_SEED", "-42")
	t.Setenv("MC_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}

	a := cfg.Analysis
	if a.InitialBalance == nil || *a.InitialBalance != 2500.5 {
		t.Errorf("Expected initial balance 2500.5, got %v", a.InitialBalance)
	}
	if a.RuinThreshold == nil || *a.RuinThreshold != 1200 {
		t.Errorf("Expected ruin threshold 1200, got %v", a.RuinThreshold)
	}
	if a.Trials != 5000 || a.Workers != 4 {
		t.Errorf("Expected 5000 trials on 4 workers, got %d on %d", a.Trials, a.Workers)
	}
	if a.Seed == nil || *a.Seed != -42 {
		t.Errorf("Expected seed -42, got %v", a.Seed)
	}
}

func TestValidateInvalidValues(t *testing.T) {
	tests := map[string]string{
		"ENV":             "invalid",
		"MC_TRIALS":       "0",
		"RUIN_FRACTION":   "-1",
		"INITIAL_BALANCE": "-10",
		"MC_WORKERS":      "-2",
		"MC_MAX_TRIALS":   "500", // below the 1000 default trials
		"RATE_LIMIT_RPS":  "-1",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s, got nil", key, value)
			}
		})
	}
}

func TestLoadAnalysisFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	data := []byte(`
trials: 250
seed: 7
ruin_fraction: 0.3
sessions:
  - name: Tokyo
    start_hour: 0
    end_hour: 9
  - name: London
    start_hour: 7
    end_hour: 16
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadAnalysisFile(path); err == nil {
		t.Fatal("Expected overlapping sessions to fail")
	}

	data = []byte(`
trials: 250
seed: 7
ruin_fraction: 0.3
sessions:
  - name: Tokyo
    start_hour: 0
    end_hour: 7
  - name: London
    start_hour: 7
    end_hour: 16
header_aliases:
  Gewinn: profit
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ANALYSIS_CONFIG", path)
	t.Setenv("MC_TRIALS", "300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	a := cfg.Analysis
	if a.Trials != 300 {
		t.Errorf("Expected env to override file trials, got %d", a.Trials)
	}
	if a.Seed == nil || *a.Seed != 7 {
		t.Errorf("Expected seed 7 from file, got %v", a.Seed)
	}
	if a.RuinFraction != 0.3 {
		t.Errorf("Expected ruin fraction 0.3, got %v", a.RuinFraction)
	}
	if len(a.Sessions) != 2 || a.Sessions[1].Name != "London" {
		t.Errorf("Expected file sessions, got %+v", a.Sessions)
	}
	if a.HeaderAliases["Gewinn"] != "profit" {
		t.Errorf("Expected header alias, got %v", a.HeaderAliases)
	}
}

func TestLoadMaxTrials(t *testing.T) {
	t.Setenv("MC_TRIALS", "2000")
	t.Setenv("MC_MAX_TRIALS", "2000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Analysis.MaxTrials != 2000 {
		t.Errorf("Expected max trials 2000, got %d", cfg.Analysis.MaxTrials)
	}
}

func TestAnalysisFileEmptySessions(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantNil bool
		wantLen int
	}{
		{"absent keeps defaults", "trials: 10\n", false, 3},
		{"empty list disables sessions", "sessions: []\n", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := ParseAnalysisFile([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("ParseAnalysisFile() failed: %v", err)
			}
			cfg := DefaultAnalysisConfig()
			file.ApplyTo(&cfg)

			if (cfg.Sessions == nil) != tt.wantNil {
				t.Errorf("Expected nil=%v, got %#v", tt.wantNil, cfg.Sessions)
			}
			if len(cfg.Sessions) != tt.wantLen {
				t.Errorf("Expected %d sessions, got %d", tt.wantLen, len(cfg.Sessions))
			}
		})
	}
}

func TestParseAnalysisFileUnknownField(t *testing.T) {
	if _, err := ParseAnalysisFile([]byte("trails: 10\n")); err == nil {
		t.Error("Expected unknown field to fail")
	}
	if _, err := ParseAnalysisFile(nil); err != nil {
		t.Errorf("Expected empty file to be accepted, got %v", err)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}

	t.Setenv("TEST_INT", "abc")
	if value := getEnvAsInt("TEST_INT", 50); value != 50 {
		t.Errorf("Expected fallback 50, got %d", value)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	if value := getEnvAsFloat("TEST_FLOAT", 1); value != 0.25 {
		t.Errorf("Expected 0.25, got %v", value)
	}
	if value := getEnvAsFloat("TEST_FLOAT_MISSING", 1); value != 1 {
		t.Errorf("Expected default 1, got %v", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	if !getEnvAsBool("TEST_BOOL", false) {
		t.Error("Expected true")
	}
}
