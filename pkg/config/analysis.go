package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/riskreport/internal/contracts"
)

// AnalysisFile is the YAML form of the analysis settings (ANALYSIS_CONFIG)
type AnalysisFile struct {
	InitialBalance *float64               `yaml:"initial_balance"`
	RuinThreshold  *float64               `yaml:"ruin_threshold"`
	RuinFraction   *float64               `yaml:"ruin_fraction"`
	Trials         *int                   `yaml:"trials"`
	MaxTrials      *int                   `yaml:"max_trials"`
	Seed           *int64                 `yaml:"seed"`
	Workers        *int                   `yaml:"workers"`
	SignTolerance  *float64               `yaml:"sign_tolerance"`
	Sessions       contracts.SessionTable `yaml:"sessions"` // absent = keep, [] = no sessions
	HeaderAliases  map[string]string      `yaml:"header_aliases"` // alias -> canonical field
}

// LoadAnalysisFile reads and strictly decodes an analysis YAML file
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func LoadAnalysisFile(path string) (*AnalysisFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseAnalysisFile(data)
}

// ParseAnalysisFile decodes analysis YAML bytes
func ParseAnalysisFile(data []byte) (*AnalysisFile, error) {
	var file AnalysisFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode analysis yaml: %w", err)
	}

	if file.Sessions != nil {
		if err := file.Sessions.Validate(); err != nil {
			return nil, fmt.Errorf("sessions: %w", err)
		}
	}
	return &file, nil
}

// ApplyTo overlays the values present in the file onto cfg
func (f *AnalysisFile) ApplyTo(cfg *AnalysisConfig) {
	if f.InitialBalance != nil {
		v := *f.InitialBalance
		cfg.InitialBalance = &v
	}
	if f.RuinThreshold != nil {
		v := *f.RuinThreshold
		cfg.RuinThreshold = &v
	}
	if f.RuinFraction != nil {
		cfg.RuinFraction = *f.RuinFraction
	}
	if f.Trials != nil {
		cfg.Trials = *f.Trials
	}
	if f.MaxTrials != nil {
		cfg.MaxTrials = *f.MaxTrials
	}
	if f.Seed != nil {
		v := *f.Seed
		cfg.Seed = &v
	}
	if f.Workers != nil {
		cfg.Workers = *f.Workers
	}
	if f.SignTolerance != nil {
		cfg.SignTolerance = *f.SignTolerance
	}
	if f.Sessions != nil {
		// 빈 테이블도 유지 (nil이면 기본 세션으로 돌아감)
		cfg.Sessions = make(contracts.SessionTable, len(f.Sessions))
		copy(cfg.Sessions, f.Sessions)
	}
	if len(f.HeaderAliases) > 0 {
		if cfg.HeaderAliases == nil {
			cfg.HeaderAliases = make(map[string]string, len(f.HeaderAliases))
		}
		for alias, field := range f.HeaderAliases {
			cfg.HeaderAliases[alias] = field
		}
	}
}
