// Package analysis owns one loaded report and its lazily derived results.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/riskreport/internal/contracts"
	"github.com/wonny/riskreport/internal/ledger"
	"github.com/wonny/riskreport/internal/metrics"
	"github.com/wonny/riskreport/internal/report"
	"github.com/wonny/riskreport/internal/risk"
	"github.com/wonny/riskreport/internal/temporal"
	"github.com/wonny/riskreport/pkg/config"
	"github.com/wonny/riskreport/pkg/logger"
)

// ErrNoReport is returned when derived results are requested before a successful Load
var ErrNoReport = errors.New("no report loaded")

// Session is the analysis session of one report
// ⭐ SSOT: Ledger는 세션이 소유, 파생 결과는 콘텐츠 해시 키로 캐시되고 새 입력 시 함께 무효화
type Session struct {
	mu sync.Mutex

	cfg       config.AnalysisConfig
	aliases   report.HeaderMap
	builder   *ledger.Builder
	metrics   contracts.MetricsEngine
	recovery  contracts.RecoveryAnalyzer
	temporal  contracts.TemporalAnalyzer
	simulator contracts.Simulator
	logger    *logger.Logger

	state *state
}

// state is everything derived from one input; replaced wholesale on new input
type state struct {
	key         uint64
	format      report.Format
	parsed      *contracts.ParsedReport
	ledger      *contracts.Ledger
	metrics     *contracts.MetricSet
	recovery    *contracts.RecoveryReport
	temporal    *contracts.TemporalReport
	simulations map[string]*contracts.SimulationResult
}

// NewSession creates a session from the analysis config; nil log = logger.Nop()
func NewSession(cfg config.AnalysisConfig, log *logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.Nop()
	}

	aliases := report.DefaultHeaderMap()
	if err := aliases.Merge(cfg.HeaderAliases); err != nil {
		return nil, fmt.Errorf("header aliases: %w", err)
	}

	opts := ledger.Options{Sessions: cfg.Sessions, Tolerance: cfg.SignTolerance}
	if cfg.InitialBalance != nil {
		b := decimal.NewFromFloat(*cfg.InitialBalance)
		opts.InitialBalance = &b
	}
	builder, err := ledger.NewBuilder(opts)
	if err != nil {
		return nil, err
	}
	analyzer, err := temporal.NewAnalyzer(cfg.Sessions)
	if err != nil {
		return nil, err
	}

	engine := metrics.NewEngine()
	return &Session{
		cfg:       cfg,
		aliases:   aliases,
		builder:   builder,
		metrics:   engine,
		recovery:  engine,
		temporal:  analyzer,
		simulator: risk.NewMonteCarloSimulator(),
		logger:    log,
	}, nil
}

// ContentKey is the cache key of an input: xxhash64(format ‖ 0x00 ‖ raw)
func ContentKey(raw []byte, format report.Format) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(string(format))
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(raw)
	return d.Sum64()
}

// Load parses raw and builds the ledger. The same content keeps every cached result;
// different content (or a failed parse) drops all of them.
func (s *Session) Load(raw []byte, format report.Format) (*contracts.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ContentKey(raw, format)
	if s.state != nil && s.state.key == key {
		s.logger.WithField("content_key", formatKey(key)).Debug("Report cache hit")
		return s.state.ledger, nil
	}

	// 새 입력: 이전 파생 결과 전부 폐기
	s.state = nil

	start := time.Now()
	parsed, err := report.Parse(raw, format, s.aliases)
	if err != nil {
		s.logParseFailure(format, err)
		return nil, err
	}

	l := s.builder.Build(parsed)
	s.state = &state{
		key:         key,
		format:      format,
		parsed:      parsed,
		ledger:      l,
		simulations: make(map[string]*contracts.SimulationResult),
	}

	s.logger.WithFields(map[string]interface{}{
		"format":       format,
		"content_key":  formatKey(key),
		"trades":       l.Len(),
		"warnings":     len(l.Warnings),
		"skipped_rows": contracts.SkippedRows(l.Warnings),
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("Report loaded")
	return l, nil
}

func (s *Session) logParseFailure(format report.Format, err error) {
	fields := map[string]interface{}{"format": format}
	var perr *contracts.ParseError
	if errors.As(err, &perr) {
		fields["warnings"] = len(perr.Warnings)
	}
	s.logger.WithFields(fields).WithError(err).Warn("Report rejected")
}

// Ledger returns the current ledger
func (s *Session) Ledger() (*contracts.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNoReport
	}
	return s.state.ledger, nil
}

// Parsed returns the raw parser output of the current report
func (s *Session) Parsed() (*contracts.ParsedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNoReport
	}
	return s.state.parsed, nil
}

// Metrics computes the metric set once per ledger
func (s *Session) Metrics() (contracts.MetricSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return contracts.MetricSet{}, ErrNoReport
	}
	if s.state.metrics == nil {
		ms := s.metrics.Compute(s.state.ledger)
		s.state.metrics = &ms
	}
	return *s.state.metrics, nil
}

// Recovery computes the drawdown periods once per ledger
func (s *Session) Recovery() (contracts.RecoveryReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return contracts.RecoveryReport{}, ErrNoReport
	}
	if s.state.recovery == nil {
		rr := s.recovery.Recovery(s.state.ledger)
		s.state.recovery = &rr
	}
	return *s.state.recovery, nil
}

// Temporal computes the temporal buckets once per ledger
func (s *Session) Temporal() (contracts.TemporalReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return contracts.TemporalReport{}, ErrNoReport
	}
	if s.state.temporal == nil {
		tr := s.temporal.Analyze(s.state.ledger)
		s.state.temporal = &tr
	}
	return *s.state.temporal, nil
}

// DefaultParams builds simulation parameters from the config and the current ledger
func (s *Session) DefaultParams() (contracts.SimulationParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return contracts.SimulationParams{}, ErrNoReport
	}

	params := contracts.SimulationParams{
		Trials:  s.cfg.Trials,
		Workers: s.cfg.Workers,
	}
	if params.Trials <= 0 {
		params.Trials = risk.DefaultTrials
	}
	if s.cfg.Seed != nil {
		params.Seed = risk.Seed(*s.cfg.Seed)
	}
	if s.cfg.RuinThreshold != nil {
		params.RuinThreshold = *s.cfg.RuinThreshold
	} else {
		params.RuinThreshold = risk.RuinThreshold(s.state.ledger.InitialBalance.InexactFloat64(), s.cfg.RuinFraction)
	}
	return params, nil
}

// Simulate runs the Monte Carlo simulation. Seeded runs are cached per parameter set;
// unseeded runs are recomputed every call.
func (s *Session) Simulate(ctx context.Context, params contracts.SimulationParams) (*contracts.SimulationResult, error) {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if st == nil {
		return nil, ErrNoReport
	}

	cacheKey, cacheable := simulationKey(params)
	if cacheable {
		s.mu.Lock()
		cached, ok := st.simulations[cacheKey]
		s.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	start := time.Now()
	res, err := s.simulator.Simulate(ctx, st.ledger, params)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"trials":           res.Trials,
		"seed":             res.Seed,
		"ruin_probability": res.RuinProbability,
		"duration_ms":      time.Since(start).Milliseconds(),
	}).Info("Monte Carlo completed")

	if cacheable {
		s.mu.Lock()
		// 시뮬레이션 중 새 리포트가 로드되었으면 캐시하지 않음
		if s.state == st {
			st.simulations[cacheKey] = res
		}
		s.mu.Unlock()
	}
	return res, nil
}

// simulationKey identifies a seeded parameter set; worker count does not change results
func simulationKey(p contracts.SimulationParams) (string, bool) {
	if p.Seed == nil {
		return "", false
	}
	ps := p.Percentiles
	if len(ps) == 0 {
		ps = contracts.DefaultPercentiles
	}
	parts := make([]string, 0, len(ps))
	for _, v := range ps {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return fmt.Sprintf("%d|%d|%x|%s|%t", p.Trials, *p.Seed, math.Float64bits(p.RuinThreshold), strings.Join(parts, ","), p.DiscardCurves), true
}

func formatKey(key uint64) string {
	return strconv.FormatUint(key, 16)
}

// =============================================================================
// Full report
// =============================================================================

// Report bundles every output of one analysis for hosts (read-only)
type Report struct {
	ID          string                      `json:"id"`
	ContentKey  string                      `json:"content_key"`
	Format      string                      `json:"format"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Ledger      *contracts.Ledger           `json:"ledger"`
	Warnings    []contracts.ParseWarning    `json:"warnings"`
	Summary     map[string]float64          `json:"broker_summary,omitempty"`
	Metrics     contracts.MetricSet         `json:"metrics"`
	Recovery    contracts.RecoveryReport    `json:"recovery"`
	Temporal    contracts.TemporalReport    `json:"temporal"`
	Simulation  *contracts.SimulationResult `json:"simulation"`
}

// Analyze loads raw and computes every derived result.
// A nil params uses DefaultParams.
func (s *Session) Analyze(ctx context.Context, raw []byte, format report.Format, params *contracts.SimulationParams) (*Report, error) {
	l, err := s.Load(raw, format)
	if err != nil {
		return nil, err
	}

	ms, err := s.Metrics()
	if err != nil {
		return nil, err
	}
	rr, err := s.Recovery()
	if err != nil {
		return nil, err
	}
	tr, err := s.Temporal()
	if err != nil {
		return nil, err
	}

	if params == nil {
		p, err := s.DefaultParams()
		if err != nil {
			return nil, err
		}
		params = &p
	}
	sim, err := s.Simulate(ctx, *params)
	if err != nil {
		return nil, err
	}

	parsed, err := s.Parsed()
	if err != nil {
		return nil, err
	}

	return &Report{
		ID:          uuid.New().String(),
		ContentKey:  formatKey(ContentKey(raw, format)),
		Format:      string(format),
		GeneratedAt: time.Now().UTC(),
		Ledger:      l,
		Warnings:    l.Warnings,
		Summary:     parsed.Summary,
		Metrics:     ms,
		Recovery:    rr,
		Temporal:    tr,
		Simulation:  sim,
	}, nil
}
