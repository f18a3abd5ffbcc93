package contracts

import "context"

// ReportParser turns raw report bytes into trades (one implementation per format)
// ⭐ SSOT: 새 포맷은 구현체 추가로만 지원, 공용 로직 내부 분기 금지
type ReportParser interface {
	Format() string
	Parse(raw []byte) (*ParsedReport, error)
}

// MetricsEngine computes the metric set of a ledger
type MetricsEngine interface {
	Compute(ledger *Ledger) MetricSet
}

// RecoveryAnalyzer lists the drawdown periods of a ledger's equity curve
type RecoveryAnalyzer interface {
	Recovery(ledger *Ledger) RecoveryReport
}

// TemporalAnalyzer buckets ledger trades by time of day, weekday and session
type TemporalAnalyzer interface {
	Analyze(ledger *Ledger) TemporalReport
}

// Simulator runs a resampling simulation over a ledger
type Simulator interface {
	Simulate(ctx context.Context, ledger *Ledger, params SimulationParams) (*SimulationResult, error)
}
