package contracts

import "github.com/shopspring/decimal"

// ParsedReport is the raw output of a report parser before ledger derivation
type ParsedReport struct {
	Format   string         `json:"format"`
	Trades   []Trade        `json:"trades"`   // sorted by close time, then Row
	Warnings []ParseWarning `json:"warnings"` // per-row problems, never silently dropped
	DataRows int            `json:"data_rows"`

	// Summary holds broker-reported figures (e.g. "total_net_profit"), when the report has them
	Summary map[string]float64 `json:"summary,omitempty"`

	// ImpliedBalance is the starting balance implied by the report, if any
	ImpliedBalance *decimal.Decimal `json:"implied_balance,omitempty"`
}

// SimulationParams controls one Monte Carlo run
type SimulationParams struct {
	Trials        int       `json:"trials"`
	Seed          *int64    `json:"seed,omitempty"` // nil = fresh random sequence per call
	RuinThreshold float64   `json:"ruin_threshold"`
	Workers       int       `json:"workers,omitempty"`     // <=0 = GOMAXPROCS
	Percentiles   []float64 `json:"percentiles,omitempty"` // nil = DefaultPercentiles
	// DiscardCurves drops the per-trial paths from the result once bands are computed
	DiscardCurves bool      `json:"discard_curves,omitempty"`
}
