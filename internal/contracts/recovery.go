package contracts

import "time"

// DrawdownPeriod is one peak-to-recovery excursion of the equity curve
type DrawdownPeriod struct {
	Start           time.Time  `json:"start"`              // time the peak balance was set
	Trough          time.Time  `json:"trough"`             // close time of the deepest trade
	Recovery        *time.Time `json:"recovery,omitempty"` // nil while still under water
	Depth           float64    `json:"depth"`
	DepthPct        float64    `json:"depth_pct"`
	TradesToTrough  int        `json:"trades_to_trough"`
	TradesToRecover int        `json:"trades_to_recover"` // trough to recovery, 0 while open
	Duration        float64    `json:"duration_hours"`    // start to recovery, or to the last close while open
}

// Recovered reports whether the balance got back to the peak
func (p DrawdownPeriod) Recovered() bool {
	return p.Recovery != nil
}

// RecoveryReport summarizes how the equity curve recovered from its drawdowns
type RecoveryReport struct {
	Periods []DrawdownPeriod `json:"periods"`

	Recovered               int     `json:"recovered"`
	AvgTradesToRecover      float64 `json:"avg_trades_to_recover"`     // over recovered periods
	MaxTradesToRecover      int     `json:"max_trades_to_recover"`     // over recovered periods
	LongestUnderwaterTrades int     `json:"longest_underwater_trades"` // peak to recovery, or to the end
	LongestUnderwaterHours  float64 `json:"longest_underwater_hours"`
	StillUnderwater         bool    `json:"still_underwater"`
}
