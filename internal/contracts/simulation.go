package contracts

// DefaultPercentiles are the percentile levels reported for simulation bands
var DefaultPercentiles = []float64{5, 25, 50, 75, 95}

// PercentileBand is a set of percentile values of one distribution
type PercentileBand struct {
	Percentiles []float64 `json:"percentiles"`
	Values      []float64 `json:"values"`
}

// At returns the value for percentile p
func (b PercentileBand) At(p float64) (float64, bool) {
	for i, q := range b.Percentiles {
		if q == p {
			return b.Values[i], true
		}
	}
	return 0, false
}

// SimulationRisk holds tail statistics of the simulated final profit
type SimulationRisk struct {
	MeanFinalBalance    float64 `json:"mean_final_balance"`
	StdDevFinalBalance  float64 `json:"stddev_final_balance"`
	ProbabilityOfLoss   float64 `json:"probability_of_loss"` // final balance < initial balance
	VaR95               float64 `json:"var_95"`              // loss as a positive amount
	VaR99               float64 `json:"var_99"`
	ExpectedShortfall95 float64 `json:"expected_shortfall_95"`
	ExpectedShortfall99 float64 `json:"expected_shortfall_99"`
}

// Scenario is a named final-balance outcome
type Scenario struct {
	Name         string  `json:"name"`
	Percentile   float64 `json:"percentile"`
	FinalBalance float64 `json:"final_balance"`
}

// SimulationResult is the outcome of a bootstrap Monte Carlo run
// ⭐ SSOT: 재현성을 위해 실제 사용된 시드를 기록
type SimulationResult struct {
	Trials         int     `json:"trials"`
	Seed           int64   `json:"seed"`
	TradeCount     int     `json:"trade_count"`
	InitialBalance float64 `json:"initial_balance"`
	RuinThreshold  float64 `json:"ruin_threshold"`

	// Curves[t] has TradeCount+1 balances starting with InitialBalance
	Curves        [][]float64 `json:"curves"`
	FinalBalances []float64   `json:"final_balances"`
	MaxDrawdowns  []float64   `json:"max_drawdowns"`
	Ruined        int         `json:"ruined"`

	FinalBalanceBands PercentileBand   `json:"final_balance_bands"`
	MaxDrawdownBands  PercentileBand   `json:"max_drawdown_bands"`
	EquityBands       []PercentileBand `json:"equity_bands"` // one band per step
	RuinProbability   float64          `json:"ruin_probability"`
	Risk              SimulationRisk   `json:"risk"`
	Scenarios         []Scenario       `json:"scenarios"`
}

// Summary is the simulation without per-trial series, for compact output
func (r *SimulationResult) Summary() SimulationSummary {
	return SimulationSummary{
		Trials:            r.Trials,
		Seed:              r.Seed,
		TradeCount:        r.TradeCount,
		InitialBalance:    r.InitialBalance,
		RuinThreshold:     r.RuinThreshold,
		FinalBalanceBands: r.FinalBalanceBands,
		MaxDrawdownBands:  r.MaxDrawdownBands,
		RuinProbability:   r.RuinProbability,
		Risk:              r.Risk,
		Scenarios:         r.Scenarios,
	}
}

// SimulationSummary is SimulationResult minus curves and raw samples
type SimulationSummary struct {
	Trials            int            `json:"trials"`
	Seed              int64          `json:"seed"`
	TradeCount        int            `json:"trade_count"`
	InitialBalance    float64        `json:"initial_balance"`
	RuinThreshold     float64        `json:"ruin_threshold"`
	FinalBalanceBands PercentileBand `json:"final_balance_bands"`
	MaxDrawdownBands  PercentileBand `json:"max_drawdown_bands"`
	RuinProbability   float64        `json:"ruin_probability"`
	Risk              SimulationRisk `json:"risk"`
	Scenarios         []Scenario     `json:"scenarios"`
}
