package contracts

import (
	"encoding/json"
	"math"
	"strconv"
)

// MetricName identifies one performance/risk metric
type MetricName string

const (
	MetricTotalTrades       MetricName = "total_trades"
	MetricWinRate           MetricName = "win_rate"
	MetricProfitFactor      MetricName = "profit_factor"
	MetricNetProfit         MetricName = "net_profit"
	MetricGrossProfit       MetricName = "gross_profit"
	MetricGrossLoss         MetricName = "gross_loss"
	MetricAverageWin        MetricName = "average_win"
	MetricAverageLoss       MetricName = "average_loss"
	MetricRiskReward        MetricName = "risk_reward_ratio"
	MetricExpectancy        MetricName = "expectancy"
	MetricSharpe            MetricName = "sharpe_ratio"
	MetricSortino           MetricName = "sortino_ratio"
	MetricReturnStdDev      MetricName = "return_stddev"
	MetricMaxDrawdown       MetricName = "max_drawdown"
	MetricMaxDrawdownPct    MetricName = "max_drawdown_pct"
	MetricRecoveryFactor    MetricName = "recovery_factor"
	MetricLongestWinStreak  MetricName = "longest_win_streak"
	MetricLongestLossStreak MetricName = "longest_loss_streak"
	MetricTotalReturnPct    MetricName = "total_return_pct"
	MetricAnnualReturnPct   MetricName = "annualized_return_pct"
	MetricCalmar            MetricName = "calmar_ratio"
	MetricOmega             MetricName = "omega_ratio"
)

// MetricNames is the documented metric set in output order
var MetricNames = []MetricName{
	MetricTotalTrades,
	MetricWinRate,
	MetricProfitFactor,
	MetricNetProfit,
	MetricGrossProfit,
	MetricGrossLoss,
	MetricAverageWin,
	MetricAverageLoss,
	MetricRiskReward,
	MetricExpectancy,
	MetricSharpe,
	MetricSortino,
	MetricReturnStdDev,
	MetricMaxDrawdown,
	MetricMaxDrawdownPct,
	MetricRecoveryFactor,
	MetricLongestWinStreak,
	MetricLongestLossStreak,
	MetricTotalReturnPct,
	MetricAnnualReturnPct,
	MetricCalmar,
	MetricOmega,
}

// MetricValue is one named value of a MetricSet
type MetricValue struct {
	Name  MetricName `json:"name"`
	Value float64    `json:"value"`
}

// MarshalJSON encodes non-finite values as strings ("+Inf", "-Inf", "NaN")
func (m MetricValue) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name  MetricName  `json:"name"`
		Value interface{} `json:"value"`
	}
	return json.Marshal(wire{Name: m.Name, Value: jsonNumber(m.Value)})
}

// MetricSet is an immutable, ordered set of metrics computed from one ledger
type MetricSet struct {
	values []MetricValue
	index  map[MetricName]int
}

// NewMetricSet copies values into a new set; later duplicates overwrite earlier ones
func NewMetricSet(values []MetricValue) MetricSet {
	ms := MetricSet{
		values: make([]MetricValue, 0, len(values)),
		index:  make(map[MetricName]int, len(values)),
	}
	for _, v := range values {
		if i, ok := ms.index[v.Name]; ok {
			ms.values[i] = v
			continue
		}
		ms.index[v.Name] = len(ms.values)
		ms.values = append(ms.values, v)
	}
	return ms
}

// Value returns the metric and whether it exists
func (ms MetricSet) Value(name MetricName) (float64, bool) {
	i, ok := ms.index[name]
	if !ok {
		return 0, false
	}
	return ms.values[i].Value, true
}

// Get returns the metric or 0 when absent
func (ms MetricSet) Get(name MetricName) float64 {
	v, _ := ms.Value(name)
	return v
}

// All returns a copy of the values in order
func (ms MetricSet) All() []MetricValue {
	out := make([]MetricValue, len(ms.values))
	copy(out, ms.values)
	return out
}

// Len returns the number of metrics
func (ms MetricSet) Len() int {
	return len(ms.values)
}

// MarshalJSON encodes the set as an ordered list
func (ms MetricSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ms.values)
}

// jsonNumber keeps finite values numeric and turns the rest into strings
func jsonNumber(v float64) interface{} {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	default:
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64))
	}
}
