// Package stats holds the descriptive statistics shared by the metrics engine
// and the Monte Carlo simulator.
package stats

import (
	"math"
	"sort"
)

// =============================================================================
// 기본 통계
// =============================================================================

// Sum adds values
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Mean 평균 계산 (empty = 0)
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// StdDev sample standard deviation (N-1 denominator); 0 with fewer than 2 values
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// DownsideDeviation sqrt(sum(min(v,0)^2) / n)
func DownsideDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		if v < 0 {
			sumSq += v * v
		}
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// =============================================================================
// 백분위수
// =============================================================================

// Percentile 백분위수 계산 (sorted ascending, p in [0,100], linear interpolation)
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Sorted returns an ascending copy of values
func Sorted(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

// Percentiles evaluates several percentiles of unsorted values
func Percentiles(values []float64, ps []float64) []float64 {
	sorted := Sorted(values)
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = Percentile(sorted, p)
	}
	return out
}

// =============================================================================
// Tail risk
// =============================================================================

// TailRisk is a historical VaR / CVaR pair
// ⭐ SSOT: Loss를 양수로 표현 (VaR=50 → 50 손실 가능)
type TailRisk struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// HistoricalVaR computes VaR and expected shortfall of outcome values
// (positive = gain) at a confidence level such as 0.95.
func HistoricalVaR(values []float64, confidence float64) TailRisk {
	res := TailRisk{Confidence: confidence}
	if len(values) == 0 {
		return res
	}

	sorted := Sorted(values)
	cutoff := Percentile(sorted, (1-confidence)*100)
	if cutoff < 0 {
		res.VaR = -cutoff
	}

	// CVaR: cutoff 이하 구간 평균
	var sum float64
	var n int
	for _, v := range sorted {
		if v > cutoff {
			break
		}
		sum += v
		n++
	}
	if n > 0 {
		if avg := sum / float64(n); avg < 0 {
			res.CVaR = -avg
		}
	}
	return res
}

// =============================================================================
// Drawdown
// =============================================================================

// Drawdown describes the largest peak-to-trough decline of a balance series
type Drawdown struct {
	Amount      float64 `json:"amount"`       // peak - trough, >= 0
	Pct         float64 `json:"pct"`          // Amount / Peak * 100, 0 when peak <= 0
	Peak        float64 `json:"peak"`         // peak balance at the time
	PeakIndex   int     `json:"peak_index"`   // index of the peak in the series
	TroughIndex int     `json:"trough_index"` // index of the trough in the series
}

// MaxDrawdown scans a balance series once
func MaxDrawdown(balances []float64) Drawdown {
	var dd Drawdown
	if len(balances) == 0 {
		return dd
	}

	peak := balances[0]
	peakIdx := 0
	dd.Peak = peak
	for i, b := range balances {
		if b > peak {
			peak = b
			peakIdx = i
			continue
		}
		if decline := peak - b; decline > dd.Amount {
			dd.Amount = decline
			dd.Peak = peak
			dd.PeakIndex = peakIdx
			dd.TroughIndex = i
		}
	}
	if dd.Amount > 0 && dd.Peak > 0 {
		dd.Pct = dd.Amount / dd.Peak * 100
	}
	return dd
}

// DrawdownPeriod is one excursion of a balance series below its running peak
type DrawdownPeriod struct {
	PeakIndex     int     `json:"peak_index"`     // last index at the peak before the decline
	TroughIndex   int     `json:"trough_index"`   // lowest point of the excursion
	RecoveryIndex int     `json:"recovery_index"` // first index back at or above the peak, -1 while open
	Peak          float64 `json:"peak"`
	Trough        float64 `json:"trough"`
	Amount        float64 `json:"amount"` // Peak - Trough
	Pct           float64 `json:"pct"`    // Amount / Peak * 100, 0 when peak <= 0
}

// Recovered reports whether the series got back to the peak
func (p DrawdownPeriod) Recovered() bool {
	return p.RecoveryIndex >= 0
}

// DrawdownPeriods lists every drawdown of the series in order; the last one may still be open
func DrawdownPeriods(balances []float64) []DrawdownPeriod {
	var out []DrawdownPeriod
	if len(balances) == 0 {
		return out
	}

	peak, peakIdx := balances[0], 0
	var cur *DrawdownPeriod
	closePeriod := func() {
		cur.Amount = cur.Peak - cur.Trough
		if cur.Peak > 0 {
			cur.Pct = cur.Amount / cur.Peak * 100
		}
		out = append(out, *cur)
		cur = nil
	}

	for i := 1; i < len(balances); i++ {
		b := balances[i]
		if b >= peak {
			if cur != nil {
				cur.RecoveryIndex = i
				closePeriod()
			}
			peak, peakIdx = b, i
			continue
		}
		if cur == nil {
			cur = &DrawdownPeriod{PeakIndex: peakIdx, Peak: peak, TroughIndex: i, Trough: b, RecoveryIndex: -1}
			continue
		}
		if b < cur.Trough {
			cur.Trough, cur.TroughIndex = b, i
		}
	}
	if cur != nil {
		closePeriod()
	}
	return out
}
