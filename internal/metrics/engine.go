// Package metrics computes the fixed performance/risk metric set of a ledger.
package metrics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/riskreport/internal/contracts"
	"github.com/wonny/riskreport/internal/stats"
)

const (
	yearDuration = 365.25 * 24 * time.Hour
	// minSpan floor of the annualization span
	minSpan = 24 * time.Hour
)

// Engine implements contracts.MetricsEngine
// ⭐ SSOT: 성과/리스크 지표 계산은 여기서만 (ledger 읽기 전용)
type Engine struct{}

// NewEngine creates a metrics engine
func NewEngine() *Engine {
	return &Engine{}
}

// tally is the single pass over ledger profits
type tally struct {
	n           int
	wins        int
	losses      int
	grossProfit decimal.Decimal
	grossLoss   decimal.Decimal // positive
	sumProfit   decimal.Decimal
	winStreak   int
	lossStreak  int
}

// Compute implements contracts.MetricsEngine.
// Empty ledger = every metric at its neutral value (0), never an error.
func (e *Engine) Compute(ledger *contracts.Ledger) contracts.MetricSet {
	t := e.tally(ledger)
	returns := ledger.Returns()
	dd := stats.MaxDrawdown(ledger.BalanceFloat())

	net := ledger.NetProfit().InexactFloat64()
	grossProfit := t.grossProfit.InexactFloat64()
	grossLoss := t.grossLoss.InexactFloat64()
	avgWin, avgLoss := e.calculateAvgWinLoss(t)
	years := e.spanYears(ledger)
	tpy := e.tradesPerYear(ledger)
	totalReturn := e.calculateTotalReturnPct(ledger, net)
	annualReturn := totalReturn / years

	values := []contracts.MetricValue{
		{Name: contracts.MetricTotalTrades, Value: float64(t.n)},
		{Name: contracts.MetricWinRate, Value: e.calculateWinRate(t)},
		{Name: contracts.MetricProfitFactor, Value: e.calculateProfitFactor(t)},
		{Name: contracts.MetricNetProfit, Value: net},
		{Name: contracts.MetricGrossProfit, Value: grossProfit},
		{Name: contracts.MetricGrossLoss, Value: grossLoss},
		{Name: contracts.MetricAverageWin, Value: avgWin},
		{Name: contracts.MetricAverageLoss, Value: avgLoss},
		{Name: contracts.MetricRiskReward, Value: e.calculateRiskReward(avgWin, avgLoss)},
		{Name: contracts.MetricExpectancy, Value: e.calculateExpectancy(t)},
		{Name: contracts.MetricSharpe, Value: e.calculateSharpe(returns, tpy)},
		{Name: contracts.MetricSortino, Value: e.calculateSortino(returns, tpy)},
		{Name: contracts.MetricReturnStdDev, Value: stats.StdDev(returns)},
		{Name: contracts.MetricMaxDrawdown, Value: dd.Amount},
		{Name: contracts.MetricMaxDrawdownPct, Value: dd.Pct},
		{Name: contracts.MetricRecoveryFactor, Value: e.calculateRecoveryFactor(net, dd.Amount)},
		{Name: contracts.MetricLongestWinStreak, Value: float64(t.winStreak)},
		{Name: contracts.MetricLongestLossStreak, Value: float64(t.lossStreak)},
		{Name: contracts.MetricTotalReturnPct, Value: totalReturn},
		{Name: contracts.MetricAnnualReturnPct, Value: annualReturn},
		{Name: contracts.MetricCalmar, Value: e.calculateCalmar(annualReturn, dd.Pct)},
		{Name: contracts.MetricOmega, Value: e.calculateOmega(returns)},
	}
	return contracts.NewMetricSet(values)
}

func (e *Engine) tally(ledger *contracts.Ledger) tally {
	t := tally{n: ledger.Len()}
	var curWin, curLoss int

	for i := 0; i < t.n; i++ {
		profit := ledger.Entries[i].Profit
		t.sumProfit = t.sumProfit.Add(profit)

		switch {
		case profit.IsPositive():
			t.wins++
			t.grossProfit = t.grossProfit.Add(profit)
			curWin++
			curLoss = 0
		case profit.IsNegative():
			t.losses++
			t.grossLoss = t.grossLoss.Add(profit.Neg())
			curLoss++
			curWin = 0
		default:
			// 본전 거래는 연속 기록을 끊음
			curWin, curLoss = 0, 0
		}
		if curWin > t.winStreak {
			t.winStreak = curWin
		}
		if curLoss > t.lossStreak {
			t.lossStreak = curLoss
		}
	}
	return t
}

// calculateWinRate wins / total, 0 when there are no trades
func (e *Engine) calculateWinRate(t tally) float64 {
	if t.n == 0 {
		return 0
	}
	return float64(t.wins) / float64(t.n)
}

// calculateProfitFactor gross profit / gross loss
// +Inf with wins and no losses, 0 without wins
func (e *Engine) calculateProfitFactor(t tally) float64 {
	if t.wins == 0 {
		return 0
	}
	if t.losses == 0 {
		return math.Inf(1)
	}
	return t.grossProfit.Div(t.grossLoss).InexactFloat64()
}

// calculateAvgWinLoss returns the mean win (>= 0) and mean loss (<= 0)
func (e *Engine) calculateAvgWinLoss(t tally) (float64, float64) {
	var avgWin, avgLoss float64
	if t.wins > 0 {
		avgWin = t.grossProfit.Div(decimal.NewFromInt(int64(t.wins))).InexactFloat64()
	}
	if t.losses > 0 {
		avgLoss = t.grossLoss.Div(decimal.NewFromInt(int64(t.losses))).Neg().InexactFloat64()
	}
	return avgWin, avgLoss
}

// calculateRiskReward avg win / |avg loss|, 0 when either side is missing
func (e *Engine) calculateRiskReward(avgWin, avgLoss float64) float64 {
	if avgWin == 0 || avgLoss == 0 {
		return 0
	}
	return avgWin / math.Abs(avgLoss)
}

// calculateExpectancy mean profit per trade
func (e *Engine) calculateExpectancy(t tally) float64 {
	if t.n == 0 {
		return 0
	}
	return t.sumProfit.Div(decimal.NewFromInt(int64(t.n))).InexactFloat64()
}

// spanYears ledger span in years; spans shorter than a day (zero included) count as one day
func (e *Engine) spanYears(ledger *contracts.Ledger) float64 {
	first, last := ledger.Span()
	span := last.Sub(first)
	if span < minSpan {
		span = minSpan
	}
	return float64(span) / float64(yearDuration)
}

// tradesPerYear annualization proxy: trade count / ledger span in years
func (e *Engine) tradesPerYear(ledger *contracts.Ledger) float64 {
	return float64(ledger.Len()) / e.spanYears(ledger)
}

// calculateSharpe mean / sample stdev of per-trade returns, scaled by sqrt(trades per year)
func (e *Engine) calculateSharpe(returns []float64, tradesPerYear float64) float64 {
	sd := stats.StdDev(returns)
	if sd == 0 {
		return 0
	}
	return stats.Mean(returns) / sd * math.Sqrt(tradesPerYear)
}

// calculateSortino mean / downside deviation, scaled like Sharpe
func (e *Engine) calculateSortino(returns []float64, tradesPerYear float64) float64 {
	dd := stats.DownsideDeviation(returns)
	if dd == 0 {
		return 0
	}
	return stats.Mean(returns) / dd * math.Sqrt(tradesPerYear)
}

// calculateRecoveryFactor net profit / max drawdown
func (e *Engine) calculateRecoveryFactor(net, maxDrawdown float64) float64 {
	if maxDrawdown > 0 {
		return net / maxDrawdown
	}
	if net > 0 {
		return math.Inf(1)
	}
	return 0
}

// calculateTotalReturnPct net profit as percent of the initial balance
func (e *Engine) calculateTotalReturnPct(ledger *contracts.Ledger, net float64) float64 {
	if ledger == nil || !ledger.InitialBalance.IsPositive() {
		return 0
	}
	return net / ledger.InitialBalance.InexactFloat64() * 100
}

// calculateCalmar annualized return pct / max drawdown pct
// +Inf with a positive return and no drawdown, 0 otherwise
func (e *Engine) calculateCalmar(annualReturnPct, maxDrawdownPct float64) float64 {
	if maxDrawdownPct > 0 {
		return annualReturnPct / maxDrawdownPct
	}
	if annualReturnPct > 0 {
		return math.Inf(1)
	}
	return 0
}

// calculateOmega gains over losses of per-trade returns at a zero threshold
// Same conventions as profit factor: 0 without gains, +Inf without losses
func (e *Engine) calculateOmega(returns []float64) float64 {
	var gains, losses float64
	for _, r := range returns {
		if r > 0 {
			gains += r
		} else {
			losses -= r
		}
	}
	if gains == 0 {
		return 0
	}
	if losses == 0 {
		return math.Inf(1)
	}
	return gains / losses
}
