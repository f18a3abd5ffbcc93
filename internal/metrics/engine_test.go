package metrics

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/riskreport/internal/contracts"
	"github.com/wonny/riskreport/internal/ledger"
	"github.com/wonny/riskreport/internal/stats"
)

var base = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

// buildLedger spaces trades one hour apart unless sameInstant is set
func buildLedger(t *testing.T, initial int64, sameInstant bool, profits ...float64) *contracts.Ledger {
	t.Helper()
	trades := make([]contracts.Trade, len(profits))
	for i, p := range profits {
		at := base
		if !sameInstant {
			at = base.Add(time.Duration(i) * time.Hour)
		}
		trades[i] = contracts.Trade{Row: i + 1, OpenTime: at, CloseTime: at, Profit: decimal.NewFromFloat(p)}
	}
	b, err := ledger.NewBuilder(ledger.Options{})
	require.NoError(t, err)
	return b.FromTrades(trades, decimal.NewFromInt(initial))
}

func TestCompute_Scenario(t *testing.T) {
	ms := NewEngine().Compute(buildLedger(t, 1000, false, 100, -50, 200))

	assert.Equal(t, len(contracts.MetricNames), ms.Len())
	assert.Equal(t, 3.0, ms.Get(contracts.MetricTotalTrades))
	assert.InDelta(t, 2.0/3.0, ms.Get(contracts.MetricWinRate), 1e-12)
	assert.InDelta(t, 6.0, ms.Get(contracts.MetricProfitFactor), 1e-12)
	assert.Equal(t, 250.0, ms.Get(contracts.MetricNetProfit))
	assert.Equal(t, 300.0, ms.Get(contracts.MetricGrossProfit))
	assert.Equal(t, 50.0, ms.Get(contracts.MetricGrossLoss))
	assert.Equal(t, 150.0, ms.Get(contracts.MetricAverageWin))
	assert.Equal(t, -50.0, ms.Get(contracts.MetricAverageLoss))
	assert.InDelta(t, 3.0, ms.Get(contracts.MetricRiskReward), 1e-12)
	assert.InDelta(t, 250.0/3.0, ms.Get(contracts.MetricExpectancy), 1e-9)
	assert.Equal(t, 50.0, ms.Get(contracts.MetricMaxDrawdown))
	assert.InDelta(t, 50.0/1100.0*100, ms.Get(contracts.MetricMaxDrawdownPct), 1e-9)
	assert.InDelta(t, 5.0, ms.Get(contracts.MetricRecoveryFactor), 1e-12)
	assert.Equal(t, 1.0, ms.Get(contracts.MetricLongestWinStreak))
	assert.Equal(t, 1.0, ms.Get(contracts.MetricLongestLossStreak))
	assert.InDelta(t, 25.0, ms.Get(contracts.MetricTotalReturnPct), 1e-9)

	// two hours of trading annualize over the one-day floor
	assert.InDelta(t, 25.0*365.25, ms.Get(contracts.MetricAnnualReturnPct), 1e-6)
	assert.InDelta(t, 25.0*365.25/(50.0/1100.0*100), ms.Get(contracts.MetricCalmar), 1e-6)
	wantOmega := (100.0/1000 + 200.0/1050) / (50.0 / 1100)
	assert.InDelta(t, wantOmega, ms.Get(contracts.MetricOmega), 1e-9)
}

func TestCompute_CalmarOmegaOverAYear(t *testing.T) {
	trades := []contracts.Trade{
		{Row: 1, OpenTime: base, CloseTime: base.Add(yearDuration / 2), Profit: decimal.NewFromInt(-100)},
		{Row: 2, OpenTime: base, CloseTime: base.Add(2 * yearDuration), Profit: decimal.NewFromInt(300)},
	}
	b, err := ledger.NewBuilder(ledger.Options{})
	require.NoError(t, err)
	ms := NewEngine().Compute(b.FromTrades(trades, decimal.NewFromInt(1000)))

	// +20% over two years, 10% drawdown from the initial balance
	assert.InDelta(t, 10.0, ms.Get(contracts.MetricAnnualReturnPct), 1e-9)
	assert.InDelta(t, 1.0, ms.Get(contracts.MetricCalmar), 1e-9)
	assert.InDelta(t, (300.0/900)/(100.0/1000), ms.Get(contracts.MetricOmega), 1e-9)
}

func TestCompute_EmptyLedgerIsNeutral(t *testing.T) {
	engine := NewEngine()

	for name, l := range map[string]*contracts.Ledger{
		"empty": buildLedger(t, 1000, false),
		"nil":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			ms := engine.Compute(l)
			require.Equal(t, len(contracts.MetricNames), ms.Len())
			for _, m := range ms.All() {
				assert.Equal(t, 0.0, m.Value, "metric %s", m.Name)
			}
		})
	}
}

func TestCompute_DegenerateRatios(t *testing.T) {
	engine := NewEngine()

	allWins := engine.Compute(buildLedger(t, 1000, false, 10, 20, 30))
	assert.True(t, math.IsInf(allWins.Get(contracts.MetricProfitFactor), 1))
	assert.True(t, math.IsInf(allWins.Get(contracts.MetricCalmar), 1))
	assert.True(t, math.IsInf(allWins.Get(contracts.MetricOmega), 1))
	assert.True(t, math.IsInf(allWins.Get(contracts.MetricRecoveryFactor), 1))
	assert.Equal(t, 0.0, allWins.Get(contracts.MetricRiskReward))
	assert.Equal(t, 0.0, allWins.Get(contracts.MetricMaxDrawdown))
	assert.Equal(t, 1.0, allWins.Get(contracts.MetricWinRate))
	assert.Equal(t, 3.0, allWins.Get(contracts.MetricLongestWinStreak))

	allLosses := engine.Compute(buildLedger(t, 1000, false, -10, -20))
	assert.Equal(t, 0.0, allLosses.Get(contracts.MetricProfitFactor))
	assert.Equal(t, 0.0, allLosses.Get(contracts.MetricWinRate))
	assert.Equal(t, 30.0, allLosses.Get(contracts.MetricMaxDrawdown))
	assert.InDelta(t, -1.0, allLosses.Get(contracts.MetricRecoveryFactor), 1e-12)
	assert.Less(t, allLosses.Get(contracts.MetricCalmar), 0.0)
	assert.Equal(t, 0.0, allLosses.Get(contracts.MetricOmega))

	breakeven := engine.Compute(buildLedger(t, 1000, false, 0, 0))
	assert.Equal(t, 0.0, breakeven.Get(contracts.MetricProfitFactor))
	assert.Equal(t, 0.0, breakeven.Get(contracts.MetricRecoveryFactor))
	assert.Equal(t, 0.0, breakeven.Get(contracts.MetricSharpe))
}

func TestCompute_StreaksBrokenByBreakeven(t *testing.T) {
	ms := NewEngine().Compute(buildLedger(t, 1000, false, 10, 10, 0, 10, -5, -5, -5, 10))
	assert.Equal(t, 2.0, ms.Get(contracts.MetricLongestWinStreak))
	assert.Equal(t, 3.0, ms.Get(contracts.MetricLongestLossStreak))
}

func TestCompute_Sharpe(t *testing.T) {
	engine := NewEngine()

	// zero-length span counts as one day
	l := buildLedger(t, 1000, true, 100, -50, 200)
	returns := l.Returns()
	want := stats.Mean(returns) / stats.StdDev(returns) * math.Sqrt(3*365.25)
	ms := engine.Compute(l)
	assert.InDelta(t, want, ms.Get(contracts.MetricSharpe), 1e-12)
	assert.InDelta(t, stats.StdDev(returns), ms.Get(contracts.MetricReturnStdDev), 1e-15)

	wantSortino := stats.Mean(returns) / stats.DownsideDeviation(returns) * math.Sqrt(3*365.25)
	assert.InDelta(t, wantSortino, ms.Get(contracts.MetricSortino), 1e-12)

	single := engine.Compute(buildLedger(t, 1000, false, 100))
	assert.Equal(t, 0.0, single.Get(contracts.MetricSharpe))
	assert.False(t, math.IsNaN(single.Get(contracts.MetricSharpe)))
	assert.Equal(t, 0.0, single.Get(contracts.MetricSortino))
}

func TestCompute_SharpeAnnualization(t *testing.T) {
	trades := []contracts.Trade{
		{Row: 1, OpenTime: base, CloseTime: base.Add(time.Hour), Profit: decimal.NewFromInt(100)},
		{Row: 2, OpenTime: base, CloseTime: base.Add(yearDuration / 2), Profit: decimal.NewFromInt(-40)},
	}
	b, err := ledger.NewBuilder(ledger.Options{})
	require.NoError(t, err)
	l := b.FromTrades(trades, decimal.NewFromInt(1000))

	returns := l.Returns()
	// 2 trades over half a year = 4 trades per year
	want := stats.Mean(returns) / stats.StdDev(returns) * 2
	assert.InDelta(t, want, NewEngine().Compute(l).Get(contracts.MetricSharpe), 1e-9)
}

func TestTradesPerYear_ShortSpanClamped(t *testing.T) {
	engine := NewEngine()
	at := func(row int, d time.Duration) contracts.Trade {
		return contracts.Trade{Row: row, OpenTime: base, CloseTime: base.Add(d), Profit: decimal.NewFromInt(1)}
	}
	b, err := ledger.NewBuilder(ledger.Options{})
	require.NoError(t, err)

	tests := []struct {
		name string
		last time.Duration
		want float64
	}{
		{"same instant", 0, 2 * 365.25},
		{"one second", time.Second, 2 * 365.25},
		{"one hour", time.Hour, 2 * 365.25},
		{"exactly a day", 24 * time.Hour, 2 * 365.25},
		{"two days", 48 * time.Hour, 365.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := b.FromTrades([]contracts.Trade{at(1, 0), at(2, tt.last)}, decimal.NewFromInt(1000))
			assert.InDelta(t, tt.want, engine.tradesPerYear(l), 1e-9)
		})
	}
}

func TestCompute_DoesNotMutateLedger(t *testing.T) {
	l := buildLedger(t, 1000, false, 100, -50, 200)
	before := l.BalanceFloat()
	entries := append([]contracts.LedgerEntry(nil), l.Entries...)

	NewEngine().Compute(l)

	assert.Equal(t, before, l.BalanceFloat())
	assert.Equal(t, entries, l.Entries)
}

func TestCompute_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	engine := NewEngine()

	for i := 0; i < 200; i++ {
		n := rng.Intn(30)
		profits := make([]float64, n)
		wins, losses := 0, 0
		for k := range profits {
			profits[k] = float64(rng.Intn(401) - 200)
			switch {
			case profits[k] > 0:
				wins++
			case profits[k] < 0:
				losses++
			}
		}

		l := buildLedger(t, 10000, false, profits...)
		ms := engine.Compute(l)

		wr := ms.Get(contracts.MetricWinRate)
		assert.GreaterOrEqual(t, wr, 0.0)
		assert.LessOrEqual(t, wr, 1.0)

		pf := ms.Get(contracts.MetricProfitFactor)
		assert.Equal(t, wins > 0 && losses == 0, math.IsInf(pf, 1))
		assert.Equal(t, wins == 0, pf == 0)

		dd := ms.Get(contracts.MetricMaxDrawdown)
		assert.GreaterOrEqual(t, dd, 0.0)
		assert.Equal(t, losses == 0, dd == 0, "drawdown is zero iff balance never falls")
	}
}
