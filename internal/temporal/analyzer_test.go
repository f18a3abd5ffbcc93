package temporal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/riskreport/internal/contracts"
	"github.com/wonny/riskreport/internal/ledger"
)

func closedAt(row int, at time.Time, profit int64) contracts.Trade {
	return contracts.Trade{Row: row, OpenTime: at, CloseTime: at, Profit: decimal.NewFromInt(profit)}
}

func fixture(t *testing.T) *contracts.Ledger {
	t.Helper()
	// 2024-01-01 is a Monday
	trades := []contracts.Trade{
		closedAt(1, time.Date(2024, 1, 1, 3, 15, 0, 0, time.UTC), 100),  // Mon, Asian
		closedAt(2, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), -40),   // Mon, European
		closedAt(3, time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC), 60),   // Wed, European
		closedAt(4, time.Date(2024, 1, 7, 22, 0, 0, 0, time.UTC), 0),    // Sun, US
		closedAt(5, time.Date(2024, 1, 7, 23, 59, 0, 0, time.UTC), -20), // Sun, US
	}
	b, err := ledger.NewBuilder(ledger.Options{})
	require.NoError(t, err)
	return b.FromTrades(trades, decimal.NewFromInt(1000))
}

func TestAnalyze_Ordering(t *testing.T) {
	a, err := NewAnalyzer(nil)
	require.NoError(t, err)
	r := a.Analyze(fixture(t))

	require.Len(t, r.ByHour, 24)
	for h, b := range r.ByHour {
		assert.Equal(t, HourKey(h), b.Key)
	}

	require.Len(t, r.ByWeekday, 7)
	assert.Equal(t, "Monday", r.ByWeekday[0].Key)
	assert.Equal(t, "Sunday", r.ByWeekday[6].Key)

	keys := make([]string, len(r.BySession))
	for i, b := range r.BySession {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{"Asian", "European", "US", contracts.OffSession}, keys)

	require.Len(t, r.ByDay, 3)
	assert.Equal(t, []string{"2024-01-01", "2024-01-03", "2024-01-07"},
		[]string{r.ByDay[0].Key, r.ByDay[1].Key, r.ByDay[2].Key})
}

func TestAnalyze_Aggregates(t *testing.T) {
	a, err := NewAnalyzer(nil)
	require.NoError(t, err)
	r := a.Analyze(fixture(t))

	monday, ok := contracts.Bucket(r.ByWeekday, "Monday")
	require.True(t, ok)
	assert.Equal(t, 2, monday.Count)
	assert.Equal(t, 1, monday.Wins)
	assert.Equal(t, 1, monday.Losses)
	assert.Equal(t, 0.5, monday.WinRate)
	assert.Equal(t, 60.0, monday.TotalProfit)
	assert.Equal(t, 30.0, monday.AvgProfit)

	hour9, _ := contracts.Bucket(r.ByHour, "09")
	assert.Equal(t, 2, hour9.Count)
	assert.Equal(t, 20.0, hour9.TotalProfit)

	us, _ := contracts.Bucket(r.BySession, "US")
	assert.Equal(t, 2, us.Count)
	assert.Equal(t, 0, us.Wins, "breakeven is not a win")
	assert.Equal(t, 1, us.Losses)
	assert.Equal(t, -10.0, us.AvgProfit)

	tuesday, _ := contracts.Bucket(r.ByWeekday, "Tuesday")
	assert.Equal(t, contracts.TemporalBucket{Key: "Tuesday"}, tuesday)

	off, _ := contracts.Bucket(r.BySession, contracts.OffSession)
	assert.Equal(t, 0, off.Count)
}

func bucketKeys(buckets []contracts.TemporalBucket) []string {
	keys := make([]string, len(buckets))
	for i, b := range buckets {
		keys[i] = b.Key
	}
	return keys
}

func TestAnalyze_WorstRankings(t *testing.T) {
	a, err := NewAnalyzer(nil)
	require.NoError(t, err)
	r := a.Analyze(fixture(t))

	// 01-01 and 01-03 tie at 60, key breaks the tie
	assert.Equal(t, []string{"2024-01-07", "2024-01-01", "2024-01-03"}, bucketKeys(r.WorstDays))
	assert.Equal(t, -20.0, r.WorstDays[0].TotalProfit)

	// empty Off-session bucket is not ranked
	assert.Equal(t, []string{"US", "European", "Asian"}, bucketKeys(r.WorstSessions))

	empty := a.Analyze(nil)
	assert.Empty(t, empty.WorstDays)
	assert.Empty(t, empty.WorstSessions)
}

func TestWorst_Truncates(t *testing.T) {
	buckets := make([]contracts.TemporalBucket, 0, 8)
	for i := 0; i < 8; i++ {
		buckets = append(buckets, contracts.TemporalBucket{Key: HourKey(i), Count: 1, TotalProfit: float64(10 - i)})
	}
	got := contracts.Worst(buckets, 3)
	assert.Equal(t, []string{"07", "06", "05"}, bucketKeys(got))
	assert.Equal(t, "00", buckets[0].Key, "input order is untouched")
}

func TestAnalyze_EveryTradeCountedOnce(t *testing.T) {
	a, err := NewAnalyzer(contracts.SessionTable{{Name: "London", StartHour: 8, EndHour: 12}})
	require.NoError(t, err)
	l := fixture(t)
	r := a.Analyze(l)

	for name, group := range map[string][]contracts.TemporalBucket{
		"hour": r.ByHour, "weekday": r.ByWeekday, "session": r.BySession, "day": r.ByDay,
	} {
		total := 0
		for _, b := range group {
			total += b.Count
		}
		assert.Equal(t, l.Len(), total, name)
	}

	off, _ := contracts.Bucket(r.BySession, contracts.OffSession)
	assert.Equal(t, 3, off.Count, "trades outside every window are kept under Off-session")
	assert.Equal(t, contracts.OffSession, r.BySession[len(r.BySession)-1].Key)
}

func TestAnalyze_Empty(t *testing.T) {
	a, err := NewAnalyzer(nil)
	require.NoError(t, err)

	r := a.Analyze(nil)
	assert.Len(t, r.ByHour, 24)
	assert.Len(t, r.ByWeekday, 7)
	assert.Len(t, r.BySession, 4)
	assert.Empty(t, r.ByDay)
	for _, b := range r.ByHour {
		assert.Equal(t, 0.0, b.WinRate)
	}
}

func TestNewAnalyzer_InvalidSessions(t *testing.T) {
	_, err := NewAnalyzer(contracts.SessionTable{
		{Name: "A", StartHour: 0, EndHour: 10},
		{Name: "B", StartHour: 9, EndHour: 12},
	})
	assert.Error(t, err)
}

func TestAnalyze_EmptySessionTable(t *testing.T) {
	a, err := NewAnalyzer(contracts.SessionTable{})
	require.NoError(t, err)
	r := a.Analyze(fixture(t))

	require.Len(t, r.BySession, 1)
	assert.Equal(t, contracts.OffSession, r.BySession[0].Key)
	assert.Equal(t, 5, r.BySession[0].Count)
}
