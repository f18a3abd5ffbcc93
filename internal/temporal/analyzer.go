// Package temporal buckets ledger trades by hour, weekday, trading session and calendar day.
package temporal

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/riskreport/internal/contracts"
)

const (
	// DayLayout is the key format of daily buckets
	DayLayout = "2006-01-02"
	// WorstN length of the worst day / worst session rankings
	WorstN = 5
)

// weekdays in output order (Monday first)
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// HourKey formats an hour-of-day bucket key ("00".."23")
func HourKey(hour int) string {
	return fmt.Sprintf("%02d", hour)
}

// Analyzer implements contracts.TemporalAnalyzer
type Analyzer struct {
	sessions contracts.SessionTable
}

// NewAnalyzer creates an analyzer; nil sessions = contracts.DefaultSessions()
func NewAnalyzer(sessions contracts.SessionTable) (*Analyzer, error) {
	if sessions == nil {
		sessions = contracts.DefaultSessions()
	}
	if err := sessions.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session table: %w", err)
	}
	return &Analyzer{sessions: sessions}, nil
}

// accumulator collects one bucket
type accumulator struct {
	count  int
	wins   int
	losses int
	total  decimal.Decimal
}

func (a *accumulator) add(e contracts.LedgerEntry) {
	a.count++
	a.total = a.total.Add(e.Profit)
	switch {
	case e.IsWin():
		a.wins++
	case e.IsLoss():
		a.losses++
	}
}

func (a *accumulator) bucket(key string) contracts.TemporalBucket {
	b := contracts.TemporalBucket{
		Key:         key,
		Count:       a.count,
		Wins:        a.wins,
		Losses:      a.losses,
		TotalProfit: a.total.InexactFloat64(),
	}
	if a.count > 0 {
		b.WinRate = float64(a.wins) / float64(a.count)
		b.AvgProfit = a.total.Div(decimal.NewFromInt(int64(a.count))).InexactFloat64()
	}
	return b
}

// Analyze implements contracts.TemporalAnalyzer.
// Every trade lands in exactly one bucket of each grouping (close time, report-local).
func (a *Analyzer) Analyze(ledger *contracts.Ledger) contracts.TemporalReport {
	var (
		hours    [24]accumulator
		days     [7]accumulator // indexed by time.Weekday
		sessions = make(map[string]*accumulator)
		calendar = make(map[string]*accumulator)
	)
	names := a.sessions.Names()
	for _, name := range names {
		sessions[name] = &accumulator{}
	}

	if ledger != nil {
		for _, e := range ledger.Entries {
			ct := e.CloseTime
			hours[ct.Hour()].add(e)
			days[ct.Weekday()].add(e)
			sessions[a.sessions.Classify(ct.Hour())].add(e)

			key := ct.Format(DayLayout)
			acc, ok := calendar[key]
			if !ok {
				acc = &accumulator{}
				calendar[key] = acc
			}
			acc.add(e)
		}
	}

	report := contracts.TemporalReport{
		ByHour:    make([]contracts.TemporalBucket, 0, 24),
		ByWeekday: make([]contracts.TemporalBucket, 0, 7),
		BySession: make([]contracts.TemporalBucket, 0, len(names)),
		ByDay:     make([]contracts.TemporalBucket, 0, len(calendar)),
	}
	for h := 0; h < 24; h++ {
		report.ByHour = append(report.ByHour, hours[h].bucket(HourKey(h)))
	}
	for _, wd := range weekdays {
		report.ByWeekday = append(report.ByWeekday, days[wd].bucket(wd.String()))
	}
	for _, name := range names {
		report.BySession = append(report.BySession, sessions[name].bucket(name))
	}

	keys := make([]string, 0, len(calendar))
	for k := range calendar {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		report.ByDay = append(report.ByDay, calendar[k].bucket(k))
	}

	report.WorstDays = contracts.Worst(report.ByDay, WorstN)
	report.WorstSessions = contracts.Worst(report.BySession, WorstN)
	return report
}
