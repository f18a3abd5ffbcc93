package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a trade plus the fields derived by the ledger builder
type LedgerEntry struct {
	Trade

	Index        int             `json:"index"`         // position in the ledger (0-based)
	Return       float64         `json:"return"`        // profit / balance before the trade
	Holding      time.Duration   `json:"holding"`       // close - open
	Session      string          `json:"session"`       // session of the close time
	BalanceAfter decimal.Decimal `json:"balance_after"` // running balance after this trade
}

// Ledger is the canonical trade history of one report
// ⭐ SSOT: 원장은 분석 세션의 단일 진실 공급원, 하위 컴포넌트는 읽기 전용
// Invariant: len(Balance) == len(Entries)+1 and Balance[i+1] == Balance[i] + Entries[i].Profit.
type Ledger struct {
	InitialBalance decimal.Decimal   `json:"initial_balance"`
	Entries        []LedgerEntry     `json:"entries"`
	Balance        []decimal.Decimal `json:"balance"`
	Warnings       []ParseWarning    `json:"warnings"`
}

// Len returns the number of trades
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Entries)
}

// Empty reports whether the ledger has no trades
func (l *Ledger) Empty() bool {
	return l.Len() == 0
}

// FinalBalance returns the last running balance
func (l *Ledger) FinalBalance() decimal.Decimal {
	if l == nil || len(l.Balance) == 0 {
		return decimal.Zero
	}
	return l.Balance[len(l.Balance)-1]
}

// NetProfit returns final balance minus initial balance
func (l *Ledger) NetProfit() decimal.Decimal {
	if l == nil {
		return decimal.Zero
	}
	return l.FinalBalance().Sub(l.InitialBalance)
}

// Profits returns per-trade profits in ledger order
func (l *Ledger) Profits() []float64 {
	out := make([]float64, l.Len())
	if l == nil {
		return out
	}
	for i, e := range l.Entries {
		out[i] = e.ProfitFloat()
	}
	return out
}

// Returns returns per-trade returns in ledger order
func (l *Ledger) Returns() []float64 {
	out := make([]float64, l.Len())
	if l == nil {
		return out
	}
	for i, e := range l.Entries {
		out[i] = e.Return
	}
	return out
}

// BalanceFloat returns the running balance series including the baseline
func (l *Ledger) BalanceFloat() []float64 {
	if l == nil {
		return nil
	}
	out := make([]float64, len(l.Balance))
	for i, b := range l.Balance {
		out[i] = b.InexactFloat64()
	}
	return out
}

// Span returns the first open time and last close time of the ledger
func (l *Ledger) Span() (time.Time, time.Time) {
	if l.Empty() {
		return time.Time{}, time.Time{}
	}
	first := l.Entries[0].OpenTime
	last := l.Entries[0].CloseTime
	for _, e := range l.Entries[1:] {
		if e.OpenTime.Before(first) {
			first = e.OpenTime
		}
		if e.CloseTime.After(last) {
			last = e.CloseTime
		}
	}
	return first, last
}
