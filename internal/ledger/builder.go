// Package ledger derives the canonical trade ledger from parsed report trades.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/riskreport/internal/contracts"
)

// DefaultInitialBalance is used when neither the caller nor the report supplies one
var DefaultInitialBalance = decimal.NewFromInt(10000)

// DefaultTolerance is the gross P/L (account currency) below which the sign check is skipped
const DefaultTolerance = 0.01

// Options configures ledger derivation
type Options struct {
	InitialBalance *decimal.Decimal       // nil = report-implied, else DefaultInitialBalance
	Sessions       contracts.SessionTable // nil = contracts.DefaultSessions()
	Tolerance      float64                // <=0 = DefaultTolerance
}

// Builder builds ledgers
type Builder struct {
	opts Options
}

// NewBuilder validates options and fills defaults
func NewBuilder(opts Options) (*Builder, error) {
	if opts.Sessions == nil {
		opts.Sessions = contracts.DefaultSessions()
	}
	if err := opts.Sessions.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session table: %w", err)
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.InitialBalance != nil && opts.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("initial balance must not be negative: %s", opts.InitialBalance)
	}
	return &Builder{opts: opts}, nil
}

// InitialBalance resolves the starting balance: option, then report-implied, then default
func (b *Builder) InitialBalance(parsed *contracts.ParsedReport) decimal.Decimal {
	switch {
	case b.opts.InitialBalance != nil:
		return *b.opts.InitialBalance
	case parsed != nil && parsed.ImpliedBalance != nil && parsed.ImpliedBalance.IsPositive():
		return *parsed.ImpliedBalance
	default:
		return DefaultInitialBalance
	}
}

// Build derives the ledger of a parsed report; parser warnings are carried over
func (b *Builder) Build(parsed *contracts.ParsedReport) *contracts.Ledger {
	var trades []contracts.Trade
	var warnings []contracts.ParseWarning
	if parsed != nil {
		trades = parsed.Trades
		warnings = parsed.Warnings
	}

	l := b.FromTrades(trades, b.InitialBalance(parsed))
	l.Warnings = mergeWarnings(warnings, l.Warnings)
	return l
}

// FromTrades derives a ledger from trades and an explicit initial balance.
// ⭐ SSOT: 잔고 시계열은 decimal 누적 (sum(profit) == final - initial 정확히 성립)
func (b *Builder) FromTrades(trades []contracts.Trade, initial decimal.Decimal) *contracts.Ledger {
	sorted := make([]contracts.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CloseTime.Equal(sorted[j].CloseTime) {
			return sorted[i].CloseTime.Before(sorted[j].CloseTime)
		}
		return sorted[i].Row < sorted[j].Row
	})

	l := &contracts.Ledger{
		InitialBalance: initial,
		Entries:        make([]contracts.LedgerEntry, len(sorted)),
		Balance:        make([]decimal.Decimal, len(sorted)+1),
		Warnings:       []contracts.ParseWarning{},
	}
	l.Balance[0] = initial

	for i, t := range sorted {
		prev := l.Balance[i]
		next := prev.Add(t.Profit)
		l.Balance[i+1] = next

		var ret float64
		if prev.IsPositive() {
			ret = t.Profit.Div(prev).InexactFloat64()
		}

		l.Entries[i] = contracts.LedgerEntry{
			Trade:        t,
			Index:        i,
			Return:       ret,
			Holding:      t.Holding(),
			Session:      b.opts.Sessions.Classify(t.CloseTime.Hour()),
			BalanceAfter: next,
		}

		if w, ok := b.checkSign(t); ok {
			l.Warnings = append(l.Warnings, w)
		}
	}
	return l
}

// checkSign flags trades whose gross P/L contradicts direction and price move.
// The trade is kept; only a warning is recorded.
func (b *Builder) checkSign(t contracts.Trade) (contracts.ParseWarning, bool) {
	dir := t.Direction.Sign()
	if dir == 0 || t.EntryPrice <= 0 || t.ExitPrice <= 0 {
		return contracts.ParseWarning{}, false
	}
	move := float64(dir) * (t.ExitPrice - t.EntryPrice)
	if move == 0 {
		return contracts.ParseWarning{}, false
	}

	// 비용(커미션/스왑) 제외한 가격 손익
	gross := t.Profit.Sub(t.Commission).Sub(t.Swap).InexactFloat64()
	if gross > -b.opts.Tolerance && gross < b.opts.Tolerance {
		return contracts.ParseWarning{}, false
	}
	if (gross > 0) == (move > 0) {
		return contracts.ParseWarning{}, false
	}
	return contracts.ParseWarning{
		Row:   t.Row,
		Kind:  contracts.WarnProfitSignMismatch,
		Field: "profit",
		Value: t.Profit.String(),
	}, true
}

func mergeWarnings(parsed, derived []contracts.ParseWarning) []contracts.ParseWarning {
	out := make([]contracts.ParseWarning, 0, len(parsed)+len(derived))
	out = append(out, parsed...)
	out = append(out, derived...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}
