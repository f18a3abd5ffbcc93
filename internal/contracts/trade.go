package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a closed position
type Direction string

const (
	DirectionLong    Direction = "long"
	DirectionShort   Direction = "short"
	DirectionUnknown Direction = "unknown"
)

// Sign returns +1 for long, -1 for short and 0 when the side is unknown
func (d Direction) Sign() int {
	switch d {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	default:
		return 0
	}
}

// Opposite returns the other side; unknown stays unknown
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionLong:
		return DirectionShort
	case DirectionShort:
		return DirectionLong
	default:
		return DirectionUnknown
	}
}

// Trade represents one closed position taken from a broker report
// ⭐ SSOT: 리포트 파서 → 원장 빌더 간 거래 정보 전달
// Timestamps are timezone-naive broker-local times stored as UTC.
type Trade struct {
	Ticket     string          `json:"ticket,omitempty"`
	OpenTime   time.Time       `json:"open_time"`
	CloseTime  time.Time       `json:"close_time"`
	Symbol     string          `json:"symbol,omitempty"`
	Direction  Direction       `json:"direction"`
	Volume     float64         `json:"volume"`
	EntryPrice float64         `json:"entry_price"`
	ExitPrice  float64         `json:"exit_price"`
	Profit     decimal.Decimal `json:"profit"`
	Commission decimal.Decimal `json:"commission"`
	Swap       decimal.Decimal `json:"swap"`
	Comment    string          `json:"comment,omitempty"`

	// Row is the 1-based data row index in the source report (tiebreak for ordering)
	Row int `json:"row"`
}

// IsWin reports whether the trade closed with a positive profit
func (t Trade) IsWin() bool {
	return t.Profit.IsPositive()
}

// IsLoss reports whether the trade closed with a negative profit
func (t Trade) IsLoss() bool {
	return t.Profit.IsNegative()
}

// ProfitFloat returns the profit as float64 for statistics
func (t Trade) ProfitFloat() float64 {
	return t.Profit.InexactFloat64()
}

// Holding returns the holding duration of the position
func (t Trade) Holding() time.Duration {
	return t.CloseTime.Sub(t.OpenTime)
}
