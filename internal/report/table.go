package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/riskreport/internal/contracts"
)

// summaryKeywords mark footer/summary rows inside a trade table
var summaryKeywords = []string{
	"total", "summary", "subtotal", "net profit", "gross", "profit factor",
	"balance:", "equity", "deposit", "withdrawal", "closed p/l", "results",
}

// nonTradeTypes are cash movements listed alongside trades (MT4 statements)
var nonTradeTypes = map[string]bool{
	"balance": true, "deposit": true, "withdrawal": true, "credit": true,
}

// extraction is the result of walking the body rows of one trade table
type extraction struct {
	trades   []contracts.Trade
	warnings []contracts.ParseWarning
	dataRows int
	deposit  *decimal.Decimal // sum of balance/deposit rows
	implied  *decimal.Decimal // first balance - first profit
	legs     openLegs
}

// Deal entry of MT5 deal tables
const (
	entryNone  = ""
	entryIn    = "in"
	entryOut   = "out"
	entryInOut = "inout"
)

// parseEntry normalizes a deal entry cell; values that are not an entry marker give entryNone
func parseEntry(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch s {
	case "in":
		return entryIn
	case "out", "outby":
		return entryOut
	case "inout", "in/out":
		return entryInOut
	}
	return entryNone
}

// openLeg is an opening deal waiting for its closing deal
type openLeg struct {
	time      time.Time
	price     float64
	direction contracts.Direction
}

// openLegs queues opening deals per symbol, closed first-in first-out
type openLegs map[string][]openLeg

func (o openLegs) push(symbol string, leg openLeg) {
	o[symbol] = append(o[symbol], leg)
}

func (o openLegs) pop(symbol string) (openLeg, bool) {
	q := o[symbol]
	if len(q) == 0 {
		return openLeg{}, false
	}
	leg := q[0]
	o[symbol] = q[1:]
	return leg, true
}

// extractTrades maps body rows under header to canonical trades.
// Deal tables (entry column) yield one trade per closing deal; opening deals only supply
// open time, entry price and side.
// ⭐ SSOT: HTML/CSV 공용 행 처리 (포맷별 파서는 헤더/행 추출만 담당)
func extractTrades(cols columns, rows [][]string) extraction {
	ex := extraction{legs: openLegs{}}

	for i, row := range rows {
		rowNum := i + 1
		if isBlankRow(row) {
			continue
		}

		kind := strings.ToLower(cols.cell(row, FieldDirection))
		if nonTradeTypes[kind] {
			if amount, err := ParseNumber(cols.cell(row, FieldProfit)); err == nil {
				sum := amount
				if ex.deposit != nil {
					sum = ex.deposit.Add(amount)
				}
				ex.deposit = &sum
			}
			continue
		}
		if isSummaryRow(cols, row) {
			continue
		}

		entry := parseEntry(cols.cell(row, FieldEntry))
		trade, balance, warn := parseTradeRow(cols, row, rowNum)
		if entry == entryIn {
			// 진입 딜: 거래가 아니라 포지션 시작 정보
			if warn != nil {
				ex.dataRows++
				ex.warnings = append(ex.warnings, *warn)
				continue
			}
			ex.legs.push(trade.Symbol, openLeg{
				time:      trade.CloseTime,
				price:     trade.EntryPrice,
				direction: trade.Direction,
			})
			continue
		}

		ex.dataRows++
		if warn != nil {
			ex.warnings = append(ex.warnings, *warn)
			continue
		}
		if entry == entryOut || entry == entryInOut {
			trade = ex.closeDeal(trade, entry)
		}
		if balance != nil && ex.implied == nil {
			implied := balance.Sub(trade.Profit)
			ex.implied = &implied
		}
		ex.trades = append(ex.trades, trade)
	}

	sortTrades(ex.trades)
	return ex
}

// closeDeal turns a closing deal into a closed position.
// The deal price is the exit price and the deal type is the opposite of the position side.
func (ex *extraction) closeDeal(deal contracts.Trade, entry string) contracts.Trade {
	t := deal
	if t.ExitPrice == 0 {
		t.ExitPrice = t.EntryPrice
		t.EntryPrice = 0
	}
	t.Direction = deal.Direction.Opposite()

	if leg, ok := ex.legs.pop(deal.Symbol); ok {
		if !leg.time.After(t.CloseTime) {
			t.OpenTime = leg.time
		}
		t.EntryPrice = leg.price
		if leg.direction != contracts.DirectionUnknown {
			t.Direction = leg.direction
		}
	}

	// 반대 포지션 진입 (reversal)
	if entry == entryInOut {
		ex.legs.push(deal.Symbol, openLeg{
			time:      deal.CloseTime,
			price:     t.ExitPrice,
			direction: deal.Direction,
		})
	}
	return t
}

// parseTradeRow returns the trade, the optional running balance cell and a warning when the row is rejected
func parseTradeRow(cols columns, row []string, rowNum int) (contracts.Trade, *decimal.Decimal, *contracts.ParseWarning) {
	reject := func(kind contracts.WarningKind, f Field, value string) (contracts.Trade, *decimal.Decimal, *contracts.ParseWarning) {
		return contracts.Trade{}, nil, &contracts.ParseWarning{
			Row:     rowNum,
			Kind:    kind,
			Field:   string(f),
			Value:   value,
			Skipped: true,
		}
	}

	t := contracts.Trade{
		Ticket:  cols.cell(row, FieldTicket),
		Symbol:  cols.cell(row, FieldSymbol),
		Comment: cols.cell(row, FieldComment),
		Row:     rowNum,
	}
	t.Direction = parseDirection(cols.cell(row, FieldDirection))
	if t.Direction == contracts.DirectionUnknown && parseEntry(cols.cell(row, FieldEntry)) == entryNone {
		// "Direction" 컬럼이 buy/sell(long/short)을 담는 CSV
		t.Direction = parseDirection(cols.cell(row, FieldEntry))
	}

	// 시간
	raw := cols.cell(row, FieldCloseTime)
	closeTime, err := ParseTimestamp(raw)
	if err != nil {
		return reject(contracts.WarnUnparsableTimestamp, FieldCloseTime, raw)
	}
	t.CloseTime = closeTime
	t.OpenTime = closeTime
	if openIdx, ok := cols.get(FieldOpenTime); ok {
		if closeIdx, _ := cols.get(FieldCloseTime); openIdx != closeIdx {
			raw = cols.cell(row, FieldOpenTime)
			if raw != "" {
				openTime, err := ParseTimestamp(raw)
				if err != nil {
					return reject(contracts.WarnUnparsableTimestamp, FieldOpenTime, raw)
				}
				t.OpenTime = openTime
			}
		}
	}
	if t.CloseTime.Before(t.OpenTime) {
		return reject(contracts.WarnInvalidTimeOrder, FieldCloseTime, cols.cell(row, FieldCloseTime))
	}

	// 금액 (정확한 decimal)
	raw = cols.cell(row, FieldProfit)
	profit, err := ParseNumber(raw)
	if err != nil {
		return reject(contracts.WarnUnparsableNumber, FieldProfit, raw)
	}
	t.Profit = profit

	for _, f := range []Field{FieldCommission, FieldSwap} {
		raw = cols.cell(row, f)
		if raw == "" {
			continue
		}
		v, err := ParseNumber(raw)
		if err != nil {
			return reject(contracts.WarnUnparsableNumber, f, raw)
		}
		if f == FieldCommission {
			t.Commission = v
		} else {
			t.Swap = v
		}
	}

	// 수량/가격 (optional)
	for _, f := range []Field{FieldVolume, FieldOpenPrice, FieldClosePrice} {
		raw = cols.cell(row, f)
		if raw == "" {
			continue
		}
		v, err := parseFloat(raw)
		if err != nil {
			return reject(contracts.WarnUnparsableNumber, f, raw)
		}
		switch f {
		case FieldVolume:
			t.Volume = v
		case FieldOpenPrice:
			t.EntryPrice = v
		case FieldClosePrice:
			t.ExitPrice = v
		}
	}

	var balance *decimal.Decimal
	if raw = cols.cell(row, FieldBalance); raw != "" {
		if b, err := ParseNumber(raw); err == nil {
			balance = &b
		}
	}
	return t, balance, nil
}

func parseDirection(s string) contracts.Direction {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "buy"), strings.Contains(s, "long"):
		return contracts.DirectionLong
	case strings.Contains(s, "sell"), strings.Contains(s, "short"):
		return contracts.DirectionShort
	default:
		return contracts.DirectionUnknown
	}
}

// isSummaryRow detects footer rows: no timestamp at all, too few cells,
// or an unparsable timestamp next to a summary keyword.
func isSummaryRow(cols columns, row []string) bool {
	nonEmpty := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return true
	}

	raw := cols.cell(row, FieldCloseTime)
	if raw == "" {
		return true
	}
	if _, err := ParseTimestamp(raw); err == nil {
		return false
	}
	text := strings.ToLower(strings.Join(row, " "))
	for _, kw := range summaryKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// sortTrades orders by close time, then source row
func sortTrades(trades []contracts.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		if !trades[i].CloseTime.Equal(trades[j].CloseTime) {
			return trades[i].CloseTime.Before(trades[j].CloseTime)
		}
		return trades[i].Row < trades[j].Row
	})
}

// buildReport turns an extraction into a ParsedReport or an EmptyLedger error
func buildReport(format Format, ex extraction) (*contracts.ParsedReport, error) {
	if ex.dataRows > 0 && len(ex.trades) == 0 {
		return nil, &contracts.ParseError{
			Kind:     contracts.ErrEmptyLedger,
			Format:   string(format),
			Detail:   fmt.Sprintf("all %d trade rows were rejected", ex.dataRows),
			Warnings: ex.warnings,
		}
	}

	res := &contracts.ParsedReport{
		Format:   string(format),
		Trades:   ex.trades,
		Warnings: ex.warnings,
		DataRows: ex.dataRows,
	}
	if res.Trades == nil {
		res.Trades = []contracts.Trade{}
	}
	switch {
	case ex.implied != nil:
		res.ImpliedBalance = ex.implied
	case ex.deposit != nil && ex.deposit.IsPositive():
		res.ImpliedBalance = ex.deposit
	}
	return res, nil
}

func schemaMismatch(format Format, detail string) error {
	return &contracts.ParseError{
		Kind:   contracts.ErrSchemaMismatch,
		Format: string(format),
		Detail: detail,
	}
}
