package report

import (
	"fmt"
	"sort"
	"strings"
)

// Field is a canonical trade column
type Field string

const (
	FieldTicket     Field = "ticket"
	FieldOpenTime   Field = "open_time"
	FieldCloseTime  Field = "close_time"
	FieldTime       Field = "time" // generic: first occurrence = open, second = close
	FieldSymbol     Field = "symbol"
	FieldDirection  Field = "direction"
	FieldEntry      Field = "entry" // MT5 deal entry: in / out / inout
	FieldVolume     Field = "volume"
	FieldOpenPrice  Field = "open_price"
	FieldClosePrice Field = "close_price"
	FieldPrice      Field = "price" // generic: first occurrence = entry, second = exit
	FieldProfit     Field = "profit"
	FieldCommission Field = "commission"
	FieldSwap       Field = "swap"
	FieldComment    Field = "comment"
	FieldBalance    Field = "balance"
)

var knownFields = map[Field]bool{
	FieldTicket: true, FieldOpenTime: true, FieldCloseTime: true, FieldTime: true,
	FieldSymbol: true, FieldDirection: true, FieldEntry: true, FieldVolume: true, FieldOpenPrice: true,
	FieldClosePrice: true, FieldPrice: true, FieldProfit: true, FieldCommission: true,
	FieldSwap: true, FieldComment: true, FieldBalance: true,
}

// ParseField validates a canonical field name
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if !knownFields[f] {
		return "", fmt.Errorf("unknown trade field %q", s)
	}
	return f, nil
}

// HeaderMap maps normalized header text to canonical fields
// ⭐ SSOT: 헤더 별칭 매핑은 여기서만 (매칭되지 않는 헤더는 사용하지 않는 컬럼)
type HeaderMap map[string]Field

// DefaultHeaderMap returns the built-in aliases for MT4/MT5 and common CSV exports
func DefaultHeaderMap() HeaderMap {
	m := HeaderMap{}
	add := func(f Field, aliases ...string) {
		for _, a := range aliases {
			m[NormalizeHeader(a)] = f
		}
	}

	add(FieldTicket, "ticket", "order", "deal", "position", "position id", "trade id", "id", "#")
	add(FieldOpenTime, "open time", "opening time", "time open", "entry time", "open date", "opened")
	add(FieldCloseTime, "close time", "closing time", "time close", "exit time", "close date", "closed")
	add(FieldTime, "time", "date", "datetime", "date/time", "date time", "timestamp")
	add(FieldSymbol, "symbol", "instrument", "item", "market", "asset", "pair", "ticker")
	add(FieldDirection, "type", "side", "action", "buy/sell")
	add(FieldEntry, "direction", "entry", "in/out")
	add(FieldVolume, "volume", "size", "lots", "lot", "quantity", "qty", "units")
	add(FieldOpenPrice, "open price", "entry price", "price open", "opening price")
	add(FieldClosePrice, "close price", "exit price", "price close", "closing price")
	add(FieldPrice, "price")
	add(FieldProfit, "profit", "profit/loss", "profit loss", "p/l", "net p/l", "pnl", "p&l",
		"net profit", "realized p/l", "realized pnl", "gain", "result", "pl")
	add(FieldCommission, "commission", "commissions", "comm", "fee", "fees")
	add(FieldSwap, "swap", "swaps", "rollover", "financing", "storage")
	add(FieldComment, "comment", "comments", "note", "notes", "tag")
	add(FieldBalance, "balance", "running balance", "account balance")

	return m
}

// Lookup resolves a raw header cell
func (h HeaderMap) Lookup(header string) (Field, bool) {
	f, ok := h[NormalizeHeader(header)]
	return f, ok
}

// Clone returns an independent copy
func (h HeaderMap) Clone() HeaderMap {
	out := make(HeaderMap, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Merge adds extra aliases (alias -> canonical field name); extras win over defaults
func (h HeaderMap) Merge(extra map[string]string) error {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, alias := range keys {
		f, err := ParseField(extra[alias])
		if err != nil {
			return fmt.Errorf("alias %q: %w", alias, err)
		}
		norm := NormalizeHeader(alias)
		if norm == "" {
			return fmt.Errorf("alias for %s is empty", f)
		}
		h[norm] = f
	}
	return nil
}

// NormalizeHeader lowercases, collapses whitespace and drops trailing colons/dots
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.TrimRight(s, ":. ")
}

// =============================================================================
// Column mapping
// =============================================================================

// columns is the resolved field -> column index mapping of one header row
type columns struct {
	idx        map[Field]int
	recognized int
}

func mapColumns(header []string, aliases HeaderMap) columns {
	c := columns{idx: make(map[Field]int)}
	for i, cell := range header {
		f, ok := aliases.Lookup(cell)
		if !ok {
			continue
		}
		c.recognized++

		switch f {
		case FieldTime:
			c.assignPair(FieldOpenTime, FieldCloseTime, i)
		case FieldPrice:
			c.assignPair(FieldOpenPrice, FieldClosePrice, i)
		default:
			if _, dup := c.idx[f]; !dup {
				c.idx[f] = i
			}
		}
	}

	// 시간 컬럼이 하나뿐이면 체결(청산) 시각으로 사용
	if _, ok := c.idx[FieldCloseTime]; !ok {
		if i, ok := c.idx[FieldOpenTime]; ok {
			c.idx[FieldCloseTime] = i
		}
	}
	return c
}

func (c *columns) assignPair(first, second Field, i int) {
	if _, ok := c.idx[first]; !ok {
		c.idx[first] = i
		return
	}
	if _, ok := c.idx[second]; !ok {
		c.idx[second] = i
	}
}

func (c columns) get(f Field) (int, bool) {
	i, ok := c.idx[f]
	return i, ok
}

// matches reports whether the header carries time + profit and at least minRecognized known columns
func (c columns) matches(minRecognized int) bool {
	_, hasTime := c.idx[FieldCloseTime]
	_, hasProfit := c.idx[FieldProfit]
	return hasTime && hasProfit && c.recognized >= minRecognized
}

// cell returns the trimmed value of field f in row, "" when absent
func (c columns) cell(row []string, f Field) string {
	i, ok := c.idx[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
