package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/wonny/riskreport/internal/contracts"
)

const tenTradesCSV = `Ticket,Open Time,Close Time,Symbol,Type,Volume,Open Price,Close Price,Commission,Swap,Profit
1,2024.01.02 09:00,2024.01.02 10:00,EURUSD,buy,0.10,1.1000,1.1100,0,0,100.00
2,2024.01.02 11:00,2024.01.02 12:00,EURUSD,sell,0.10,1.1050,1.1100,0,0,-50.00
3,2024.01.03 09:00,2024.01.03 15:00,GBPUSD,buy,0.20,1.2500,1.2600,0,0,200.00
4,2024.01.04 09:00,2024.01.04 10:00,EURUSD,buy,0.10,1.1000,1.0970,0,0,-30.00
5,2024.01.05 09:00,2024.01.05 10:00,USDJPY,sell,0.10,145.00,144.20,0,0,80.00
6,2024.01.08 09:00,2024.01.08 10:00,EURUSD,buy,0.10,1.1000,1.0880,0,0,-120.00
7,2024.01.09 09:00,2024.01.09 10:00,EURUSD,buy,0.10,1.1000,1.1060,0,0,60.00
8,2024.01.10 09:00,2024.01.10 10:00,EURUSD,buy,0.10,1.1000,1.1040,0,0,40.00
9,2024.01.11 09:00,2024.01.11 10:00,EURUSD,sell,0.10,1.1000,1.1020,0,0,-20.00
10,2024.01.12 09:00,2024.01.12 10:00,EURUSD,buy,0.10,1.1000,1.1090,0,0,90.00
`

func profitsOf(trades []contracts.Trade) []string {
	out := make([]string, len(trades))
	for i, tr := range trades {
		out[i] = tr.Profit.String()
	}
	return out
}

func TestCSVParser_TenTrades(t *testing.T) {
	res, err := NewCSVParser(nil).Parse([]byte(tenTradesCSV))
	require.NoError(t, err)

	assert.Equal(t, "csv", res.Format)
	assert.Equal(t, 10, res.DataRows)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Trades, 10)
	assert.Equal(t, []string{"100", "-50", "200", "-30", "80", "-120", "60", "40", "-20", "90"}, profitsOf(res.Trades))

	first := res.Trades[0]
	assert.Equal(t, "1", first.Ticket)
	assert.Equal(t, "EURUSD", first.Symbol)
	assert.Equal(t, contracts.DirectionLong, first.Direction)
	assert.InDelta(t, 0.1, first.Volume, 1e-12)
	assert.InDelta(t, 1.1, first.EntryPrice, 1e-12)
	assert.InDelta(t, 1.11, first.ExitPrice, 1e-12)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), first.OpenTime)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), first.CloseTime)
	assert.Equal(t, contracts.DirectionShort, res.Trades[1].Direction)
	assert.Nil(t, res.ImpliedBalance)
}

func TestCSVParser_UnparsableTimestampsAreWarnings(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(tenTradesCSV), "\n")
	lines[3] = strings.Replace(lines[3], "2024.01.03 15:00", "not-a-date", 1)
	lines[7] = strings.Replace(lines[7], "2024.01.09 10:00", "31/31/2024 99:99", 1)

	res, err := NewCSVParser(nil).Parse([]byte(strings.Join(lines, "\n")))
	require.NoError(t, err)

	assert.Len(t, res.Trades, 8)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, 3, res.Warnings[0].Row)
	assert.Equal(t, 7, res.Warnings[1].Row)
	for _, w := range res.Warnings {
		assert.Equal(t, contracts.WarnUnparsableTimestamp, w.Kind)
		assert.True(t, w.Skipped)
		assert.ErrorIs(t, w.Err(), contracts.ErrUnparsableTimestamp)
	}
	assert.Equal(t, 2, contracts.SkippedRows(res.Warnings))
}

func TestCSVParser_RowWarnings(t *testing.T) {
	input := `Open Time,Close Time,Profit,Commission
2024.01.02 09:00,2024.01.02 10:00,12.5,-1
2024.01.02 09:00,2024.01.02 10:00,abc,0
2024.01.02 11:00,2024.01.02 10:00,5,0
2024.01.02 09:00,2024.01.02 10:00,7,??
`
	res, err := NewCSVParser(nil).Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "-1", res.Trades[0].Commission.String())

	require.Len(t, res.Warnings, 3)
	assert.Equal(t, contracts.WarnUnparsableNumber, res.Warnings[0].Kind)
	assert.Equal(t, "profit", res.Warnings[0].Field)
	assert.Equal(t, "abc", res.Warnings[0].Value)
	assert.Equal(t, contracts.WarnInvalidTimeOrder, res.Warnings[1].Kind)
	assert.Equal(t, contracts.WarnUnparsableNumber, res.Warnings[2].Kind)
	assert.Equal(t, "commission", res.Warnings[2].Field)
}

func TestCSVParser_Delimiters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "semicolon with decimal comma",
			input: "Time;Symbol;Profit\n2024.01.02 10:00;EURUSD;12,50\n2024.01.02 11:00;EURUSD;-1.234,50\n",
			want:  []string{"12.5", "-1234.5"},
		},
		{
			name:  "tab",
			input: "Close Time\tSymbol\tP/L\n2024-01-02 10:00:00\tEURUSD\t10\n",
			want:  []string{"10"},
		},
		{
			name:  "pipe",
			input: "date|net profit\n2024-01-02|5\n2024-01-03|-5\n",
			want:  []string{"5", "-5"},
		},
		{
			name:  "preamble before header",
			input: "Account 12345\nGenerated 2024-02-01\nTime,Profit\n2024-01-02 10:00,3\n",
			want:  []string{"3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewCSVParser(nil).Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, profitsOf(res.Trades))
		})
	}
}

func TestCSVParser_SummaryRowsSkipped(t *testing.T) {
	input := `Time,Symbol,Profit
2024.01.02 10:00,EURUSD,100
2024.01.02 11:00,EURUSD,-40
Total,,60
,,
`
	res, err := NewCSVParser(nil).Parse([]byte(input))
	require.NoError(t, err)
	assert.Len(t, res.Trades, 2)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 2, res.DataRows)
}

func TestCSVParser_StableOrdering(t *testing.T) {
	input := `Ticket,Close Time,Profit
a,2024.01.02 12:00,1
b,2024.01.02 10:00,2
c,2024.01.02 12:00,3
d,2024.01.02 10:00,4
`
	res, err := NewCSVParser(nil).Parse([]byte(input))
	require.NoError(t, err)

	tickets := make([]string, len(res.Trades))
	for i, tr := range res.Trades {
		tickets[i] = tr.Ticket
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, tickets)
}

func TestCSVParser_ImpliedBalance(t *testing.T) {
	input := `Time,Profit,Balance
2024.01.02 10:00,100,10100
2024.01.02 11:00,-50,10050
`
	res, err := NewCSVParser(nil).Parse([]byte(input))
	require.NoError(t, err)
	require.NotNil(t, res.ImpliedBalance)
	assert.Equal(t, "10000", res.ImpliedBalance.String())
}

func TestCSVParser_StructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
	}{
		{"empty input", "", contracts.ErrSchemaMismatch},
		{"no profit column", "Time,Symbol\n2024-01-02,EURUSD\n", contracts.ErrSchemaMismatch},
		{"unknown columns", "foo,bar\n1,2\n", contracts.ErrSchemaMismatch},
		{"every row rejected", "Time,Profit\nsoon,1\nlater,2\n", contracts.ErrEmptyLedger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVParser(nil).Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var perr *contracts.ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "csv", perr.Format)
		})
	}
}

func TestCSVParser_EmptyLedgerCarriesWarnings(t *testing.T) {
	_, err := NewCSVParser(nil).Parse([]byte("Time,Profit\nsoon,1\nlater,2\n"))

	var perr *contracts.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Len(t, perr.Warnings, 2)
}

func TestCSVParser_HeaderOnlyIsEmptySuccess(t *testing.T) {
	res, err := NewCSVParser(nil).Parse([]byte("Time,Symbol,Profit\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.NotNil(t, res.Trades)
	assert.Equal(t, 0, res.DataRows)
}

func TestCSVParser_CustomAliases(t *testing.T) {
	aliases := DefaultHeaderMap()
	require.NoError(t, aliases.Merge(map[string]string{"Zeit": "close_time", "Ergebnis": "profit"}))

	res, err := NewCSVParser(aliases).Parse([]byte("Zeit;Ergebnis\n02.01.2024 10:00;12,5\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"12.5"}, profitsOf(res.Trades))
}

func TestCSVParser_Encodings(t *testing.T) {
	const input = "Time,Symbol,Profit\n2024.01.02 10:00,EUR€,10\n"

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(input))
	require.NoError(t, err)
	cp1252, err := charmap.Windows1252.NewEncoder().Bytes([]byte(input))
	require.NoError(t, err)
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, input...)

	for name, raw := range map[string][]byte{"utf16": utf16, "cp1252": cp1252, "utf8 bom": withBOM} {
		t.Run(name, func(t *testing.T) {
			res, err := NewCSVParser(nil).Parse(raw)
			require.NoError(t, err)
			require.Len(t, res.Trades, 1)
			assert.Equal(t, "EUR€", res.Trades[0].Symbol)
		})
	}
}

func TestCSVParser_DealEntries(t *testing.T) {
	input := `Time,Symbol,Type,Entry,Price,Profit
2024.02.01 09:00,EURUSD,buy,in,1.1000,0
2024.02.01 09:30,EURUSD,buy,in,1.1010,0
2024.02.01 10:00,EURUSD,sell,out,1.1050,50
2024.02.01 11:00,EURUSD,sell,inout,1.1020,10
2024.02.01 12:00,EURUSD,buy,out,1.1000,20
2024.02.02 12:00,GBPUSD,sell,out,1.2500,-5
`
	res, err := NewCSVParser(nil).Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, res.Trades, 4)
	assert.Equal(t, []string{"50", "10", "20", "-5"}, profitsOf(res.Trades))
	assert.Equal(t, 4, res.DataRows)

	tests := []struct {
		name  string
		trade contracts.Trade
		open  string
		side  contracts.Direction
		entry float64
		exit  float64
	}{
		{"first in closes first", res.Trades[0], "2024-02-01 09:00", contracts.DirectionLong, 1.1, 1.105},
		{"reversal closes second in", res.Trades[1], "2024-02-01 09:30", contracts.DirectionLong, 1.101, 1.102},
		{"reversal opened a short", res.Trades[2], "2024-02-01 11:00", contracts.DirectionShort, 1.102, 1.1},
		{"unmatched out keeps deal time", res.Trades[3], "2024-02-02 12:00", contracts.DirectionLong, 0, 1.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, err := time.Parse("2006-01-02 15:04", tt.open)
			require.NoError(t, err)
			assert.Equal(t, open, tt.trade.OpenTime)
			assert.Equal(t, tt.side, tt.trade.Direction)
			assert.InDelta(t, tt.entry, tt.trade.EntryPrice, 1e-12)
			assert.InDelta(t, tt.exit, tt.trade.ExitPrice, 1e-12)
		})
	}
}

func TestCSVParser_DirectionColumnAsSide(t *testing.T) {
	input := "Close Time,Direction,Profit\n2024.02.01 10:00,Long,5\n2024.02.01 11:00,short,-3\n"
	res, err := NewCSVParser(nil).Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)
	assert.Equal(t, contracts.DirectionLong, res.Trades[0].Direction)
	assert.Equal(t, contracts.DirectionShort, res.Trades[1].Direction)
}
