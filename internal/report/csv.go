package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/wonny/riskreport/internal/contracts"
)

const (
	// csvProbeRows is the number of rows inspected per delimiter candidate
	csvProbeRows = 10
	// csvMinColumns is the minimum recognized columns for a CSV header
	csvMinColumns = 2
)

var csvDelimiters = []rune{',', ';', '\t', '|'}

// CSVParser reads delimited trade logs
type CSVParser struct {
	aliases HeaderMap
}

// NewCSVParser creates a CSV parser; nil aliases = DefaultHeaderMap
func NewCSVParser(aliases HeaderMap) *CSVParser {
	if aliases == nil {
		aliases = DefaultHeaderMap()
	}
	return &CSVParser{aliases: aliases}
}

// Format implements contracts.ReportParser
func (p *CSVParser) Format() string { return string(FormatCSV) }

// Parse implements contracts.ReportParser
func (p *CSVParser) Parse(raw []byte) (*contracts.ParsedReport, error) {
	data, err := decodeInput(raw)
	if err != nil {
		return nil, schemaMismatch(FormatCSV, err.Error())
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, schemaMismatch(FormatCSV, "input is empty")
	}

	delim, headerIdx, ok := p.detectLayout(data)
	if !ok {
		return nil, schemaMismatch(FormatCSV, "no header row with time and profit columns")
	}

	records, err := readRecords(data, delim, -1)
	if err != nil {
		return nil, schemaMismatch(FormatCSV, err.Error())
	}

	header := records[headerIdx]
	cols := mapColumns(header, p.aliases)
	ex := extractTrades(cols, records[headerIdx+1:])
	return buildReport(FormatCSV, ex)
}

// detectLayout picks the delimiter whose probe rows agree on a column count
// and contain a header row; returns the header index among non-blank records.
func (p *CSVParser) detectLayout(data []byte) (rune, int, bool) {
	var (
		bestDelim  rune
		bestHeader int
		bestScore  = -1
	)

	for _, d := range csvDelimiters {
		probe, err := readRecords(data, d, csvProbeRows)
		if err != nil || len(probe) == 0 {
			continue
		}

		headerIdx := -1
		for i, rec := range probe {
			if len(rec) < 2 {
				continue
			}
			if mapColumns(rec, p.aliases).matches(csvMinColumns) {
				headerIdx = i
				break
			}
		}
		if headerIdx < 0 {
			continue
		}

		// 헤더와 같은 컬럼 수를 가진 행이 많을수록 일관성 높음
		width := len(probe[headerIdx])
		score := 0
		for _, rec := range probe[headerIdx:] {
			if len(rec) == width {
				score++
			}
		}
		score = score*1000 + width
		if score > bestScore {
			bestScore = score
			bestDelim = d
			bestHeader = headerIdx
		}
	}
	return bestDelim, bestHeader, bestScore >= 0
}

// readRecords reads up to limit non-blank records (limit < 0 = all)
func readRecords(data []byte, delim rune, limit int) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var out [][]string
	for limit < 0 || len(out) < limit {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if isBlankRow(rec) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
