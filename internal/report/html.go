package report

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/riskreport/internal/contracts"
)

const (
	// htmlMaxTables bounds the candidate tables searched for a trade history
	htmlMaxTables = 64
	// htmlMinColumns is the minimum recognized columns for a table header
	htmlMinColumns = 3
)

// HTMLParser reads broker HTML reports (MT4/MT5 statements and strategy tester reports)
type HTMLParser struct {
	aliases HeaderMap
}

// NewHTMLParser creates an HTML parser; nil aliases = DefaultHeaderMap
func NewHTMLParser(aliases HeaderMap) *HTMLParser {
	if aliases == nil {
		aliases = DefaultHeaderMap()
	}
	return &HTMLParser{aliases: aliases}
}

// Format implements contracts.ReportParser
func (p *HTMLParser) Format() string { return string(FormatHTML) }

// htmlRow is one visible table row after colspan expansion
type htmlRow struct {
	cells   []string
	rawLen  int  // cell count before colspan expansion
	allHead bool // every cell is a <th>
}

// Parse implements contracts.ReportParser
func (p *HTMLParser) Parse(raw []byte) (*contracts.ParsedReport, error) {
	data, err := decodeInput(raw)
	if err != nil {
		return nil, schemaMismatch(FormatHTML, err.Error())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, schemaMismatch(FormatHTML, "parse html: "+err.Error())
	}

	header, body, ok := p.findTradeTable(doc)
	if !ok {
		return nil, schemaMismatch(FormatHTML, "no table with a trade history header")
	}

	cols := mapColumns(header, p.aliases)
	ex := extractTrades(cols, body)
	res, err := buildReport(FormatHTML, ex)
	if err != nil {
		return nil, err
	}

	// 리포트 요약 (Initial Deposit 등)
	summary, deposit := extractSummary(doc)
	if len(summary) > 0 {
		res.Summary = summary
	}
	if deposit != nil && deposit.IsPositive() {
		res.ImpliedBalance = deposit
	}
	return res, nil
}

// findTradeTable returns the first header row matching the trade signature and its section rows
func (p *HTMLParser) findTradeTable(doc *goquery.Document) ([]string, [][]string, bool) {
	var (
		header []string
		body   [][]string
		found  bool
	)

	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		if i >= htmlMaxTables {
			return false
		}

		rows := tableRows(table)
		for h, row := range rows {
			if !mapColumns(row.cells, p.aliases).matches(htmlMinColumns) {
				continue
			}
			header = row.cells
			body = sectionRows(rows[h+1:], len(header))
			found = true
			return false
		}
		return true
	})
	return header, body, found
}

// sectionRows collects rows until the next section (a <th> row or a row much narrower than the header)
func sectionRows(rows []htmlRow, width int) [][]string {
	var out [][]string
	for _, row := range rows {
		if row.allHead || row.rawLen*2 < width {
			break
		}
		out = append(out, row.cells)
	}
	return out
}

// tableRows returns the visible rows that belong directly to table (not nested tables)
func tableRows(table *goquery.Selection) []htmlRow {
	var rows []htmlRow
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !tr.Closest("table").IsSelection(table) {
			return
		}

		row := htmlRow{allHead: true}
		tr.Children().Filter("td, th").Each(func(_ int, cell *goquery.Selection) {
			if isHidden(cell) {
				return
			}
			if !cell.Is("th") {
				row.allHead = false
			}
			row.rawLen++

			text := strings.TrimSpace(cell.Text())
			row.cells = append(row.cells, text)
			// colspan 확장 (컬럼 인덱스 정렬 유지)
			if span, err := strconv.Atoi(cell.AttrOr("colspan", "1")); err == nil && span > 1 {
				for k := 1; k < span; k++ {
					row.cells = append(row.cells, "")
				}
			}
		})
		if row.rawLen == 0 {
			return
		}
		rows = append(rows, row)
	})
	return rows
}

// isHidden reports cells that MT5 reports keep in the DOM but do not display
func isHidden(cell *goquery.Selection) bool {
	if cell.HasClass("hidden") {
		return true
	}
	style := strings.ToLower(strings.ReplaceAll(cell.AttrOr("style", ""), " ", ""))
	return strings.Contains(style, "display:none")
}
