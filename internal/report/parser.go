// Package report normalizes broker backtest reports (HTML, CSV) into canonical trades.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wonny/riskreport/internal/contracts"
)

// Format is a report input format hint
type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format hint ("htm" is accepted as html)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "htm":
		return FormatHTML, nil
	case "csv", "txt", "tsv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", contracts.ErrUnsupportedFormat, s)
}

// FormatFromPath infers the format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", contracts.ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// registry: one constructor per format
// ⭐ SSOT: 새 포맷은 여기에 구현체만 등록
var registry = map[Format]func(HeaderMap) contracts.ReportParser{
	FormatHTML: func(aliases HeaderMap) contracts.ReportParser { return NewHTMLParser(aliases) },
	FormatCSV:  func(aliases HeaderMap) contracts.ReportParser { return NewCSVParser(aliases) },
}

// New returns the parser registered for format
func New(format Format, aliases HeaderMap) (contracts.ReportParser, error) {
	ctor, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", contracts.ErrUnsupportedFormat, format)
	}
	return ctor(aliases), nil
}

// Parse is New + Parse
func Parse(raw []byte, format Format, aliases HeaderMap) (*contracts.ParsedReport, error) {
	p, err := New(format, aliases)
	if err != nil {
		return nil, err
	}
	return p.Parse(raw)
}
