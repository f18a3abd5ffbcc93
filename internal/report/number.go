package report

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var errEmptyNumber = errors.New("empty number")

// ParseNumber parses a broker-formatted amount into an exact decimal.
// Handles currency symbols, thousands separators (",", ".", space, NBSP, apostrophe),
// comma or dot decimals, unicode minus and accounting parentheses.
func ParseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r == '−' || r == '–':
			return '-'
		case unicode.IsSpace(r) || r == '\u00a0' || r == '\u202f' || r == '\'' || r == '’':
			return -1
		}
		return r
	}, s)

	// 통화 기호/코드 제거 ($, €, USD, %)
	s = strings.TrimFunc(s, func(r rune) bool {
		return !(unicode.IsDigit(r) || r == '-' || r == '+' || r == '.' || r == ',')
	})
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign := s[0]
		rest := strings.TrimLeftFunc(s[1:], func(r rune) bool { return !unicode.IsDigit(r) && r != '.' && r != ',' })
		s = string(sign) + rest
	}
	if s == "" || s == "-" || s == "+" {
		return decimal.Zero, errEmptyNumber
	}

	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites s so that "." is the only (decimal) separator
func normalizeSeparators(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		// 마지막 구분자가 소수점
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		// "1,234" = thousands, "12,5" / "1,2345" = decimal comma
		if len(s)-strings.Index(s, ",")-1 == 3 {
			return strings.Replace(s, ",", "", 1)
		}
		return strings.Replace(s, ",", ".", 1)
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// parseFloat is ParseNumber for non-monetary columns (volume, price).
// Values like "0.1 / 0.1" keep the first part.
func parseFloat(s string) (float64, error) {
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	d, err := ParseNumber(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
