package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch means the report structure was not recognized; nothing is computable
	ErrSchemaMismatch = errors.New("report schema mismatch")
	// ErrUnparsableTimestamp marks a row whose timestamp matched no known format
	ErrUnparsableTimestamp = errors.New("unparsable timestamp")
	// ErrUnparsableNumber marks a row with a malformed numeric cell
	ErrUnparsableNumber = errors.New("unparsable number")
	// ErrEmptyLedger means every candidate row was rejected
	ErrEmptyLedger = errors.New("empty ledger")
	// ErrUnsupportedFormat means no parser is registered for the format hint
	ErrUnsupportedFormat = errors.New("unsupported report format")
	// ErrInvalidTrialCount means trials is not positive or exceeds the simulation ceiling
	ErrInvalidTrialCount = errors.New("invalid trial count")
	// ErrInvalidRuinThreshold means the ruin threshold is NaN or infinite
	ErrInvalidRuinThreshold = errors.New("invalid ruin threshold")
)

// ParseError is a structural parse failure
// ⭐ SSOT: 구조적 실패는 반드시 타입이 있는 에러로 호출자에게 전달
type ParseError struct {
	Kind     error          // one of the sentinel errors above
	Format   string         // format hint the parser ran with
	Detail   string         // human readable reason
	Warnings []ParseWarning // row warnings collected before failing
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s report: %v", e.Format, e.Kind)
	}
	return fmt.Sprintf("%s report: %v: %s", e.Format, e.Kind, e.Detail)
}

// Unwrap exposes the sentinel so callers can use errors.Is
func (e *ParseError) Unwrap() error {
	return e.Kind
}

// WarningKind classifies a non-fatal row problem
type WarningKind string

const (
	WarnUnparsableTimestamp WarningKind = "UnparsableTimestamp"
	WarnUnparsableNumber    WarningKind = "UnparsableNumber"
	WarnInvalidTimeOrder    WarningKind = "InvalidTimeOrder"
	WarnProfitSignMismatch  WarningKind = "ProfitSignMismatch"
)

// ParseWarning records one skipped or suspicious row
type ParseWarning struct {
	Row     int         `json:"row"`
	Kind    WarningKind `json:"kind"`
	Field   string      `json:"field,omitempty"`
	Value   string      `json:"value,omitempty"`
	Skipped bool        `json:"skipped"` // row excluded from the ledger
}

func (w ParseWarning) String() string {
	if w.Field == "" {
		return fmt.Sprintf("row %d: %s", w.Row, w.Kind)
	}
	return fmt.Sprintf("row %d: %s in %s (%q)", w.Row, w.Kind, w.Field, w.Value)
}

// Err maps the warning to its sentinel error, if any
func (w ParseWarning) Err() error {
	switch w.Kind {
	case WarnUnparsableTimestamp:
		return ErrUnparsableTimestamp
	case WarnUnparsableNumber:
		return ErrUnparsableNumber
	default:
		return nil
	}
}

// SkippedRows counts warnings that excluded a row
func SkippedRows(warnings []ParseWarning) int {
	n := 0
	for _, w := range warnings {
		if w.Skipped {
			n++
		}
	}
	return n
}
