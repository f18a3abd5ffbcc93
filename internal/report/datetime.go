package report

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order; first successful parse wins.
// Fractional seconds after the seconds field are accepted by time.Parse.
var timestampLayouts = []string{
	time.RFC3339Nano,
	// broker (MT4/MT5)
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	// ISO
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	// US
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	// EU
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	// date only
	"2006.01.02",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
}

// ParseTimestamp parses a broker-local timestamp.
// The wall clock is kept and stored as UTC; offsets (RFC3339) are dropped.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("no known layout matches %q", s)
}
