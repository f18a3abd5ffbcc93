package contracts

import "fmt"

// OffSession is the bucket for trades closed outside every configured window
const OffSession = "Off-session"

// SessionWindow is a named time-of-day window [StartHour, EndHour) in report time
type SessionWindow struct {
	Name      string `json:"name" yaml:"name"`
	StartHour int    `json:"start_hour" yaml:"start_hour"`
	EndHour   int    `json:"end_hour" yaml:"end_hour"`
}

// Contains reports whether hour falls inside the window
func (w SessionWindow) Contains(hour int) bool {
	return hour >= w.StartHour && hour < w.EndHour
}

// SessionTable is an ordered list of non-overlapping session windows
// Declaration order is the output order of session buckets.
type SessionTable []SessionWindow

// DefaultSessions returns the Asian/European/US split used when nothing is configured
func DefaultSessions() SessionTable {
	return SessionTable{
		{Name: "Asian", StartHour: 0, EndHour: 8},
		{Name: "European", StartHour: 8, EndHour: 16},
		{Name: "US", StartHour: 16, EndHour: 24},
	}
}

// Validate checks bounds, names and overlap
func (st SessionTable) Validate() error {
	seen := make(map[string]bool, len(st))
	for i, w := range st {
		if w.Name == "" {
			return fmt.Errorf("session %d: name is required", i)
		}
		if w.Name == OffSession {
			return fmt.Errorf("session %d: name %q is reserved", i, OffSession)
		}
		if seen[w.Name] {
			return fmt.Errorf("session %q declared twice", w.Name)
		}
		seen[w.Name] = true

		if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
			return fmt.Errorf("session %q: invalid window [%d, %d)", w.Name, w.StartHour, w.EndHour)
		}
		for _, other := range st[:i] {
			if w.StartHour < other.EndHour && other.StartHour < w.EndHour {
				return fmt.Errorf("session %q overlaps %q", w.Name, other.Name)
			}
		}
	}
	return nil
}

// Classify returns the session name for an hour of day, or OffSession
func (st SessionTable) Classify(hour int) string {
	for _, w := range st {
		if w.Contains(hour) {
			return w.Name
		}
	}
	return OffSession
}

// Names returns session names in declaration order followed by OffSession
func (st SessionTable) Names() []string {
	names := make([]string, 0, len(st)+1)
	for _, w := range st {
		names = append(names, w.Name)
	}
	return append(names, OffSession)
}
