package entities

import "fmt"

// Period is the discrete planning unit that keys demand and stock records.
// Periods are totally ordered; the next period is always p+1.
type Period int

// Next returns the period immediately following p
func (p Period) Next() Period {
	return p + 1
}

// Before reports whether p sorts before other
func (p Period) Before(other Period) bool {
	return p < other
}

// PeriodUnit names what a single period represents
type PeriodUnit int

const (
	Day PeriodUnit = iota
	Week
)

// String method for PeriodUnit enum
func (u PeriodUnit) String() string {
	switch u {
	case Day:
		return "Day"
	case Week:
		return "Week"
	default:
		return "Unknown"
	}
}

// ParsePeriodUnit parses "day" or "week" (case-sensitive lower case, as written in config files)
func ParsePeriodUnit(s string) (PeriodUnit, error) {
	switch s {
	case "day", "":
		return Day, nil
	case "week":
		return Week, nil
	default:
		return Day, fmt.Errorf("invalid period unit: %s (expected: day or week)", s)
	}
}

// Label renders a period for display, e.g. "Week 12"
func (u PeriodUnit) Label(p Period) string {
	return fmt.Sprintf("%s %d", u, int(p))
}
