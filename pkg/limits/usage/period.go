package usage

import (
	"fmt"
	"strings"
	"time"
)

// Period scopes usage counters in time.
type Period string

const (
	// PeriodMonthly resets counters at the start of each UTC calendar month.
	PeriodMonthly Period = "monthly"

	// PeriodLifetime never resets counters.
	PeriodLifetime Period = "lifetime"
)

// ParsePeriod parses a period name. An empty string selects PeriodMonthly.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodMonthly:
		return PeriodMonthly, nil
	case PeriodLifetime:
		return PeriodLifetime, nil
	}
	return "", fmt.Errorf("unknown usage period %q (want monthly or lifetime)", s)
}

// suffix returns the key suffix for the period containing now.
func (p Period) suffix(now time.Time) string {
	if p == PeriodLifetime {
		return ""
	}
	return now.UTC().Format("2006-01")
}

// ttl returns how long a counter created at now stays live: until the start
// of the next month for PeriodMonthly, forever for PeriodLifetime.
func (p Period) ttl(now time.Time) time.Duration {
	if p == PeriodLifetime {
		return 0
	}
	return periodEnd(now).Sub(now)
}

// periodEnd returns the first instant of the month after now, in UTC.
func periodEnd(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
