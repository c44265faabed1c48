package util

import (
	"strconv"
	"time"
)

// ISODate is the calendar-date layout used in forecast results.
const ISODate = "2006-01-02"

// ForecastDates returns n consecutive ISO-8601 calendar dates starting the
// day after last. Non-trading days are not skipped; the forecasting core
// knows nothing about market calendars.
func ForecastDates(last time.Time, n int) []string {
	out := make([]string, n)
	d := last
	for i := range out {
		d = d.AddDate(0, 0, 1)
		out[i] = d.Format(ISODate)
	}
	return out
}

// ParseTime tries RFC3339, RFC3339Nano, plain date, and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(ISODate, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// PeriodStart maps a history period label (1mo, 6mo, 1y, ...) to its start
// time relative to now. Unknown labels default to one year.
func PeriodStart(now time.Time, period string) time.Time {
	switch period {
	case "1mo":
		return now.AddDate(0, -1, 0)
	case "3mo":
		return now.AddDate(0, -3, 0)
	case "6mo":
		return now.AddDate(0, -6, 0)
	case "1y":
		return now.AddDate(-1, 0, 0)
	case "2y":
		return now.AddDate(-2, 0, 0)
	case "5y":
		return now.AddDate(-5, 0, 0)
	default:
		return now.AddDate(-1, 0, 0)
	}
}
