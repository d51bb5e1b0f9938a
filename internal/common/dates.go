package common

import (
	"strings"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// MonthLayout is the wire format for bill months.
	MonthLayout = "2006-01"
)

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
func ParseDate(field, value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, Validation(field, "is required")
	}
	d, err := time.ParseInLocation(DateLayout, trimmed, time.UTC)
	if err != nil {
		return time.Time{}, Validation(field, "must be a calendar date (YYYY-MM-DD)")
	}
	return d, nil
}

// ParseMonth parses a YYYY-MM month into the first day of that month, UTC.
func ParseMonth(field, value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, Validation(field, "is required")
	}
	m, err := time.ParseInLocation(MonthLayout, trimmed, time.UTC)
	if err != nil {
		// accept a full date and truncate it
		d, derr := time.ParseInLocation(DateLayout, trimmed, time.UTC)
		if derr != nil {
			return time.Time{}, Validation(field, "must be a month (YYYY-MM)")
		}
		return MonthStart(d), nil
	}
	return m, nil
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last calendar day of the month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := MonthStart(t)
	return start, start.AddDate(0, 1, -1)
}
