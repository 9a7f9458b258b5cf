package timex

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = time.DateOnly

// localLayouts are ISO 8601 timestamps without an offset. They are read as
// UTC.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

func parseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func invalidDate(s string) error {
	return fmt.Errorf("invalid date %q: expected YYYY-MM-DD or an ISO 8601 timestamp", s)
}

// ParseDate accepts a calendar date (YYYY-MM-DD) or an ISO 8601 timestamp
// with or without an offset. Results are in UTC; dates land at midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, ok := parseTimestamp(s); ok {
		return t.UTC(), nil
	}
	return time.Time{}, invalidDate(s)
}

// ParseCalendarDate is ParseDate for day-precision values. The calendar day
// written in the input is kept whatever its offset, and returned at
// midnight UTC.
func ParseCalendarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, ok := parseTimestamp(s); ok {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, invalidDate(s)
}

// FormatDate renders the calendar part of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
