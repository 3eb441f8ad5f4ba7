package normalize

import (
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate reads a start date from a time value or a string in one of the
// common spreadsheet layouts. The result is truncated to a UTC calendar day.
func ParseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return Day(val), true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return Day(*val), true
	case string:
		s := Text(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Day(t), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// Day drops the clock part of t, keeping the calendar date as seen in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
