package store

import (
	"time"

	"github.com/Impersonality/daily-stock-analysis/pkg/models"
)

// WithinWindow reports whether a timestamped record is still inside its
// retention window at sub-second granularity. A missing or unparsable
// timestamp counts as expired, never as an error.
func WithinWindow(timestamp string, now time.Time, retention time.Duration) bool {
	ts, ok := models.ParseTimestamp(timestamp)
	if !ok {
		return false
	}
	return now.Sub(ts) <= retention
}

// WithinDays reports whether a date-keyed record is at most the given number
// of whole days old. The comparison is between calendar dates in now's
// location, so a record from N days ago stays valid for the whole of day N
// regardless of time zone or DST transitions.
func WithinDays(date string, now time.Time, days int) bool {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return false
	}
	cutoff := now.AddDate(0, 0, -days).Format(models.DateLayout)
	return date >= cutoff
}
