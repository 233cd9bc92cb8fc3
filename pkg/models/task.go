package models

import "time"

type TaskStatus string

const (
	PendingTaskStatus   TaskStatus = "pending"
	RunningTaskStatus   TaskStatus = "running"
	CompletedTaskStatus TaskStatus = "completed"
	FailedTaskStatus    TaskStatus = "failed"
)

// TimeLayout is the timestamp format used in persisted records. Fixed-width
// microseconds keep lexicographic order equal to chronological order, so
// record tables can sort on the raw string.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// DateLayout is the calendar-date key format for daily review records.
const DateLayout = "2006-01-02"

// TaskRecord is one submitted analysis job. EndTime is set exactly when the
// job reaches completed or failed; Result is present only on completed and
// Error only on failed.
type TaskRecord struct {
	TaskID    string          `json:"task_id"`
	Code      string          `json:"code"`
	Status    TaskStatus      `json:"status"`
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time,omitempty"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// StartedAt parses the record's start timestamp. The second return value is
// false when the timestamp is missing or unparsable; such records are
// considered expired by the eviction policy rather than kept forever.
func (t TaskRecord) StartedAt() (time.Time, bool) {
	return ParseTimestamp(t.StartTime)
}

// ParseTimestamp parses a persisted timestamp, accepting the canonical layout
// as well as plain RFC3339 variants so hand-edited files still load.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(TimeLayout, s); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// FormatTimestamp renders a timestamp in the canonical persisted layout.
// Timestamps are normalized to UTC so differing zone offsets, including a
// DST fall-back, cannot break the lexicographic ordering.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(TimeLayout)
}
