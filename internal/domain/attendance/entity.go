// Package attendance models the daily attendance ledger: at most one record
// per (intern, calendar date), created by check-in and mutated by check-out.
package attendance

import (
	"strings"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the caller-declared attendance status for a day.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

// AllStatuses lists every valid status in display order.
var AllStatuses = []Status{StatusPresent, StatusLate, StatusAbsent}

// IsValid checks that the status belongs to the enum.
func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// CountsAsPresent reports whether the day contributes to daysPresent.
func (s Status) CountsAsPresent() bool {
	return s == StatusPresent || s == StatusLate
}

// ParseStatus normalizes and validates a raw status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", shared.ErrInvalidStatus
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record is one intern's attendance for one calendar date.
type Record struct {
	ID           string
	InternID     string
	Date         time.Time // canonical date, midnight UTC
	Status       Status
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Notes        *string
	CreatedAt    time.Time
}

// NewCheckIn builds the record a check-in would insert.
func NewCheckIn(internID string, date time.Time, status Status, notes *string, now time.Time) *Record {
	at := now
	return &Record{
		ID:          shared.NewID(),
		InternID:    internID,
		Date:        date,
		Status:      status,
		CheckInTime: &at,
		Notes:       notes,
		CreatedAt:   now,
	}
}

// ApplyCheckIn overwrites status, check-in time and notes from a later
// check-in on the same day. CheckOutTime is left untouched.
func (r *Record) ApplyCheckIn(in *Record) {
	r.Status = in.Status
	r.CheckInTime = in.CheckInTime
	r.Notes = in.Notes
}

// CheckOut stamps the check-out time; notes are replaced only when given.
func (r *Record) CheckOut(now time.Time, notes *string) {
	at := now
	r.CheckOutTime = &at
	if notes != nil {
		r.Notes = notes
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS
// ══════════════════════════════════════════════════════════════════════════════

// DailyStats summarizes one day's attendance against the active roster.
type DailyStats struct {
	Date         time.Time
	Present      int
	Late         int
	Absent       int
	TotalInterns int
	NotCheckedIn int
}

// Summarize counts records per status.
func Summarize(date time.Time, records []*Record, activeInterns int) DailyStats {
	stats := DailyStats{Date: date, TotalInterns: activeInterns}
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			stats.Present++
		case StatusLate:
			stats.Late++
		case StatusAbsent:
			stats.Absent++
		}
	}
	stats.NotCheckedIn = activeInterns - len(records)
	if stats.NotCheckedIn < 0 {
		stats.NotCheckedIn = 0
	}
	return stats
}
