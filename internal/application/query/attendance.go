package query

import (
	"context"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE QUERIES
// The daily roster and its summary feed the front-desk dashboard.
// ══════════════════════════════════════════════════════════════════════════════

// maxHistoryDays bounds InternAttendance ranges.
const maxHistoryDays = 366

// DailyAttendanceResult is one day's roster and summary.
type DailyAttendanceResult struct {
	Date    string          `json:"date"`
	Records []AttendanceDTO `json:"records"`
	Stats   DailyStatsDTO   `json:"stats"`
}

// InternAttendanceQuery selects an intern's history over [From, To].
type InternAttendanceQuery struct {
	InternID string
	From     time.Time
	To       time.Time
}

// Validate checks the date range.
func (q InternAttendanceQuery) Validate() error {
	if q.To.Before(q.From) {
		return shared.InvalidInput("query", "InternAttendance", "range end precedes start")
	}
	if q.To.Sub(q.From) > maxHistoryDays*24*time.Hour {
		return shared.InvalidInput("query", "InternAttendance", "range exceeds %d days", maxHistoryDays)
	}
	return nil
}

// AttendanceHandler serves attendance reads.
type AttendanceHandler struct {
	interns intern.Repository
	records attendance.Repository
	clock   timeutil.Clock
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(interns intern.Repository, records attendance.Repository, clock timeutil.Clock) *AttendanceHandler {
	return &AttendanceHandler{interns: interns, records: records, clock: clock}
}

// Daily returns every record for date with the intern's identity attached.
// A zero date means today.
func (h *AttendanceHandler) Daily(ctx context.Context, date time.Time) (*DailyAttendanceResult, error) {
	date = h.dateOrToday(date)

	records, err := h.records.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	roster, err := h.interns.List(ctx, intern.ListFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*intern.Intern, len(roster))
	active := 0
	for _, in := range roster {
		byID[in.ID] = in
		if in.IsActive {
			active++
		}
	}

	result := &DailyAttendanceResult{
		Date:    timeutil.FormatDate(date),
		Records: make([]AttendanceDTO, 0, len(records)),
		Stats:   ToDailyStatsDTO(attendance.Summarize(date, records, active)),
	}
	for _, r := range records {
		result.Records = append(result.Records, ToAttendanceDTO(r, byID[r.InternID]))
	}
	return result, nil
}

// Stats returns the per-status counts for date against the active roster.
func (h *AttendanceHandler) Stats(ctx context.Context, date time.Time) (*DailyStatsDTO, error) {
	date = h.dateOrToday(date)

	records, err := h.records.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	active, err := h.interns.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	stats := ToDailyStatsDTO(attendance.Summarize(date, records, active))
	return &stats, nil
}

// ForIntern returns an intern's records over the range, oldest first.
func (h *AttendanceHandler) ForIntern(ctx context.Context, q InternAttendanceQuery) ([]AttendanceDTO, error) {
	if q.To.IsZero() {
		q.To = timeutil.Today(h.clock)
	}
	if q.From.IsZero() {
		q.From = q.To.AddDate(0, 0, -30)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	in, err := h.interns.GetByID(ctx, q.InternID)
	if err != nil {
		return nil, err
	}
	records, err := h.records.ListByIntern(ctx, in.ID, q.From, q.To)
	if err != nil {
		return nil, err
	}
	out := make([]AttendanceDTO, 0, len(records))
	for _, r := range records {
		out = append(out, ToAttendanceDTO(r, in))
	}
	return out, nil
}

func (h *AttendanceHandler) dateOrToday(date time.Time) time.Time {
	if date.IsZero() {
		return timeutil.Today(h.clock)
	}
	return timeutil.DateOf(date, time.UTC)
}
