package command

import (
	"context"

	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK-IN / CHECK-OUT COMMANDS
// One attendance record per intern per calendar day. "Today" is the clock's
// date in the configured timezone.
// ══════════════════════════════════════════════════════════════════════════════

// CheckInCommand records an intern's arrival.
type CheckInCommand struct {
	InternCode string
	Status     string
	Notes      *string
}

// CheckOutCommand records an intern's departure.
type CheckOutCommand struct {
	InternCode string
	Notes      *string
}

// AttendanceResult contains the stored record.
type AttendanceResult struct {
	Intern *intern.Intern
	Record *attendance.Record
	Events []shared.Event
}

// AttendanceHandler handles check-in and check-out.
type AttendanceHandler struct {
	interns        intern.Repository
	records        attendance.Repository
	scorer         *RecomputeScoreHandler
	tx             shared.Transactor
	clock          timeutil.Clock
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(
	interns intern.Repository,
	records attendance.Repository,
	scorer *RecomputeScoreHandler,
	tx shared.Transactor,
	clock timeutil.Clock,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *AttendanceHandler {
	return &AttendanceHandler{
		interns:        interns,
		records:        records,
		scorer:         scorer,
		tx:             tx,
		clock:          clock,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("attendance")),
	}
}

// CheckIn upserts today's record. A repeated check-in overwrites status,
// check-in time and notes but keeps any check-out.
func (h *AttendanceHandler) CheckIn(ctx context.Context, cmd CheckInCommand) (*AttendanceResult, error) {
	code, err := shared.NewInternCode(cmd.InternCode)
	if err != nil {
		return nil, err
	}
	status, err := attendance.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	today := timeutil.Today(h.clock)
	result := &AttendanceResult{}

	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		in, err := h.interns.GetActiveByCode(ctx, code)
		if err != nil {
			return err
		}

		rec, err := h.records.UpsertCheckIn(ctx, attendance.NewCheckIn(in.ID, today, status, cmd.Notes, now))
		if err != nil {
			return err
		}

		scored, err := h.scorer.recompute(ctx, in.ID)
		if err != nil {
			return err
		}

		result.Intern = in
		result.Record = rec
		result.Events = append(result.Events,
			shared.NewCheckedInEvent(in.ID, timeutil.FormatDate(today), string(rec.Status), now))
		result.Events = append(result.Events, scored.Events...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.log.Info("checked in",
		logger.InternCode(code.String()),
		logger.Date(timeutil.FormatDate(today)),
		logger.String("status", string(status)),
	)
	publish(h.eventPublisher, h.log, result.Events)
	return result, nil
}

// CheckOut stamps the check-out time on today's record. Without a check-in
// there is nothing to close and ErrAttendanceNotFound is returned.
func (h *AttendanceHandler) CheckOut(ctx context.Context, cmd CheckOutCommand) (*AttendanceResult, error) {
	code, err := shared.NewInternCode(cmd.InternCode)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	today := timeutil.Today(h.clock)
	result := &AttendanceResult{}

	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		in, err := h.interns.GetActiveByCode(ctx, code)
		if err != nil {
			return err
		}

		rec, err := h.records.CheckOut(ctx, in.ID, today, now, cmd.Notes)
		if err != nil {
			return err
		}

		result.Intern = in
		result.Record = rec
		result.Events = append(result.Events,
			shared.NewCheckedOutEvent(in.ID, timeutil.FormatDate(today), string(rec.Status), now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.log.Info("checked out", logger.InternCode(code.String()), logger.Date(timeutil.FormatDate(today)))
	publish(h.eventPublisher, h.log, result.Events)
	return result, nil
}
