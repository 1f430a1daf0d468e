package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceRepository implements attendance.Repository for PostgreSQL.
type AttendanceRepository struct {
	conn *Connection
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(conn *Connection) *AttendanceRepository {
	return &AttendanceRepository{conn: conn}
}

const attendanceColumns = `id, intern_id, date, status, check_in_time, check_out_time, notes, created_at`

// UpsertCheckIn relies on the (intern_id, date) constraint so concurrent
// check-ins for one day always converge on a single row.
func (r *AttendanceRepository) UpsertCheckIn(ctx context.Context, rec *attendance.Record) (*attendance.Record, error) {
	query := `
		INSERT INTO attendance_records (id, intern_id, date, status, check_in_time, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (intern_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			check_in_time = EXCLUDED.check_in_time,
			notes = EXCLUDED.notes
		RETURNING ` + attendanceColumns

	row := r.conn.querier(ctx).QueryRow(ctx, query,
		rec.ID,
		rec.InternID,
		rec.Date,
		string(rec.Status),
		rec.CheckInTime,
		rec.Notes,
		rec.CreatedAt,
	)
	return scanAttendance(row)
}

// CheckOut stamps check_out_time and replaces notes only when given.
func (r *AttendanceRepository) CheckOut(ctx context.Context, internID string, date, at time.Time, notes *string) (*attendance.Record, error) {
	query := `
		UPDATE attendance_records
		SET check_out_time = $3, notes = COALESCE($4, notes)
		WHERE intern_id = $1 AND date = $2
		RETURNING ` + attendanceColumns

	rec, err := scanAttendance(r.conn.querier(ctx).QueryRow(ctx, query, internID, date, at, notes))
	if shared.IsNotFound(err) {
		return nil, shared.ErrAttendanceNotFound
	}
	return rec, err
}

// Get returns the record for (intern, date).
func (r *AttendanceRepository) Get(ctx context.Context, internID string, date time.Time) (*attendance.Record, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE intern_id = $1 AND date = $2`
	return scanAttendance(r.conn.querier(ctx).QueryRow(ctx, query, internID, date))
}

// ListByDate returns every record of the given date.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]*attendance.Record, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE date = $1 ORDER BY intern_id`
	return r.list(ctx, query, date)
}

// ListByIntern returns an intern's records in [from, to], oldest first.
func (r *AttendanceRepository) ListByIntern(ctx context.Context, internID string, from, to time.Time) ([]*attendance.Record, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE intern_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`
	return r.list(ctx, query, internID, from, to)
}

// CountPresentDays counts days with status present or late.
func (r *AttendanceRepository) CountPresentDays(ctx context.Context, internID string) (int, error) {
	query := `
		SELECT count(*) FROM attendance_records
		WHERE intern_id = $1 AND status IN ('present', 'late')`

	var n int
	if err := r.conn.querier(ctx).QueryRow(ctx, query, internID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count present days: %w", err)
	}
	return n, nil
}

func (r *AttendanceRepository) list(ctx context.Context, query string, args ...interface{}) ([]*attendance.Record, error) {
	rows, err := r.conn.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var out []*attendance.Record
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanAttendance(row rowScanner) (*attendance.Record, error) {
	var (
		rec    attendance.Record
		status string
	)
	err := row.Scan(
		&rec.ID,
		&rec.InternID,
		&rec.Date,
		&status,
		&rec.CheckInTime,
		&rec.CheckOutTime,
		&rec.Notes,
		&rec.CreatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("attendance", "Get", shared.ErrNotFound, "attendance record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance record: %w", err)
	}

	rec.Status = attendance.Status(status)
	rec.Date = time.Date(rec.Date.Year(), rec.Date.Month(), rec.Date.Day(), 0, 0, 0, 0, time.UTC)
	return &rec, nil
}
