package attendance

import (
	"context"
	"time"
)

// Repository stores attendance records.
type Repository interface {
	// UpsertCheckIn inserts rec or, when a record for (intern, date) exists,
	// overwrites its status, check-in time and notes atomically.
	// Returns the stored record (with the original ID on update).
	UpsertCheckIn(ctx context.Context, rec *Record) (*Record, error)

	// CheckOut stamps checkOutTime on the (intern, date) record and replaces
	// notes when non-nil. Returns shared.ErrAttendanceNotFound if no record exists.
	CheckOut(ctx context.Context, internID string, date, at time.Time, notes *string) (*Record, error)

	// Get returns the record for (intern, date).
	Get(ctx context.Context, internID string, date time.Time) (*Record, error)

	// ListByDate returns every record of the given date.
	ListByDate(ctx context.Context, date time.Time) ([]*Record, error)

	// ListByIntern returns an intern's records in [from, to], oldest first.
	ListByIntern(ctx context.Context, internID string, from, to time.Time) ([]*Record, error)

	// CountPresentDays counts days with status present or late.
	CountPresentDays(ctx context.Context, internID string) (int, error)
}
