package command

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

func TestAttendance_LateCheckInThenCheckOut(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	arrival := f.clock.Now()

	res, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{
		InternCode: "DMRC001",
		Status:     "late",
		Notes:      strPtr("Traffic"),
	})
	require.NoError(t, err)

	rec := res.Record
	assert.Equal(t, in.ID, rec.InternID)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, attendance.StatusLate, rec.Status)
	require.NotNil(t, rec.CheckInTime)
	assert.True(t, rec.CheckInTime.Equal(arrival))
	assert.Nil(t, rec.CheckOutTime)
	assert.Equal(t, "Traffic", *rec.Notes)

	f.clock.Advance(8 * time.Hour)
	out, err := f.h.Attendance.CheckOut(f.ctx, CheckOutCommand{InternCode: "DMRC001"})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusLate, out.Record.Status)
	require.NotNil(t, out.Record.CheckOutTime)
	assert.True(t, out.Record.CheckOutTime.Equal(arrival.Add(8*time.Hour)))
	assert.Equal(t, "Traffic", *out.Record.Notes, "check-out without notes keeps the check-in notes")

	assert.Equal(t, 1, f.events.count(shared.EventCheckedIn))
	assert.Equal(t, 1, f.events.count(shared.EventCheckedOut))
	assert.Equal(t, 1, f.score(t, in.ID).DaysPresent)
}

func TestAttendance_RepeatedCheckInKeepsCheckOut(t *testing.T) {
	f := newFixture(t)
	f.register(t, "DMRC001")

	first, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "DMRC001", Status: "present"})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.h.Attendance.CheckOut(f.ctx, CheckOutCommand{InternCode: "DMRC001", Notes: strPtr("left early")})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	res, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "dmrc001", Status: "LATE"})
	require.NoError(t, err)

	assert.Equal(t, first.Record.ID, res.Record.ID, "the day keeps one record")
	assert.True(t, res.Record.CreatedAt.Equal(first.Record.CreatedAt))
	assert.Equal(t, attendance.StatusLate, res.Record.Status)
	assert.NotNil(t, res.Record.CheckOutTime)
	assert.Nil(t, res.Record.Notes, "a later check-in overwrites notes")
	assert.True(t, res.Record.CheckInTime.Equal(f.clock.Now()))

	records, err := f.store.Attendance().ListByDate(f.ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAttendance_Errors(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	f.register(t, "DMRC002")
	_, err := f.h.SetInternActive.Handle(f.ctx, SetInternActiveCommand{InternID: in.ID, Active: false})
	require.NoError(t, err)

	tests := []struct {
		name  string
		run   func() error
		check func(error) bool
	}{
		{
			name:  "unknown code",
			run:   func() error { _, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "NOPE01", Status: "present"}); return err },
			check: shared.IsNotFound,
		},
		{
			name:  "inactive intern",
			run:   func() error { _, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "DMRC001", Status: "present"}); return err },
			check: shared.IsNotFound,
		},
		{
			name:  "invalid status",
			run:   func() error { _, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "DMRC002", Status: "sick"}); return err },
			check: shared.IsInvalidInput,
		},
		{
			name:  "check-out without check-in",
			run:   func() error { _, err := f.h.Attendance.CheckOut(f.ctx, CheckOutCommand{InternCode: "DMRC002"}); return err },
			check: shared.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}

	records, err := f.store.Attendance().ListByDate(f.ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, records, "failed operations must not create records")
}

func TestAttendance_TodayFollowsConfiguredTimezone(t *testing.T) {
	f := newFixture(t)
	f.register(t, "DMRC001")

	// 20:30 UTC on the 2nd is 01:30 on the 3rd in Almaty.
	f.clock.At = time.Date(2026, 3, 2, 20, 30, 0, 0, time.UTC)

	res, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "DMRC001", Status: "present"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), res.Record.Date)
}

func TestAttendance_ConcurrentCheckInsKeepOneRecord(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := "present"
			if i%2 == 1 {
				status = "late"
			}
			_, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "DMRC001", Status: status})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := f.store.Attendance().ListByIntern(f.ctx, in.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, f.score(t, in.ID).DaysPresent)
}

func TestAttendance_AbsentDoesNotCountAsPresent(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")

	_, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "DMRC001", Status: "absent"})
	require.NoError(t, err)
	assert.Equal(t, 0, f.score(t, in.ID).DaysPresent)

	f.clock.Advance(24 * time.Hour)
	_, err = f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "DMRC001", Status: "present"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.score(t, in.ID).DaysPresent)
}
