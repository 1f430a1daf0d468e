package memory

import (
	"context"
	"sort"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

type attendanceRepo struct {
	s *Store
}

func (r *attendanceRepo) UpsertCheckIn(ctx context.Context, rec *attendance.Record) (*attendance.Record, error) {
	var out attendance.Record
	err := r.s.do(ctx, func(st *state) error {
		key := newDayKey(rec.InternID, rec.Date)
		existing, ok := st.attendance[key]
		if ok {
			existing.ApplyCheckIn(rec)
			out = existing
		} else {
			out = *rec
		}
		st.attendance[key] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *attendanceRepo) CheckOut(ctx context.Context, internID string, date, at time.Time, notes *string) (*attendance.Record, error) {
	var out attendance.Record
	err := r.s.do(ctx, func(st *state) error {
		key := newDayKey(internID, date)
		rec, ok := st.attendance[key]
		if !ok {
			return shared.ErrAttendanceNotFound
		}
		rec.CheckOut(at, notes)
		st.attendance[key] = rec
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *attendanceRepo) Get(ctx context.Context, internID string, date time.Time) (*attendance.Record, error) {
	var out attendance.Record
	err := r.s.do(ctx, func(st *state) error {
		rec, ok := st.attendance[newDayKey(internID, date)]
		if !ok {
			return shared.NewDomainError("attendance", "Get", shared.ErrNotFound, "attendance record not found")
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *attendanceRepo) ListByDate(ctx context.Context, date time.Time) ([]*attendance.Record, error) {
	day := date.Format("2006-01-02")
	return r.collect(ctx, func(k dayKey, _ attendance.Record) bool { return k.date == day })
}

func (r *attendanceRepo) ListByIntern(ctx context.Context, internID string, from, to time.Time) ([]*attendance.Record, error) {
	return r.collect(ctx, func(k dayKey, rec attendance.Record) bool {
		return k.internID == internID && !rec.Date.Before(from) && !rec.Date.After(to)
	})
}

func (r *attendanceRepo) CountPresentDays(ctx context.Context, internID string) (int, error) {
	n := 0
	err := r.s.do(ctx, func(st *state) error {
		for k, rec := range st.attendance {
			if k.internID == internID && rec.Status.CountsAsPresent() {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *attendanceRepo) collect(ctx context.Context, keep func(dayKey, attendance.Record) bool) ([]*attendance.Record, error) {
	var out []*attendance.Record
	err := r.s.do(ctx, func(st *state) error {
		for k, rec := range st.attendance {
			if keep(k, rec) {
				rec := rec
				out = append(out, &rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].InternID < out[j].InternID
	})
	return out, nil
}
