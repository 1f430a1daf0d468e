package memory

import (
	"context"
	"sort"

	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

type internRepo struct {
	s *Store
}

func (r *internRepo) Create(ctx context.Context, in *intern.Intern) error {
	return r.s.do(ctx, func(st *state) error {
		for _, existing := range st.interns {
			if existing.Code == in.Code || existing.Email == in.Email {
				return shared.ErrInternDuplicate
			}
		}
		st.interns[in.ID] = *in
		return nil
	})
}

func (r *internRepo) GetByID(ctx context.Context, id string) (*intern.Intern, error) {
	var out intern.Intern
	err := r.s.do(ctx, func(st *state) error {
		in, ok := st.interns[id]
		if !ok {
			return shared.ErrInternNotFound
		}
		out = in
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *internRepo) GetActiveByCode(ctx context.Context, code shared.InternCode) (*intern.Intern, error) {
	var out intern.Intern
	err := r.s.do(ctx, func(st *state) error {
		for _, in := range st.interns {
			if in.Code == code && in.IsActive {
				out = in
				return nil
			}
		}
		return shared.ErrInternNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *internRepo) SetActive(ctx context.Context, id string, active bool) (*intern.Intern, error) {
	var out intern.Intern
	err := r.s.do(ctx, func(st *state) error {
		in, ok := st.interns[id]
		if !ok {
			return shared.ErrInternNotFound
		}
		in.IsActive = active
		st.interns[id] = in
		out = in
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *internRepo) List(ctx context.Context, filter intern.ListFilter) ([]*intern.Intern, error) {
	var out []*intern.Intern
	err := r.s.do(ctx, func(st *state) error {
		for _, in := range st.interns {
			if filter.ActiveOnly && !in.IsActive {
				continue
			}
			if filter.Department != "" && in.Department != filter.Department {
				continue
			}
			in := in
			out = append(out, &in)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return paginate(out, filter.Offset, filter.Limit), nil
}

func (r *internRepo) CountActive(ctx context.Context) (int, error) {
	n := 0
	err := r.s.do(ctx, func(st *state) error {
		for _, in := range st.interns {
			if in.IsActive {
				n++
			}
		}
		return nil
	})
	return n, err
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
