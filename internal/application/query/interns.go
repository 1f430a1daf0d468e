package query

import (
	"context"

	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERN QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ListInternsQuery filters the roster.
type ListInternsQuery struct {
	ActiveOnly bool
	Department string
	Limit      int
	Offset     int
}

// Validate clamps paging.
func (q *ListInternsQuery) Validate() error {
	if q.Limit < 0 || q.Offset < 0 {
		return shared.InvalidInput("query", "ListInterns", "limit and offset must not be negative")
	}
	if q.Limit == 0 || q.Limit > 500 {
		q.Limit = 500
	}
	return nil
}

// InternsHandler serves intern lookups.
type InternsHandler struct {
	interns intern.Repository
}

// NewInternsHandler creates a new InternsHandler.
func NewInternsHandler(interns intern.Repository) *InternsHandler {
	return &InternsHandler{interns: interns}
}

// Get returns one intern by system id.
func (h *InternsHandler) Get(ctx context.Context, id string) (*InternDTO, error) {
	if !shared.IsValidID(id) {
		return nil, shared.ErrInternNotFound
	}
	in, err := h.interns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToInternDTO(in)
	return &dto, nil
}

// List returns interns ordered by code.
func (h *InternsHandler) List(ctx context.Context, q ListInternsQuery) ([]InternDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	list, err := h.interns.List(ctx, intern.ListFilter{
		ActiveOnly: q.ActiveOnly,
		Department: q.Department,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]InternDTO, 0, len(list))
	for _, in := range list {
		out = append(out, ToInternDTO(in))
	}
	return out, nil
}
