package intern

import (
	"context"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ListFilter narrows ListInterns results.
type ListFilter struct {
	ActiveOnly bool
	Department string
	Limit      int
	Offset     int
}

// Repository stores interns.
type Repository interface {
	// Create inserts a new intern, relying on the store's unique constraints.
	// Returns an ErrConflict error if the code or email is taken.
	Create(ctx context.Context, in *Intern) error

	// GetByID returns the intern with the given system ID.
	// Returns shared.ErrInternNotFound if absent.
	GetByID(ctx context.Context, id string) (*Intern, error)

	// GetActiveByCode resolves a front-desk code to an active intern.
	// Returns shared.ErrInternNotFound if absent or inactive.
	GetActiveByCode(ctx context.Context, code shared.InternCode) (*Intern, error)

	// SetActive toggles isActive and returns the updated intern.
	SetActive(ctx context.Context, id string, active bool) (*Intern, error)

	// List returns interns ordered by code.
	List(ctx context.Context, filter ListFilter) ([]*Intern, error)

	// CountActive returns the number of active interns.
	CountActive(ctx context.Context) (int, error)
}
