// Package intern contains the intern registry model.
// Interns are created by registration, toggled active by an administrator
// and never hard-deleted.
package intern

import (
	"strings"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERN AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// Intern is a member of the cohort.
type Intern struct {
	// ID is the immutable system identifier.
	ID string

	// Code is the human-readable identifier used at the front desk (e.g. DMRC001).
	Code shared.InternCode

	Name       string
	Email      string
	Department string
	Phone      string

	IsActive  bool
	StartDate time.Time
	EndDate   *time.Time
	CreatedAt time.Time
}

// NewInternParams holds the registration input.
type NewInternParams struct {
	Code       string
	Name       string
	Email      string
	Department string
	Phone      string
	StartDate  time.Time
	EndDate    *time.Time
}

// NewIntern validates params and builds an active intern.
func NewIntern(p NewInternParams, now time.Time) (*Intern, error) {
	code, err := shared.NewInternCode(p.Code)
	if err != nil {
		return nil, err
	}

	email, err := shared.NormalizeEmail(p.Email)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, shared.InvalidInput("intern", "Validate", "name is required")
	}

	department := strings.TrimSpace(p.Department)
	if department == "" {
		return nil, shared.InvalidInput("intern", "Validate", "department is required")
	}

	if p.StartDate.IsZero() {
		return nil, shared.InvalidInput("intern", "Validate", "start date is required")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return nil, shared.InvalidInput("intern", "Validate", "end date precedes start date")
	}

	return &Intern{
		ID:         shared.NewID(),
		Code:       code,
		Name:       name,
		Email:      email,
		Department: department,
		Phone:      strings.TrimSpace(p.Phone),
		IsActive:   true,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		CreatedAt:  now,
	}, nil
}
