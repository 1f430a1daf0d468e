// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// NewID returns a fresh system identifier.
func NewID() string {
	return uuid.NewString()
}

// IsValidID reports whether s is a well-formed system identifier.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// InternCode is the human-readable intern identifier such as "DMRC001".
type InternCode string

// Codes are 2 to 20 characters, the width of the intern_code column.
var internCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,19}$`)

// IsValid checks the code format.
func (c InternCode) IsValid() bool {
	return internCodeRegex.MatchString(string(c))
}

// String returns the string representation.
func (c InternCode) String() string {
	return string(c)
}

// NewInternCode normalizes and validates an intern code.
// Codes are stored upper-case so lookups are case-insensitive.
func NewInternCode(raw string) (InternCode, error) {
	code := InternCode(strings.ToUpper(strings.TrimSpace(raw)))
	if !code.IsValid() {
		return "", NewDomainError("intern", "Validate", ErrInvalidInput, "invalid intern ID format")
	}
	return code, nil
}

// NormalizeEmail lower-cases and validates an email address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", NewDomainError("intern", "Validate", ErrInvalidInput, "invalid email address")
	}
	return email, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Unit of Work
// ═══════════════════════════════════════════════════════════════════════════

// Transactor runs fn as one atomic unit of work against the store.
// Repository calls made with the context passed to fn participate in the unit;
// if fn returns an error every write is rolled back. Nested calls join the
// outer unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
