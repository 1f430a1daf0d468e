// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
// Every error returned by a ledger operation matches exactly one of these kinds.
var (
	// ErrNotFound is returned when a referenced entity does not exist
	// (or, for interns, is not active where an active intern is required).
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a uniqueness constraint would be violated.
	ErrConflict = errors.New("entity already exists")

	// ErrInvalidInput is returned when a value is out of domain.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLimitExceeded is returned when a quota such as max quiz attempts is exhausted.
	ErrLimitExceeded = errors.New("limit exceeded")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "intern", "attendance", "quiz"
	Op      string // Operation that failed, e.g., "CheckIn", "Submit"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// InvalidInput is a shorthand for the most common validation failure.
func InvalidInput(domain, op, format string, args ...interface{}) *DomainError {
	return NewDomainError(domain, op, ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Intern domain errors
var (
	ErrInternNotFound  = NewDomainError("intern", "Find", ErrNotFound, "intern not found")
	ErrInternDuplicate = NewDomainError("intern", "Create", ErrConflict, "intern ID or email already exists")
)

// Attendance domain errors
var (
	ErrAttendanceNotFound = NewDomainError("attendance", "CheckOut", ErrNotFound, "no check-in recorded for today")
	ErrInvalidStatus      = NewDomainError("attendance", "Validate", ErrInvalidInput, "status must be one of present, late, absent")
)

// Learning domain errors
var (
	ErrCourseNotFound      = NewDomainError("learning", "FindCourse", ErrNotFound, "course not found")
	ErrModuleNotFound      = NewDomainError("learning", "FindModule", ErrNotFound, "module not found")
	ErrLessonNotFound      = NewDomainError("learning", "FindLesson", ErrNotFound, "lesson not found")
	ErrEnrollmentNotFound  = NewDomainError("learning", "FindEnrollment", ErrNotFound, "enrollment not found")
	ErrEnrollmentExists    = NewDomainError("learning", "Enroll", ErrConflict, "intern is already enrolled in this course")
	ErrCourseNotPublished  = NewDomainError("learning", "Enroll", ErrInvalidInput, "course is not published")
	ErrEnrollmentCompleted = NewDomainError("learning", "Drop", ErrInvalidInput, "completed enrollment cannot be dropped")
	ErrProgressNotFound    = NewDomainError("learning", "FindProgress", ErrNotFound, "lesson progress not found")
)

// Quiz domain errors
var (
	ErrQuizNotFound      = NewDomainError("quiz", "Find", ErrNotFound, "quiz not found")
	ErrAttemptsExhausted = NewDomainError("quiz", "Submit", ErrLimitExceeded, "maximum number of attempts reached")
	ErrAttemptConflict   = NewDomainError("quiz", "Submit", ErrConflict, "attempt number already taken")
)

// Gamification domain errors
var (
	ErrBadgeExists   = NewDomainError("gamification", "DefineBadge", ErrConflict, "badge with this name already exists")
	ErrScoreNotFound = NewDomainError("gamification", "GetScore", ErrNotFound, "score not computed yet")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidInput checks if the error is a validation error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsLimitExceeded checks if the error is a quota error.
func IsLimitExceeded(err error) bool {
	return errors.Is(err, ErrLimitExceeded)
}
