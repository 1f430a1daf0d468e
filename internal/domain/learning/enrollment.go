package learning

import (
	"math"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// Enrollment binds an intern to a course. (InternID, CourseID) is unique.
type Enrollment struct {
	ID                 string
	InternID           string
	CourseID           string
	Status             EnrollmentStatus
	ProgressPercentage int
	EnrolledAt         time.Time
	CompletedAt        *time.Time
}

// Percentage is round(100 * completed / required), or 100 when the course
// has no required lessons. Halves round up.
func Percentage(completedRequired, totalRequired int) int {
	if totalRequired <= 0 {
		return 100
	}
	if completedRequired > totalRequired {
		completedRequired = totalRequired
	}
	return int(math.Round(100 * float64(completedRequired) / float64(totalRequired)))
}

// NewEnrollment builds an enrollment with its initial percentage applied.
func NewEnrollment(internID, courseID string, completedRequired, totalRequired int, now time.Time) *Enrollment {
	e := &Enrollment{
		ID:         shared.NewID(),
		InternID:   internID,
		CourseID:   courseID,
		Status:     EnrollmentEnrolled,
		EnrolledAt: now,
	}
	e.Refresh(completedRequired, totalRequired, now)
	return e
}

// Refresh recomputes the percentage. An enrolled enrollment reaching 100
// becomes completed and gets CompletedAt stamped once; dropped enrollments
// keep their status. Returns true when the enrollment just completed.
func (e *Enrollment) Refresh(completedRequired, totalRequired int, now time.Time) bool {
	e.ProgressPercentage = Percentage(completedRequired, totalRequired)
	if e.ProgressPercentage < 100 || e.Status != EnrollmentEnrolled {
		return false
	}
	e.Status = EnrollmentCompleted
	if e.CompletedAt == nil {
		at := now
		e.CompletedAt = &at
	}
	return true
}

// Drop moves an enrolled enrollment to dropped. Dropping twice is a no-op.
func (e *Enrollment) Drop() error {
	switch e.Status {
	case EnrollmentCompleted:
		return shared.ErrEnrollmentCompleted
	case EnrollmentDropped:
		return nil
	}
	e.Status = EnrollmentDropped
	return nil
}
