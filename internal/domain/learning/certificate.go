package learning

import (
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// Certificate records that an intern completed a course. At most one exists
// per (intern, course) and it is never revoked, even if the course is later
// reworked.
type Certificate struct {
	ID       string
	InternID string
	CourseID string
	IssuedAt time.Time

	// CertificateURL points at a rendered document once one is produced
	// outside the ledger.
	CertificateURL *string
}

// NewCertificate builds the certificate for a completed enrollment.
func NewCertificate(e *Enrollment, now time.Time) *Certificate {
	issued := now
	if e.CompletedAt != nil {
		issued = *e.CompletedAt
	}
	return &Certificate{
		ID:       shared.NewID(),
		InternID: e.InternID,
		CourseID: e.CourseID,
		IssuedAt: issued,
	}
}
