package query

import (
	"context"

	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ProgressHandler serves enrollment, certificate and quiz attempt reads.
type ProgressHandler struct {
	interns  intern.Repository
	learning learning.Repository
	quizzes  quiz.Repository
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(interns intern.Repository, learningRepo learning.Repository, quizzes quiz.Repository) *ProgressHandler {
	return &ProgressHandler{interns: interns, learning: learningRepo, quizzes: quizzes}
}

// Enrollments lists an intern's enrollments, newest first.
func (h *ProgressHandler) Enrollments(ctx context.Context, internID string) ([]EnrollmentDTO, error) {
	if _, err := h.interns.GetByID(ctx, internID); err != nil {
		return nil, err
	}
	list, err := h.learning.ListEnrollments(ctx, internID)
	if err != nil {
		return nil, err
	}
	out := make([]EnrollmentDTO, 0, len(list))
	for _, e := range list {
		out = append(out, ToEnrollmentDTO(e))
	}
	return out, nil
}

// Certificates lists the course certificates an intern earned, newest first.
func (h *ProgressHandler) Certificates(ctx context.Context, internID string) ([]CertificateDTO, error) {
	if _, err := h.interns.GetByID(ctx, internID); err != nil {
		return nil, err
	}
	list, err := h.learning.ListCertificates(ctx, internID)
	if err != nil {
		return nil, err
	}
	out := make([]CertificateDTO, 0, len(list))
	for _, c := range list {
		out = append(out, ToCertificateDTO(c))
	}
	return out, nil
}

// Attempts lists an intern's attempts at a quiz in attempt order.
func (h *ProgressHandler) Attempts(ctx context.Context, internID, quizID string) ([]AttemptDTO, error) {
	if _, err := h.interns.GetByID(ctx, internID); err != nil {
		return nil, err
	}
	if _, err := h.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	list, err := h.quizzes.ListAttempts(ctx, internID, quizID)
	if err != nil {
		return nil, err
	}
	out := make([]AttemptDTO, 0, len(list))
	for _, a := range list {
		out = append(out, ToAttemptDTO(a))
	}
	return out, nil
}
