package quiz

import "context"

// Repository stores quizzes and their attempts.
type Repository interface {
	CreateQuiz(ctx context.Context, q *Quiz) error

	// GetQuiz returns shared.ErrQuizNotFound if absent.
	GetQuiz(ctx context.Context, id string) (*Quiz, error)

	// LockAttempts serializes attempt numbering for (intern, quiz) until the
	// surrounding unit of work ends.
	LockAttempts(ctx context.Context, internID, quizID string) error

	// MaxAttemptNumber returns the highest attempt number, 0 when none exist.
	MaxAttemptNumber(ctx context.Context, internID, quizID string) (int, error)

	// InsertAttempt appends a. Returns shared.ErrAttemptConflict when the
	// attempt number is already taken.
	InsertAttempt(ctx context.Context, a *Attempt) error

	// ListAttempts returns attempts in attempt-number order.
	ListAttempts(ctx context.Context, internID, quizID string) ([]*Attempt, error)

	// CountPassedQuizzes counts distinct quizzes with at least one passed attempt.
	CountPassedQuizzes(ctx context.Context, internID string) (int, error)
}
