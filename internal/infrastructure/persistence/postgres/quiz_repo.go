package postgres

import (
	"context"
	"fmt"

	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// QuizRepository implements quiz.Repository for PostgreSQL.
type QuizRepository struct {
	conn *Connection
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(conn *Connection) *QuizRepository {
	return &QuizRepository{conn: conn}
}

// CreateQuiz inserts q. A missing lesson maps to shared.ErrLessonNotFound.
func (r *QuizRepository) CreateQuiz(ctx context.Context, q *quiz.Quiz) error {
	query := `
		INSERT INTO quizzes (id, lesson_id, title, passing_score, max_attempts, time_limit_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		q.ID, q.LessonID, q.Title, q.PassingScore, q.MaxAttempts, q.TimeLimitMinutes, q.CreatedAt)
	if IsForeignKeyViolation(err) {
		return shared.ErrLessonNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

// GetQuiz returns shared.ErrQuizNotFound if absent.
func (r *QuizRepository) GetQuiz(ctx context.Context, id string) (*quiz.Quiz, error) {
	if !shared.IsValidID(id) {
		return nil, shared.ErrQuizNotFound
	}
	query := `
		SELECT id, lesson_id, title, passing_score, max_attempts, time_limit_minutes, created_at
		FROM quizzes WHERE id = $1`

	var q quiz.Quiz
	err := r.conn.querier(ctx).QueryRow(ctx, query, id).Scan(
		&q.ID, &q.LessonID, &q.Title, &q.PassingScore, &q.MaxAttempts, &q.TimeLimitMinutes, &q.CreatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return &q, nil
}

// LockAttempts takes a transaction-scoped advisory lock on (intern, quiz).
func (r *QuizRepository) LockAttempts(ctx context.Context, internID, quizID string) error {
	return advisoryLock(ctx, r.conn, "attempts:"+internID+":"+quizID)
}

// MaxAttemptNumber returns the highest attempt number, 0 when none exist.
func (r *QuizRepository) MaxAttemptNumber(ctx context.Context, internID, quizID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(attempt_number), 0)
		FROM quiz_attempts
		WHERE intern_id = $1 AND quiz_id = $2`

	var n int
	if err := r.conn.querier(ctx).QueryRow(ctx, query, internID, quizID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to read attempt number: %w", err)
	}
	return n, nil
}

// InsertAttempt appends a. A taken attempt number maps to shared.ErrAttemptConflict.
func (r *QuizRepository) InsertAttempt(ctx context.Context, a *quiz.Attempt) error {
	query := `
		INSERT INTO quiz_attempts (id, intern_id, quiz_id, attempt_number, score, max_score, passed, answers, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		a.ID, a.InternID, a.QuizID, a.AttemptNumber, a.Score, a.MaxScore, a.Passed, string(a.Answers), a.CompletedAt)
	if IsUniqueViolation(err) {
		return shared.ErrAttemptConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

// ListAttempts returns attempts in attempt-number order.
func (r *QuizRepository) ListAttempts(ctx context.Context, internID, quizID string) ([]*quiz.Attempt, error) {
	query := `
		SELECT id, intern_id, quiz_id, attempt_number, score, max_score, passed, answers, completed_at
		FROM quiz_attempts
		WHERE intern_id = $1 AND quiz_id = $2
		ORDER BY attempt_number`

	rows, err := r.conn.querier(ctx).Query(ctx, query, internID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var out []*quiz.Attempt
	for rows.Next() {
		var (
			a       quiz.Attempt
			answers []byte
		)
		if err := rows.Scan(&a.ID, &a.InternID, &a.QuizID, &a.AttemptNumber,
			&a.Score, &a.MaxScore, &a.Passed, &answers, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Answers = answers
		out = append(out, &a)
	}
	return out, rows.Err()
}

// CountPassedQuizzes counts distinct quizzes with at least one passed attempt.
func (r *QuizRepository) CountPassedQuizzes(ctx context.Context, internID string) (int, error) {
	query := `SELECT count(DISTINCT quiz_id) FROM quiz_attempts WHERE intern_id = $1 AND passed`

	var n int
	if err := r.conn.querier(ctx).QueryRow(ctx, query, internID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count passed quizzes: %w", err)
	}
	return n, nil
}

// advisoryLock blocks until the transaction-scoped lock for key is held.
// Outside a transaction the lock is released immediately.
func advisoryLock(ctx context.Context, conn *Connection, key string) error {
	if _, err := conn.querier(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}
	return nil
}
