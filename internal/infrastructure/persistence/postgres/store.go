package postgres

import (
	"context"

	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
)

// Store exposes every ledger repository over one connection pool.
type Store struct {
	conn *Connection
}

// NewStore creates a Store on conn.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// WithinTx implements shared.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.conn.WithinTx(ctx, fn)
}

// Ping checks the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Interns returns the intern repository.
func (s *Store) Interns() intern.Repository { return NewInternRepository(s.conn) }

// Attendance returns the attendance repository.
func (s *Store) Attendance() attendance.Repository { return NewAttendanceRepository(s.conn) }

// Learning returns the catalog, enrollment and progress repository.
func (s *Store) Learning() learning.Repository { return NewLearningRepository(s.conn) }

// Quizzes returns the quiz repository.
func (s *Store) Quizzes() quiz.Repository { return NewQuizRepository(s.conn) }

// Gamification returns the badge and score repository.
func (s *Store) Gamification() gamification.Repository { return NewGamificationRepository(s.conn) }

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}
