// Package memory implements the ledger repositories in process memory.
// A single mutex serializes every unit of work; WithinTx snapshots the state
// and restores it when the unit fails, so callers observe the same
// all-or-nothing behaviour as the PostgreSQL store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
)

type pairKey struct {
	a, b string
}

type dayKey struct {
	internID string
	date     string
}

func newDayKey(internID string, date time.Time) dayKey {
	return dayKey{internID: internID, date: date.Format("2006-01-02")}
}

type state struct {
	interns     map[string]intern.Intern
	attendance  map[dayKey]attendance.Record
	courses     map[string]learning.Course
	modules     map[string]learning.Module
	lessons     map[string]learning.Lesson
	enrollments map[pairKey]learning.Enrollment
	progress    map[pairKey]learning.LessonProgress
	certs       map[pairKey]learning.Certificate
	quizzes     map[string]quiz.Quiz
	attempts    map[pairKey][]quiz.Attempt
	badges      map[string]gamification.Badge
	userBadges  map[pairKey]gamification.UserBadge
	scores      map[string]gamification.UserScore
}

func newState() *state {
	return &state{
		interns:     make(map[string]intern.Intern),
		attendance:  make(map[dayKey]attendance.Record),
		courses:     make(map[string]learning.Course),
		modules:     make(map[string]learning.Module),
		lessons:     make(map[string]learning.Lesson),
		enrollments: make(map[pairKey]learning.Enrollment),
		progress:    make(map[pairKey]learning.LessonProgress),
		certs:       make(map[pairKey]learning.Certificate),
		quizzes:     make(map[string]quiz.Quiz),
		attempts:    make(map[pairKey][]quiz.Attempt),
		badges:      make(map[string]gamification.Badge),
		userBadges:  make(map[pairKey]gamification.UserBadge),
		scores:      make(map[string]gamification.UserScore),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies every table. Entities are stored by value and never mutated
// in place, so a shallow copy per map is a full snapshot.
func (s *state) clone() *state {
	attempts := make(map[pairKey][]quiz.Attempt, len(s.attempts))
	for k, v := range s.attempts {
		attempts[k] = append([]quiz.Attempt(nil), v...)
	}
	return &state{
		interns:     copyMap(s.interns),
		attendance:  copyMap(s.attendance),
		courses:     copyMap(s.courses),
		modules:     copyMap(s.modules),
		lessons:     copyMap(s.lessons),
		enrollments: copyMap(s.enrollments),
		progress:    copyMap(s.progress),
		certs:       copyMap(s.certs),
		quizzes:     copyMap(s.quizzes),
		attempts:    attempts,
		badges:      copyMap(s.badges),
		userBadges:  copyMap(s.userBadges),
		scores:      copyMap(s.scores),
	}
}

// Store is the in-memory implementation of every ledger repository.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New creates an empty store.
func New() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTx runs fn holding the store lock. Repository calls made with the
// context passed to fn reuse the lock; an error or panic restores the
// snapshot taken on entry.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
		s.mu.Unlock()
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// do runs fn against the state, taking the lock unless ctx already holds it.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx(ctx) {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Ping always succeeds; it lets the store stand in for a health-checked database.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Interns returns the intern repository.
func (s *Store) Interns() intern.Repository { return &internRepo{s: s} }

// Attendance returns the attendance repository.
func (s *Store) Attendance() attendance.Repository { return &attendanceRepo{s: s} }

// Learning returns the catalog, enrollment and progress repository.
func (s *Store) Learning() learning.Repository { return &learningRepo{s: s} }

// Quizzes returns the quiz repository.
func (s *Store) Quizzes() quiz.Repository { return &quizRepo{s: s} }

// Gamification returns the badge and score repository.
func (s *Store) Gamification() gamification.Repository { return &gamificationRepo{s: s} }
