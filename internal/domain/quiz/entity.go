// Package quiz contains the quiz grader: gap-free attempt numbering per
// (intern, quiz) and pass/fail frozen at submission.
package quiz

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// DefaultPassingScore is used when a quiz is defined without one.
const DefaultPassingScore = 70

// MaxScore bounds an attempt's max score. It matches the INTEGER columns of
// the PostgreSQL store.
const MaxScore = math.MaxInt32

// Quiz is a graded assessment, optionally attached to a lesson.
type Quiz struct {
	ID               string
	LessonID         *string
	Title            string
	PassingScore     int  // percent, 0..100
	MaxAttempts      *int // nil means unlimited
	TimeLimitMinutes *int
	CreatedAt        time.Time
}

// NewQuizParams holds quiz creation input.
type NewQuizParams struct {
	LessonID         *string
	Title            string
	PassingScore     *int
	MaxAttempts      *int
	TimeLimitMinutes *int
}

// NewQuiz validates and builds a quiz.
func NewQuiz(p NewQuizParams, defaultPassing int, now time.Time) (*Quiz, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, shared.InvalidInput("quiz", "Create", "title is required")
	}

	passing := defaultPassing
	if p.PassingScore != nil {
		passing = *p.PassingScore
	}
	if passing < 0 || passing > 100 {
		return nil, shared.InvalidInput("quiz", "Create", "passing score must be between 0 and 100")
	}
	if p.MaxAttempts != nil && *p.MaxAttempts < 1 {
		return nil, shared.InvalidInput("quiz", "Create", "max attempts must be at least 1")
	}
	if p.TimeLimitMinutes != nil && *p.TimeLimitMinutes < 1 {
		return nil, shared.InvalidInput("quiz", "Create", "time limit must be at least 1 minute")
	}

	return &Quiz{
		ID:               shared.NewID(),
		LessonID:         p.LessonID,
		Title:            title,
		PassingScore:     passing,
		MaxAttempts:      p.MaxAttempts,
		TimeLimitMinutes: p.TimeLimitMinutes,
		CreatedAt:        now,
	}, nil
}

// Passes reports whether score out of maxScore meets the passing percentage.
// Integer arithmetic keeps the boundary exact: 7/10 passes a 70% quiz.
func (q *Quiz) Passes(score, maxScore int) bool {
	return int64(score)*100 >= int64(q.PassingScore)*int64(maxScore)
}

// AllowsAttempt reports whether attempt number n is within the quota.
func (q *Quiz) AllowsAttempt(n int) bool {
	return q.MaxAttempts == nil || n <= *q.MaxAttempts
}

// Attempt is one graded submission. Attempts are append-only.
type Attempt struct {
	ID            string
	InternID      string
	QuizID        string
	AttemptNumber int
	Score         int
	MaxScore      int
	Passed        bool
	Answers       json.RawMessage
	CompletedAt   time.Time
}

// ValidateScore rejects scores outside [0, maxScore] and maxima outside
// [1, MaxScore].
func ValidateScore(score, maxScore int) error {
	if maxScore <= 0 {
		return shared.InvalidInput("quiz", "Submit", "max score must be positive")
	}
	if maxScore > MaxScore {
		return shared.InvalidInput("quiz", "Submit", "max score must not exceed %d", MaxScore)
	}
	if score < 0 || score > maxScore {
		return shared.InvalidInput("quiz", "Submit", "score must be between 0 and %d", maxScore)
	}
	return nil
}

// Grade builds attempt number n for q. Callers validate the score first.
func Grade(q *Quiz, internID string, n, score, maxScore int, answers json.RawMessage, now time.Time) (*Attempt, error) {
	if !q.AllowsAttempt(n) {
		return nil, shared.ErrAttemptsExhausted
	}
	if len(answers) == 0 {
		answers = json.RawMessage("null")
	}
	if !json.Valid(answers) {
		return nil, shared.InvalidInput("quiz", "Submit", "answers must be valid JSON")
	}
	return &Attempt{
		ID:            shared.NewID(),
		InternID:      internID,
		QuizID:        q.ID,
		AttemptNumber: n,
		Score:         score,
		MaxScore:      maxScore,
		Passed:        q.Passes(score, maxScore),
		Answers:       answers,
		CompletedAt:   now,
	}, nil
}
