package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ATTEMPT COMMAND
// Grades a quiz submission. Attempt numbers per (intern, quiz) are assigned
// under a store lock so they stay gap-free under concurrent submissions.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAttemptCommand contains a graded submission.
type SubmitAttemptCommand struct {
	InternID string
	QuizID   string
	Answers  json.RawMessage
	Score    int
	MaxScore int
}

// Validate rejects impossible scores before anything is persisted.
func (c SubmitAttemptCommand) Validate() error {
	return quiz.ValidateScore(c.Score, c.MaxScore)
}

// SubmitAttemptResult contains the stored attempt.
type SubmitAttemptResult struct {
	Attempt *quiz.Attempt

	// AttemptsRemaining is nil for quizzes without a limit.
	AttemptsRemaining *int

	Events []shared.Event
}

// SubmitAttemptHandler handles SubmitAttemptCommand.
type SubmitAttemptHandler struct {
	interns        intern.Repository
	quizzes        quiz.Repository
	scorer         *RecomputeScoreHandler
	tx             shared.Transactor
	clock          timeutil.Clock
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewSubmitAttemptHandler creates a new SubmitAttemptHandler.
func NewSubmitAttemptHandler(
	interns intern.Repository,
	quizzes quiz.Repository,
	scorer *RecomputeScoreHandler,
	tx shared.Transactor,
	clock timeutil.Clock,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *SubmitAttemptHandler {
	return &SubmitAttemptHandler{
		interns:        interns,
		quizzes:        quizzes,
		scorer:         scorer,
		tx:             tx,
		clock:          clock,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("quiz")),
	}
}

// Handle grades and stores the attempt, then recomputes the score.
func (h *SubmitAttemptHandler) Handle(ctx context.Context, cmd SubmitAttemptCommand) (*SubmitAttemptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.clock.Now()
	result := &SubmitAttemptResult{}

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := h.interns.GetByID(ctx, cmd.InternID); err != nil {
			return err
		}
		q, err := h.quizzes.GetQuiz(ctx, cmd.QuizID)
		if err != nil {
			return err
		}

		if err := h.quizzes.LockAttempts(ctx, cmd.InternID, q.ID); err != nil {
			return fmt.Errorf("lock attempts: %w", err)
		}
		last, err := h.quizzes.MaxAttemptNumber(ctx, cmd.InternID, q.ID)
		if err != nil {
			return err
		}

		attempt, err := quiz.Grade(q, cmd.InternID, last+1, cmd.Score, cmd.MaxScore, cmd.Answers, now)
		if err != nil {
			return err
		}
		if err := h.quizzes.InsertAttempt(ctx, attempt); err != nil {
			return err
		}

		result.Attempt = attempt
		if q.MaxAttempts != nil {
			remaining := *q.MaxAttempts - attempt.AttemptNumber
			result.AttemptsRemaining = &remaining
		}
		result.Events = append(result.Events,
			shared.NewAttemptSubmittedEvent(cmd.InternID, q.ID, attempt.AttemptNumber, attempt.Passed, now))

		scored, err := h.scorer.recompute(ctx, cmd.InternID)
		if err != nil {
			return err
		}
		result.Events = append(result.Events, scored.Events...)
		return nil
	})
	if err != nil {
		if shared.IsLimitExceeded(err) {
			h.log.Info("attempt rejected", logger.InternID(cmd.InternID), logger.QuizID(cmd.QuizID), logger.Err(err))
		}
		return nil, err
	}

	h.log.Info("attempt graded",
		logger.InternID(cmd.InternID),
		logger.QuizID(cmd.QuizID),
		logger.Int("attempt", result.Attempt.AttemptNumber),
		logger.Bool("passed", result.Attempt.Passed),
	)
	publish(h.eventPublisher, h.log, result.Events)
	return result, nil
}
