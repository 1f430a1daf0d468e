package command

import (
	"context"
	"fmt"

	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE SCORE COMMAND
// Derives an intern's UserScore from the facts recorded about them and awards
// any badge whose criteria now hold. Every state-changing command runs this in
// its own transaction so the score never lags the facts.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeScoreCommand asks for a fresh score.
type RecomputeScoreCommand struct {
	InternID string
}

// Validate validates the command.
func (c RecomputeScoreCommand) Validate() error {
	if !shared.IsValidID(c.InternID) {
		return shared.InvalidInput("gamification", "RecomputeScore", "intern_id must be a UUID")
	}
	return nil
}

// RecomputeScoreResult contains the score after recomputation.
type RecomputeScoreResult struct {
	Score *gamification.UserScore

	// Changed is false when the counters matched the stored score and the
	// write was skipped.
	Changed bool

	// NewBadges lists badges awarded by this run.
	NewBadges []*gamification.Badge

	Events []shared.Event
}

// ScoreRepos bundles the stores the engine reads facts from.
type ScoreRepos struct {
	Interns      intern.Repository
	Attendance   attendance.Repository
	Learning     learning.Repository
	Quizzes      quiz.Repository
	Gamification gamification.Repository
}

// RecomputeScoreHandler is the scoring engine.
type RecomputeScoreHandler struct {
	repos          ScoreRepos
	tx             shared.Transactor
	clock          timeutil.Clock
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewRecomputeScoreHandler creates a new RecomputeScoreHandler.
func NewRecomputeScoreHandler(
	repos ScoreRepos,
	tx shared.Transactor,
	clock timeutil.Clock,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *RecomputeScoreHandler {
	return &RecomputeScoreHandler{
		repos:          repos,
		tx:             tx,
		clock:          clock,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("scoring")),
	}
}

// Handle recomputes the score in its own transaction and publishes the
// resulting events after commit.
func (h *RecomputeScoreHandler) Handle(ctx context.Context, cmd RecomputeScoreCommand) (*RecomputeScoreResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *RecomputeScoreResult
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = h.recompute(ctx, cmd.InternID)
		return err
	})
	if err != nil {
		return nil, err
	}

	publish(h.eventPublisher, h.log, result.Events)
	return result, nil
}

// recompute runs inside the caller's transaction. Events are returned, not
// published; the caller publishes once its unit of work commits.
func (h *RecomputeScoreHandler) recompute(ctx context.Context, internID string) (*RecomputeScoreResult, error) {
	if _, err := h.repos.Interns.GetByID(ctx, internID); err != nil {
		return nil, err
	}

	if err := h.repos.Gamification.LockScore(ctx, internID); err != nil {
		return nil, fmt.Errorf("lock score: %w", err)
	}

	counters, err := h.counters(ctx, internID)
	if err != nil {
		return nil, err
	}

	badges, err := h.repos.Gamification.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	owned, err := h.repos.Gamification.ListUserBadges(ctx, internID)
	if err != nil {
		return nil, fmt.Errorf("list user badges: %w", err)
	}

	earned := make(map[string]bool, len(owned))
	for _, ub := range owned {
		earned[ub.BadgeID] = true
	}

	now := h.clock.Now()
	result := &RecomputeScoreResult{}

	for _, b := range gamification.NewlyEarned(badges, earned, counters) {
		created, err := h.repos.Gamification.AwardBadge(ctx, &gamification.UserBadge{
			InternID:  internID,
			BadgeID:   b.ID,
			BadgeName: b.Name,
			Points:    b.Points,
			EarnedAt:  now,
		})
		if err != nil {
			return nil, fmt.Errorf("award badge %s: %w", b.Name, err)
		}
		earned[b.ID] = true
		if created {
			result.NewBadges = append(result.NewBadges, b)
			result.Events = append(result.Events, shared.NewBadgeEarnedEvent(internID, b.ID, b.Name, b.Points, now))
		}
	}

	held := make([]*gamification.Badge, 0, len(earned))
	for _, b := range badges {
		if earned[b.ID] {
			held = append(held, b)
		}
	}

	score := gamification.Derive(internID, counters, held, now)

	previous, err := h.repos.Gamification.GetScore(ctx, internID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("get score: %w", err)
	}
	if previous.SameCounters(score) {
		result.Score = previous
		return result, nil
	}

	if err := h.repos.Gamification.SaveScore(ctx, score); err != nil {
		return nil, fmt.Errorf("save score: %w", err)
	}

	result.Score = score
	result.Changed = true
	result.Events = append(result.Events, shared.NewScoreRecomputedEvent(
		internID, score.TotalPoints, score.CoursesCompleted, score.QuizzesPassed, score.BadgesEarned, now,
	))
	return result, nil
}

func (h *RecomputeScoreHandler) counters(ctx context.Context, internID string) (gamification.Counters, error) {
	var c gamification.Counters
	var err error

	if c.CoursesCompleted, err = h.repos.Learning.CountCompletedEnrollments(ctx, internID); err != nil {
		return c, fmt.Errorf("count completed courses: %w", err)
	}
	if c.QuizzesPassed, err = h.repos.Quizzes.CountPassedQuizzes(ctx, internID); err != nil {
		return c, fmt.Errorf("count passed quizzes: %w", err)
	}
	if c.LessonsCompleted, err = h.repos.Learning.CountCompletedLessons(ctx, internID); err != nil {
		return c, fmt.Errorf("count completed lessons: %w", err)
	}
	if c.DaysPresent, err = h.repos.Attendance.CountPresentDays(ctx, internID); err != nil {
		return c, fmt.Errorf("count present days: %w", err)
	}
	return c, nil
}

// publish hands events to the bus. Delivery failures are logged: the facts
// are already committed.
func publish(p shared.EventPublisher, log *logger.Logger, events []shared.Event) {
	if p == nil {
		return
	}
	for _, event := range events {
		if err := p.Publish(event); err != nil {
			log.Warn("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}
}
