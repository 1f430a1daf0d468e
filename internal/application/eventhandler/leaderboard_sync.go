// Package eventhandler contains reactions to domain events. Handlers run
// after the originating command committed and only touch derived state such
// as caches; a failure here never affects the ledger itself.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// LEADERBOARD SYNC HANDLER
// Mirrors score changes and intern activation into the leaderboard cache.
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardSyncHandler keeps gamification.LeaderboardCache in step with
// the store.
type LeaderboardSyncHandler struct {
	interns      intern.Repository
	gamification gamification.Repository
	cache        gamification.LeaderboardCache
	logger       *slog.Logger
	timeout      time.Duration
}

// NewLeaderboardSyncHandler creates a new LeaderboardSyncHandler.
func NewLeaderboardSyncHandler(
	interns intern.Repository,
	gamificationRepo gamification.Repository,
	cache gamification.LeaderboardCache,
	logger *slog.Logger,
) *LeaderboardSyncHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardSyncHandler{
		interns:      interns,
		gamification: gamificationRepo,
		cache:        cache,
		logger:       logger.With("handler", "leaderboard_sync"),
		timeout:      5 * time.Second,
	}
}

// Register subscribes the handler to the events it reacts to.
func (h *LeaderboardSyncHandler) Register(sub shared.EventSubscriber) error {
	if err := sub.Subscribe(shared.EventScoreRecomputed, h.Handle); err != nil {
		return err
	}
	return sub.Subscribe(shared.EventInternStatusChanged, h.Handle)
}

// Handle implements shared.EventHandler.
func (h *LeaderboardSyncHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	switch e := event.(type) {
	case shared.ScoreRecomputedEvent:
		return h.refresh(ctx, e.AggregateID())
	case shared.InternStatusChangedEvent:
		if !e.Active {
			h.logger.Info("removing inactive intern from leaderboard", "intern_id", e.AggregateID())
			return h.cache.Remove(ctx, e.AggregateID())
		}
		return h.refresh(ctx, e.AggregateID())
	default:
		h.logger.Warn("unexpected event", "event_type", event.EventType())
		return nil
	}
}

// refresh rereads the intern and score so the cache always holds committed
// values, whatever order events arrive in.
func (h *LeaderboardSyncHandler) refresh(ctx context.Context, internID string) error {
	in, err := h.interns.GetByID(ctx, internID)
	if err != nil {
		return err
	}
	if !in.IsActive {
		return h.cache.Remove(ctx, internID)
	}

	score, err := h.gamification.GetScore(ctx, internID)
	if shared.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	err = h.cache.Upsert(ctx, gamification.LeaderboardEntry{
		InternID:     in.ID,
		InternCode:   in.Code.String(),
		Name:         in.Name,
		Department:   in.Department,
		TotalPoints:  score.TotalPoints,
		BadgesEarned: score.BadgesEarned,
	})
	if err != nil {
		return err
	}

	h.logger.Debug("leaderboard entry refreshed", "intern_id", internID, "total_points", score.TotalPoints)
	return nil
}
