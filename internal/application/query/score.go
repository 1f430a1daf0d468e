package query

import (
	"context"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE & LEADERBOARD QUERIES
// The leaderboard is read from the cache when one is configured; a cold or
// failing cache falls back to the store and is rewarmed.
// ══════════════════════════════════════════════════════════════════════════════

// Leaderboard sources.
const (
	SourceCache = "cache"
	SourceStore = "store"
)

// LeaderboardQuery selects the top of the leaderboard.
type LeaderboardQuery struct {
	Limit int
}

// LeaderboardResult is the ranked list.
type LeaderboardResult struct {
	Entries     []gamification.LeaderboardEntry `json:"entries"`
	Source      string                          `json:"source"`
	GeneratedAt time.Time                       `json:"generated_at"`
}

// ScoreConfig configures score reads.
type ScoreConfig struct {
	// DefaultLimit applies when a leaderboard query has no limit.
	DefaultLimit int

	// MaxLimit caps the leaderboard size.
	MaxLimit int
}

// ScoreHandler serves scores and the leaderboard.
type ScoreHandler struct {
	interns      intern.Repository
	gamification gamification.Repository
	cache        gamification.LeaderboardCache
	clock        timeutil.Clock
	config       ScoreConfig
	log          *logger.Logger
}

// NewScoreHandler creates a new ScoreHandler. cache may be nil.
func NewScoreHandler(
	interns intern.Repository,
	gamificationRepo gamification.Repository,
	cache gamification.LeaderboardCache,
	clock timeutil.Clock,
	config ScoreConfig,
	log *logger.Logger,
) *ScoreHandler {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 50
	}
	if config.MaxLimit < config.DefaultLimit {
		config.MaxLimit = config.DefaultLimit
	}
	return &ScoreHandler{
		interns:      interns,
		gamification: gamificationRepo,
		cache:        cache,
		clock:        clock,
		config:       config,
		log:          log.With(logger.Component("leaderboard")),
	}
}

// Score returns an intern's score with the badges they hold.
func (h *ScoreHandler) Score(ctx context.Context, internID string) (*ScoreDTO, error) {
	if _, err := h.interns.GetByID(ctx, internID); err != nil {
		return nil, err
	}
	score, err := h.gamification.GetScore(ctx, internID)
	if err != nil {
		return nil, err
	}
	badges, err := h.gamification.ListUserBadges(ctx, internID)
	if err != nil {
		return nil, err
	}
	dto := ToScoreDTO(score, badges)
	return &dto, nil
}

// Leaderboard returns the top entries by total points.
func (h *ScoreHandler) Leaderboard(ctx context.Context, q LeaderboardQuery) (*LeaderboardResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	if limit > h.config.MaxLimit {
		limit = h.config.MaxLimit
	}

	if h.cache != nil {
		entries, err := h.cache.Top(ctx, limit)
		switch {
		case err != nil:
			h.log.Warn("leaderboard cache read failed", logger.Err(err))
		case len(entries) > 0:
			return &LeaderboardResult{Entries: entries, Source: SourceCache, GeneratedAt: h.clock.Now()}, nil
		}
	}

	// The cache is rewarmed with the full board so later reads with a larger
	// limit are still complete.
	all, err := h.gamification.TopScores(ctx, 0)
	if err != nil {
		return nil, err
	}
	if h.cache != nil && len(all) > 0 {
		if err := h.cache.Replace(ctx, all); err != nil {
			h.log.Warn("leaderboard cache warm failed", logger.Err(err))
		}
	}

	if len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []gamification.LeaderboardEntry{}
	}
	return &LeaderboardResult{Entries: all, Source: SourceStore, GeneratedAt: h.clock.Now()}, nil
}
