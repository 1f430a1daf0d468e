// Package jobs contains the scheduled maintenance jobs of the ledger.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob replaces the cached leaderboard with the store's
// ranking, repairing any entries the event-driven sync missed.
type RebuildLeaderboardJob struct {
	scores  gamification.Repository
	cache   gamification.LeaderboardCache
	log     *logger.Logger
	timeout time.Duration

	last atomic.Pointer[RebuildStats]
}

// RebuildStats describes one rebuild.
type RebuildStats struct {
	CompletedAt time.Time     `json:"completed_at"`
	Took        time.Duration `json:"took"`
	Entries     int           `json:"entries"`
}

// NewRebuildLeaderboardJob creates the job. A non-positive timeout means one
// minute.
func NewRebuildLeaderboardJob(
	scores gamification.Repository,
	cache gamification.LeaderboardCache,
	log *logger.Logger,
	timeout time.Duration,
) *RebuildLeaderboardJob {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &RebuildLeaderboardJob{
		scores:  scores,
		cache:   cache,
		log:     log.With(logger.String("job", "rebuild_leaderboard")),
		timeout: timeout,
	}
}

// Name implements scheduler.Job.
func (j *RebuildLeaderboardJob) Name() string { return "rebuild_leaderboard" }

// Description implements scheduler.Job.
func (j *RebuildLeaderboardJob) Description() string {
	return "Replaces the cached leaderboard with the ranking from the store"
}

// Run implements scheduler.Job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	started := time.Now()
	entries, err := j.scores.TopScores(ctx, 0)
	if err != nil {
		return fmt.Errorf("load ranking: %w", err)
	}
	if err := j.cache.Replace(ctx, entries); err != nil {
		return fmt.Errorf("replace cached leaderboard: %w", err)
	}

	stats := &RebuildStats{
		CompletedAt: time.Now(),
		Took:        time.Since(started),
		Entries:     len(entries),
	}
	j.last.Store(stats)

	j.log.Debug("leaderboard rebuilt", logger.Int("entries", stats.Entries), logger.Latency(stats.Took))
	return nil
}

// LastStats returns the most recent successful rebuild, or nil.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	return j.last.Load()
}
