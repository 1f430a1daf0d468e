package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/intern-hub/progress-ledger/internal/application/command"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE SCORES JOB
// ══════════════════════════════════════════════════════════════════════════════

// ScoreRecomputer is the scoring command the job drives.
type ScoreRecomputer interface {
	Handle(ctx context.Context, cmd command.RecomputeScoreCommand) (*command.RecomputeScoreResult, error)
}

// RecomputeScoresJob recomputes every active intern's score. It awards
// badges defined after the intern's last activity and repairs any drift
// between the stored counters and the underlying records.
type RecomputeScoresJob struct {
	interns intern.Repository
	scorer  ScoreRecomputer
	log     *logger.Logger

	last atomic.Pointer[RecomputeStats]
}

// RecomputeStats summarises one pass.
type RecomputeStats struct {
	CompletedAt time.Time     `json:"completed_at"`
	Took        time.Duration `json:"took"`
	Interns     int           `json:"interns"`
	Changed     int           `json:"changed"`
	NewBadges   int           `json:"new_badges"`
	Failed      int           `json:"failed"`
}

// NewRecomputeScoresJob creates the job.
func NewRecomputeScoresJob(interns intern.Repository, scorer ScoreRecomputer, log *logger.Logger) *RecomputeScoresJob {
	if log == nil {
		log = logger.Nop()
	}
	return &RecomputeScoresJob{
		interns: interns,
		scorer:  scorer,
		log:     log.With(logger.String("job", "recompute_scores")),
	}
}

// Name implements scheduler.Job.
func (j *RecomputeScoresJob) Name() string { return "recompute_scores" }

// Description implements scheduler.Job.
func (j *RecomputeScoresJob) Description() string {
	return "Recomputes scores and awards newly earned badges for every active intern"
}

// Run implements scheduler.Job. One intern's failure does not stop the pass;
// the returned error reports how many failed.
func (j *RecomputeScoresJob) Run(ctx context.Context) error {
	started := time.Now()

	active, err := j.interns.List(ctx, intern.ListFilter{ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("list active interns: %w", err)
	}

	stats := &RecomputeStats{Interns: len(active)}
	for _, in := range active {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := j.scorer.Handle(ctx, command.RecomputeScoreCommand{InternID: in.ID})
		if err != nil {
			stats.Failed++
			j.log.Warn("recompute failed", logger.InternID(in.ID), logger.Err(err))
			continue
		}
		if res.Changed {
			stats.Changed++
		}
		stats.NewBadges += len(res.NewBadges)
	}

	stats.CompletedAt = time.Now()
	stats.Took = time.Since(started)
	j.last.Store(stats)

	j.log.Info("scores recomputed",
		logger.Int("interns", stats.Interns),
		logger.Int("changed", stats.Changed),
		logger.Int("new_badges", stats.NewBadges),
		logger.Int("failed", stats.Failed),
		logger.Latency(stats.Took),
	)

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d recomputes failed", stats.Failed, stats.Interns)
	}
	return nil
}

// LastStats returns the most recent pass, or nil.
func (j *RecomputeScoresJob) LastStats() *RecomputeStats {
	return j.last.Load()
}
