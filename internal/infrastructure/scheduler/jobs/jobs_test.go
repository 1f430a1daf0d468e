package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/application/command"
	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/persistence/memory"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

type discardPublisher struct{}

func (discardPublisher) Publish(shared.Event) error { return nil }

type ledger struct {
	ctx   context.Context
	store *memory.Store
	h     *command.Handlers
}

func newLedger(t *testing.T, codes ...string) (*ledger, []string) {
	t.Helper()
	store := memory.New()
	l := &ledger{
		ctx:   context.Background(),
		store: store,
		h: command.NewHandlers(command.Dependencies{
			Interns:      store.Interns(),
			Attendance:   store.Attendance(),
			Learning:     store.Learning(),
			Quizzes:      store.Quizzes(),
			Gamification: store.Gamification(),
			Tx:           store,
			Clock: &timeutil.FixedClock{
				At:  time.Date(2026, 3, 2, 4, 30, 0, 0, time.UTC),
				Loc: time.FixedZone("Asia/Almaty", 5*60*60),
			},
			Events:              discardPublisher{},
			Logger:              logger.Nop(),
			DefaultPassingScore: 70,
		}),
	}

	ids := make([]string, 0, len(codes))
	for _, code := range codes {
		res, err := l.h.RegisterIntern.Handle(l.ctx, command.RegisterInternCommand{
			Code:       code,
			Name:       "Intern " + code,
			Email:      code + "@example.com",
			Department: "Engineering",
			StartDate:  time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		ids = append(ids, res.Intern.ID)
	}
	return l, ids
}

func TestRecomputeScoresJob_AwardsLateBadges(t *testing.T) {
	l, ids := newLedger(t, "DMRC001", "DMRC002")

	_, err := l.h.Attendance.CheckIn(l.ctx, command.CheckInCommand{InternCode: "DMRC001", Status: "present"})
	require.NoError(t, err)

	// Defined after the check-in, so only a recompute can award it.
	_, err = l.h.Catalog.DefineBadge(l.ctx, command.DefineBadgeCommand{
		Name:     "First Day",
		Criteria: json.RawMessage(`{"days_present": 1}`),
		Points:   20,
	})
	require.NoError(t, err)

	job := NewRecomputeScoresJob(l.store.Interns(), l.h.RecomputeScore, logger.Nop())
	assert.Nil(t, job.LastStats())
	require.NoError(t, job.Run(l.ctx))

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Interns)
	assert.Equal(t, 1, stats.Changed)
	assert.Equal(t, 1, stats.NewBadges)
	assert.Zero(t, stats.Failed)

	score, err := l.store.Gamification().GetScore(l.ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 20, score.TotalPoints)
	assert.Equal(t, 1, score.BadgesEarned)

	require.NoError(t, job.Run(l.ctx))
	assert.Zero(t, job.LastStats().Changed, "second pass finds nothing new")
}

type failingScorer struct {
	failFor string
	inner   ScoreRecomputer
}

func (s failingScorer) Handle(ctx context.Context, cmd command.RecomputeScoreCommand) (*command.RecomputeScoreResult, error) {
	if cmd.InternID == s.failFor {
		return nil, errors.New("lock timeout")
	}
	return s.inner.Handle(ctx, cmd)
}

func TestRecomputeScoresJob_ContinuesPastFailures(t *testing.T) {
	l, ids := newLedger(t, "DMRC001", "DMRC002", "DMRC003")

	job := NewRecomputeScoresJob(l.store.Interns(), failingScorer{failFor: ids[1], inner: l.h.RecomputeScore}, nil)
	err := job.Run(l.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3")
	assert.Equal(t, 1, job.LastStats().Failed)
}

type recordingCache struct {
	replaced []gamification.LeaderboardEntry
	err      error
}

func (c *recordingCache) Top(context.Context, int) ([]gamification.LeaderboardEntry, error) {
	return nil, nil
}
func (c *recordingCache) Upsert(context.Context, gamification.LeaderboardEntry) error { return nil }
func (c *recordingCache) Remove(context.Context, string) error                        { return nil }
func (c *recordingCache) Replace(_ context.Context, entries []gamification.LeaderboardEntry) error {
	if c.err != nil {
		return c.err
	}
	c.replaced = entries
	return nil
}

func TestRebuildLeaderboardJob(t *testing.T) {
	l, _ := newLedger(t, "DMRC002", "DMRC001")

	cache := &recordingCache{}
	job := NewRebuildLeaderboardJob(l.store.Gamification(), cache, logger.Nop(), 0)
	assert.Equal(t, "rebuild_leaderboard", job.Name())

	require.NoError(t, job.Run(l.ctx))
	require.Len(t, cache.replaced, 2)
	assert.Equal(t, "DMRC001", cache.replaced[0].InternCode, "ties resolve by intern code")
	assert.Equal(t, 2, job.LastStats().Entries)

	cache.err = errors.New("connection refused")
	err := job.Run(l.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replace cached leaderboard")
}
