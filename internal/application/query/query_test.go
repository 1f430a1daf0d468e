package query

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

type env struct {
	ctx   context.Context
	store *memory.Store
	clock *timeutil.FixedClock
	cmd   *command.Handlers
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	clock := &timeutil.FixedClock{At: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	return &env{
		ctx:   context.Background(),
		store: store,
		clock: clock,
		cmd: command.NewHandlers(command.Dependencies{
			Interns:      store.Interns(),
			Attendance:   store.Attendance(),
			Learning:     store.Learning(),
			Quizzes:      store.Quizzes(),
			Gamification: store.Gamification(),
			Tx:           store,
			Clock:        clock,
			Logger:       logger.Nop(),
		}),
	}
}

func (e *env) register(t *testing.T, code, department string) string {
	t.Helper()
	res, err := e.cmd.RegisterIntern.Handle(e.ctx, command.RegisterInternCommand{
		Code: code, Name: "Intern " + code, Email: code + "@example.com",
		Department: department, StartDate: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return res.Intern.ID
}

func (e *env) checkIn(t *testing.T, code, status string) {
	t.Helper()
	_, err := e.cmd.Attendance.CheckIn(e.ctx, command.CheckInCommand{InternCode: code, Status: status})
	require.NoError(t, err)
}

func TestAttendance_DailyAndStats(t *testing.T) {
	e := newEnv(t)
	e.register(t, "DMRC001", "Eng")
	e.register(t, "DMRC002", "Eng")
	e.register(t, "DMRC003", "Ops")
	idle := e.register(t, "DMRC004", "Ops")
	_, err := e.cmd.SetInternActive.Handle(e.ctx, command.SetInternActiveCommand{InternID: idle})
	require.NoError(t, err)

	e.checkIn(t, "DMRC001", "present")
	e.checkIn(t, "DMRC002", "late")

	h := NewAttendanceHandler(e.store.Interns(), e.store.Attendance(), e.clock)

	daily, err := h.Daily(e.ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", daily.Date)
	require.Len(t, daily.Records, 2)
	codes := []string{daily.Records[0].InternCode, daily.Records[1].InternCode}
	assert.ElementsMatch(t, []string{"DMRC001", "DMRC002"}, codes)

	stats, err := h.Stats(e.ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, DailyStatsDTO{
		Date: "2026-03-02", Present: 1, Late: 1, Absent: 0, TotalInterns: 3, NotCheckedIn: 1,
	}, *stats)

	empty, err := h.Stats(e.ctx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, empty.NotCheckedIn)
}

func TestAttendance_ForIntern(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "DMRC001", "Eng")
	e.checkIn(t, "DMRC001", "present")
	e.clock.Advance(24 * time.Hour)
	e.checkIn(t, "DMRC001", "late")

	h := NewAttendanceHandler(e.store.Interns(), e.store.Attendance(), e.clock)

	records, err := h.ForIntern(e.ctx, InternAttendanceQuery{InternID: id})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2026-03-02", records[0].Date)
	assert.Equal(t, "late", records[1].Status)

	_, err = h.ForIntern(e.ctx, InternAttendanceQuery{
		InternID: id,
		From:     time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, shared.IsInvalidInput(err))

	_, err = h.ForIntern(e.ctx, InternAttendanceQuery{InternID: shared.NewID()})
	assert.True(t, shared.IsNotFound(err))
}

func TestInterns_ListAndGet(t *testing.T) {
	e := newEnv(t)
	e.register(t, "DMRC002", "Eng")
	id := e.register(t, "DMRC001", "Ops")

	h := NewInternsHandler(e.store.Interns())

	all, err := h.List(e.ctx, ListInternsQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "DMRC001", all[0].InternCode)

	ops, err := h.List(e.ctx, ListInternsQuery{Department: "Ops"})
	require.NoError(t, err)
	require.Len(t, ops, 1)

	got, err := h.Get(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "dmrc001@example.com", got.Email)
	assert.Equal(t, "2026-02-02", got.StartDate)

	_, err = h.Get(e.ctx, "bogus")
	assert.True(t, shared.IsNotFound(err))
}

func TestScore_IncludesBadges(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "DMRC001", "Eng")
	_, err := e.cmd.Catalog.DefineBadge(e.ctx, command.DefineBadgeCommand{
		Name: "Punctual", Criteria: json.RawMessage(`{"days_present":1}`), Points: 15,
	})
	require.NoError(t, err)
	e.checkIn(t, "DMRC001", "present")

	h := NewScoreHandler(e.store.Interns(), e.store.Gamification(), nil, e.clock, ScoreConfig{}, logger.Nop())
	score, err := h.Score(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 15, score.TotalPoints)
	require.Len(t, score.Badges, 1)
	assert.Equal(t, "Punctual", score.Badges[0].Name)
}

// stubCache is an in-memory LeaderboardCache.
type stubCache struct {
	entries  []gamification.LeaderboardEntry
	readErr  error
	replaced int
}

func (c *stubCache) Top(_ context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	if len(c.entries) > limit {
		return c.entries[:limit], nil
	}
	return c.entries, nil
}

func (c *stubCache) Upsert(context.Context, gamification.LeaderboardEntry) error { return nil }
func (c *stubCache) Remove(context.Context, string) error                        { return nil }

func (c *stubCache) Replace(_ context.Context, entries []gamification.LeaderboardEntry) error {
	c.entries = append([]gamification.LeaderboardEntry(nil), entries...)
	c.replaced++
	return nil
}

func seedLeaderboard(t *testing.T, e *env) {
	t.Helper()
	_, err := e.cmd.Catalog.DefineBadge(e.ctx, command.DefineBadgeCommand{
		Name: "Present", Criteria: json.RawMessage(`{"days_present":1}`), Points: 10,
	})
	require.NoError(t, err)
	e.register(t, "DMRC003", "Eng")
	e.register(t, "DMRC001", "Eng")
	e.register(t, "DMRC002", "Eng")
	e.checkIn(t, "DMRC002", "present")
}

func TestLeaderboard_StoreFallbackWarmsCache(t *testing.T) {
	e := newEnv(t)
	seedLeaderboard(t, e)

	cache := &stubCache{}
	h := NewScoreHandler(e.store.Interns(), e.store.Gamification(), cache, e.clock, ScoreConfig{DefaultLimit: 2, MaxLimit: 10}, logger.Nop())

	res, err := h.Leaderboard(e.ctx, LeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, SourceStore, res.Source)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "DMRC002", res.Entries[0].InternCode)
	assert.Equal(t, 1, res.Entries[0].Rank)
	assert.Equal(t, "DMRC001", res.Entries[1].InternCode, "ties break on intern code")
	assert.Len(t, cache.entries, 3, "the cache is warmed with the full board")

	res, err = h.Leaderboard(e.ctx, LeaderboardQuery{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.Len(t, res.Entries, 3)
	assert.Equal(t, 1, cache.replaced)
}

func TestLeaderboard_CacheFailureFallsBack(t *testing.T) {
	e := newEnv(t)
	seedLeaderboard(t, e)

	cache := &stubCache{readErr: errors.New("connection refused")}
	h := NewScoreHandler(e.store.Interns(), e.store.Gamification(), cache, e.clock, ScoreConfig{}, logger.Nop())

	res, err := h.Leaderboard(e.ctx, LeaderboardQuery{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, SourceStore, res.Source)
	assert.Len(t, res.Entries, 3)
}

func TestLeaderboard_WithoutCache(t *testing.T) {
	e := newEnv(t)

	h := NewScoreHandler(e.store.Interns(), e.store.Gamification(), nil, e.clock, ScoreConfig{}, logger.Nop())
	res, err := h.Leaderboard(e.ctx, LeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, SourceStore, res.Source)
	assert.NotNil(t, res.Entries)
	assert.Empty(t, res.Entries)
}
