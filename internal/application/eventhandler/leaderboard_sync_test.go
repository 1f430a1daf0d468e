package eventhandler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/application/command"
	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/messaging"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/persistence/memory"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string]gamification.LeaderboardEntry
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]gamification.LeaderboardEntry{}}
}

func (c *mapCache) Top(_ context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]gamification.LeaderboardEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	gamification.SortLeaderboard(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *mapCache) Upsert(_ context.Context, e gamification.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.InternID] = e
	return nil
}

func (c *mapCache) Remove(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (c *mapCache) Replace(_ context.Context, entries []gamification.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]gamification.LeaderboardEntry{}
	for _, e := range entries {
		c.entries[e.InternID] = e
	}
	return nil
}

func (c *mapCache) get(id string) (gamification.LeaderboardEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

type env struct {
	ctx   context.Context
	store *memory.Store
	cache *mapCache
	cmd   *command.Handlers
}

// newEnv wires the handlers to a synchronous bus so cache effects are
// visible as soon as a command returns.
func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	cache := newMapCache()
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{})
	t.Cleanup(func() { _ = bus.Close() })

	lb := NewLeaderboardSyncHandler(store.Interns(), store.Gamification(), cache, nil)
	require.NoError(t, lb.Register(bus))
	require.NoError(t, NewAuditLogHandler(logger.Nop().Slog()).Register(bus))

	clock := &timeutil.FixedClock{At: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	return &env{
		ctx:   context.Background(),
		store: store,
		cache: cache,
		cmd: command.NewHandlers(command.Dependencies{
			Interns:      store.Interns(),
			Attendance:   store.Attendance(),
			Learning:     store.Learning(),
			Quizzes:      store.Quizzes(),
			Gamification: store.Gamification(),
			Tx:           store,
			Clock:        clock,
			Events:       bus,
			Logger:       logger.Nop(),
		}),
	}
}

func (e *env) register(t *testing.T, code string) string {
	t.Helper()
	res, err := e.cmd.RegisterIntern.Handle(e.ctx, command.RegisterInternCommand{
		Code: code, Name: "Intern " + code, Email: code + "@example.com",
		Department: "Eng", StartDate: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return res.Intern.ID
}

func TestLeaderboardSync_FollowsScoreChanges(t *testing.T) {
	e := newEnv(t)
	_, err := e.cmd.Catalog.DefineBadge(e.ctx, command.DefineBadgeCommand{
		Name: "First Day", Criteria: []byte(`{"days_present":1}`), Points: 20,
	})
	require.NoError(t, err)

	id := e.register(t, "DMRC001")
	entry, ok := e.cache.get(id)
	require.True(t, ok, "registration publishes the zero score")
	assert.Equal(t, 0, entry.TotalPoints)
	assert.Equal(t, "DMRC001", entry.InternCode)

	_, err = e.cmd.Attendance.CheckIn(e.ctx, command.CheckInCommand{InternCode: "DMRC001", Status: "present"})
	require.NoError(t, err)

	entry, ok = e.cache.get(id)
	require.True(t, ok)
	assert.Equal(t, 20, entry.TotalPoints)
	assert.Equal(t, 1, entry.BadgesEarned)
}

func TestLeaderboardSync_Deactivation(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "DMRC001")

	_, err := e.cmd.SetInternActive.Handle(e.ctx, command.SetInternActiveCommand{InternID: id, Active: false})
	require.NoError(t, err)
	_, ok := e.cache.get(id)
	assert.False(t, ok)

	_, err = e.cmd.SetInternActive.Handle(e.ctx, command.SetInternActiveCommand{InternID: id, Active: true})
	require.NoError(t, err)
	_, ok = e.cache.get(id)
	assert.True(t, ok)
}

func TestLeaderboardSync_StaleEventUsesCommittedState(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "DMRC001")
	_, err := e.cmd.SetInternActive.Handle(e.ctx, command.SetInternActiveCommand{InternID: id, Active: false})
	require.NoError(t, err)

	h := NewLeaderboardSyncHandler(e.store.Interns(), e.store.Gamification(), e.cache, nil)
	stale := shared.NewScoreRecomputedEvent(id, 500, 1, 1, 1, time.Now())
	require.NoError(t, h.Handle(stale))

	_, ok := e.cache.get(id)
	assert.False(t, ok, "an inactive intern never reenters the cache")
}

func TestLeaderboardSync_UnknownIntern(t *testing.T) {
	e := newEnv(t)
	h := NewLeaderboardSyncHandler(e.store.Interns(), e.store.Gamification(), e.cache, nil)

	err := h.Handle(shared.NewScoreRecomputedEvent(shared.NewID(), 1, 0, 0, 0, time.Now()))
	assert.True(t, shared.IsNotFound(err))
}
