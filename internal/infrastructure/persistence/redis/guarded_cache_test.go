package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/pkg/circuitbreaker"
)

type flakyCache struct {
	err   error
	calls int
}

func (f *flakyCache) Top(context.Context, int) ([]gamification.LeaderboardEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []gamification.LeaderboardEntry{{InternID: "i-1", Rank: 1}}, nil
}

func (f *flakyCache) Upsert(context.Context, gamification.LeaderboardEntry) error {
	f.calls++
	return f.err
}

func (f *flakyCache) Remove(context.Context, string) error {
	f.calls++
	return f.err
}

func (f *flakyCache) Replace(context.Context, []gamification.LeaderboardEntry) error {
	f.calls++
	return f.err
}

func newGuarded(inner *flakyCache) *GuardedLeaderboardCache {
	return NewGuardedLeaderboardCache(inner, circuitbreaker.New("leaderboard",
		circuitbreaker.WithFailureThreshold(2),
		circuitbreaker.WithIsFailure(IsCacheFailure),
	))
}

func TestGuardedLeaderboardCache_OpensOnRedisErrors(t *testing.T) {
	inner := &flakyCache{err: errors.New("dial tcp: connection refused")}
	g := newGuarded(inner)
	ctx := context.Background()

	_, err := g.Top(ctx, 10)
	require.Error(t, err)
	require.Error(t, g.Upsert(ctx, gamification.LeaderboardEntry{InternID: "i-1"}))
	assert.Equal(t, circuitbreaker.StateOpen, g.Breaker().State())

	_, err = g.Top(ctx, 10)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, g.Remove(ctx, "i-1"), circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, g.Replace(ctx, nil), circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls, "open breaker must not reach Redis")
}

func TestGuardedLeaderboardCache_InputErrorsKeepCircuitClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"empty intern id", ErrInternIDEmpty},
		{"bad payload", ErrCacheSerialization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGuarded(&flakyCache{err: tt.err})
			for i := 0; i < 3; i++ {
				assert.ErrorIs(t, g.Upsert(context.Background(), gamification.LeaderboardEntry{}), tt.err)
			}
			assert.Equal(t, circuitbreaker.StateClosed, g.Breaker().State())
		})
	}
}

func TestGuardedLeaderboardCache_PassesThrough(t *testing.T) {
	g := newGuarded(&flakyCache{})

	entries, err := g.Top(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "i-1", entries[0].InternID)
}
