package redis

import (
	"context"
	"errors"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/pkg/circuitbreaker"
)

// GuardedLeaderboardCache puts a circuit breaker in front of a leaderboard
// cache. While Redis is down, calls fail immediately with
// circuitbreaker.ErrCircuitOpen and readers go straight to the store.
type GuardedLeaderboardCache struct {
	inner   gamification.LeaderboardCache
	breaker *circuitbreaker.CircuitBreaker
}

var _ gamification.LeaderboardCache = (*GuardedLeaderboardCache)(nil)

// NewGuardedLeaderboardCache wraps inner with breaker.
func NewGuardedLeaderboardCache(inner gamification.LeaderboardCache, breaker *circuitbreaker.CircuitBreaker) *GuardedLeaderboardCache {
	return &GuardedLeaderboardCache{inner: inner, breaker: breaker}
}

// IsCacheFailure reports whether err says Redis itself is unhealthy. Bad
// input and undecodable entries leave the breaker alone.
func IsCacheFailure(err error) bool {
	return !errors.Is(err, ErrInternIDEmpty) && !errors.Is(err, ErrCacheSerialization)
}

// Breaker exposes the breaker for health reporting.
func (g *GuardedLeaderboardCache) Breaker() *circuitbreaker.CircuitBreaker {
	return g.breaker
}

// Top implements gamification.LeaderboardCache.
func (g *GuardedLeaderboardCache) Top(ctx context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	var entries []gamification.LeaderboardEntry
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		entries, err = g.inner.Top(ctx, limit)
		return err
	})
	return entries, err
}

// Upsert implements gamification.LeaderboardCache.
func (g *GuardedLeaderboardCache) Upsert(ctx context.Context, entry gamification.LeaderboardEntry) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Upsert(ctx, entry)
	})
}

// Remove implements gamification.LeaderboardCache.
func (g *GuardedLeaderboardCache) Remove(ctx context.Context, internID string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Remove(ctx, internID)
	})
}

// Replace implements gamification.LeaderboardCache.
func (g *GuardedLeaderboardCache) Replace(ctx context.Context, entries []gamification.LeaderboardEntry) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Replace(ctx, entries)
	})
}
