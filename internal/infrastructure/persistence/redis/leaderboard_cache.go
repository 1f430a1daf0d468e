package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements gamification.LeaderboardCache on a sorted set.
//
// Layout:
//   - Sorted Set "leaderboard:points" maps internID to a rank score
//   - Hash "leaderboard:entries" maps internID to the entry JSON
//
// The rank score orders by points and then badges. Intern code ties are
// resolved in Go after the read.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// Key patterns for leaderboard cache.
const (
	keyLeaderboardPoints  = "leaderboard:points"
	keyLeaderboardEntries = "leaderboard:entries"

	// defaultLeaderboardTTL bounds how long an idle leaderboard survives.
	defaultLeaderboardTTL = 24 * time.Hour

	// badgeWeight must exceed any realistic badge count.
	badgeWeight = 10_000
)

// ErrInternIDEmpty is returned when an entry has no intern ID.
var ErrInternIDEmpty = errors.New("leaderboard_cache: intern id is empty")

// NewLeaderboardCache creates a new LeaderboardCache. A non-positive ttl uses
// the default.
func NewLeaderboardCache(cache *Cache, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = defaultLeaderboardTTL
	}
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

// rankScore folds points and badges into one sorted set score.
func rankScore(e gamification.LeaderboardEntry) float64 {
	return float64(e.TotalPoints)*badgeWeight + float64(e.BadgesEarned)
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Upsert adds or refreshes one entry.
func (l *LeaderboardCache) Upsert(ctx context.Context, entry gamification.LeaderboardEntry) error {
	if entry.InternID == "" {
		return ErrInternIDEmpty
	}

	entry.Rank = 0
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	pipe := l.cache.Client().TxPipeline()
	pipe.ZAdd(ctx, keyLeaderboardPoints, redis.Z{Score: rankScore(entry), Member: entry.InternID})
	pipe.HSet(ctx, keyLeaderboardEntries, entry.InternID, data)
	pipe.Expire(ctx, keyLeaderboardPoints, l.ttl)
	pipe.Expire(ctx, keyLeaderboardEntries, l.ttl)

	_, err = pipe.Exec(ctx)
	return err
}

// Remove drops an intern from the leaderboard.
func (l *LeaderboardCache) Remove(ctx context.Context, internID string) error {
	if internID == "" {
		return ErrInternIDEmpty
	}

	pipe := l.cache.Client().TxPipeline()
	pipe.ZRem(ctx, keyLeaderboardPoints, internID)
	pipe.HDel(ctx, keyLeaderboardEntries, internID)

	_, err := pipe.Exec(ctx)
	return err
}

// Replace clears the leaderboard and writes entries in one transaction.
func (l *LeaderboardCache) Replace(ctx context.Context, entries []gamification.LeaderboardEntry) error {
	members := make([]redis.Z, 0, len(entries))
	hashData := make(map[string]interface{}, len(entries))

	for _, entry := range entries {
		if entry.InternID == "" {
			continue
		}
		entry.Rank = 0
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		members = append(members, redis.Z{Score: rankScore(entry), Member: entry.InternID})
		hashData[entry.InternID] = data
	}

	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, keyLeaderboardPoints, keyLeaderboardEntries)
	if len(members) > 0 {
		pipe.ZAdd(ctx, keyLeaderboardPoints, members...)
		pipe.HSet(ctx, keyLeaderboardEntries, hashData)
		pipe.Expire(ctx, keyLeaderboardPoints, l.ttl)
		pipe.Expire(ctx, keyLeaderboardEntries, l.ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Top returns up to limit entries ranked from 1. Members tied with the last
// one are read too so the intern code tie-break is applied before the cut.
func (l *LeaderboardCache) Top(ctx context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	if limit <= 0 {
		return []gamification.LeaderboardEntry{}, nil
	}
	client := l.cache.Client()

	head, err := client.ZRevRangeWithScores(ctx, keyLeaderboardPoints, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(head) == 0 {
		return []gamification.LeaderboardEntry{}, nil
	}

	ids, err := client.ZRevRangeByScore(ctx, keyLeaderboardPoints, &redis.ZRangeBy{
		Min: strconv.FormatFloat(head[len(head)-1].Score, 'f', -1, 64),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	data, err := client.HMGet(ctx, keyLeaderboardEntries, ids...).Result()
	if err != nil {
		return nil, err
	}

	entries, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}

	gamification.SortLeaderboard(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// decodeEntries parses HMGET values. Missing hash fields are skipped; the
// sorted set and hash can briefly disagree after a partial expiry.
func decodeEntries(values []interface{}) ([]gamification.LeaderboardEntry, error) {
	entries := make([]gamification.LeaderboardEntry, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var entry gamification.LeaderboardEntry
		if err := json.Unmarshal([]byte(str), &entry); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
