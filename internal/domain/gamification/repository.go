package gamification

import "context"

// Repository stores badges, awards and scores.
type Repository interface {
	// CreateBadge inserts b. Returns shared.ErrBadgeExists on a duplicate name.
	CreateBadge(ctx context.Context, b *Badge) error

	// ListBadges returns every badge definition ordered by name.
	ListBadges(ctx context.Context) ([]*Badge, error)

	// ListUserBadges returns an intern's awards, oldest first.
	ListUserBadges(ctx context.Context, internID string) ([]*UserBadge, error)

	// AwardBadge inserts the award unless it exists. Reports whether it was new.
	AwardBadge(ctx context.Context, ub *UserBadge) (bool, error)

	// LockScore serializes score recomputation for an intern until the
	// surrounding unit of work ends.
	LockScore(ctx context.Context, internID string) error

	// GetScore returns shared.ErrScoreNotFound when never computed.
	GetScore(ctx context.Context, internID string) (*UserScore, error)

	// SaveScore upserts the intern's single score row.
	SaveScore(ctx context.Context, s *UserScore) error

	// TopScores returns active interns ordered by total points, ranked from 1.
	TopScores(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// LeaderboardCache keeps a hot copy of the leaderboard outside the store.
// It is best-effort: callers fall back to Repository.TopScores on any error.
type LeaderboardCache interface {
	// Top returns up to limit entries ranked from 1. An empty result means
	// the cache is cold.
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// Upsert adds or refreshes one intern's entry.
	Upsert(ctx context.Context, entry LeaderboardEntry) error

	// Remove drops an intern, e.g. after deactivation.
	Remove(ctx context.Context, internID string) error

	// Replace swaps the whole leaderboard for entries.
	Replace(ctx context.Context, entries []LeaderboardEntry) error
}
