package gamification

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// ══════════════════════════════════════════════════════════════════════════════

// Badge is an award granted once when its criteria hold.
type Badge struct {
	ID          string
	Name        string
	Description string
	Criteria    Criteria
	Points      int
	CreatedAt   time.Time
}

// NewBadge validates and builds a badge definition.
func NewBadge(name, description string, criteria json.RawMessage, points int, now time.Time) (*Badge, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidInput("gamification", "DefineBadge", "name is required")
	}
	if points < 0 {
		return nil, shared.InvalidInput("gamification", "DefineBadge", "points must not be negative")
	}
	c, err := ParseCriteria(criteria)
	if err != nil {
		return nil, err
	}
	return &Badge{
		ID:          shared.NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Criteria:    c,
		Points:      points,
		CreatedAt:   now,
	}, nil
}

// UserBadge records that an intern earned a badge. Never revoked.
type UserBadge struct {
	InternID  string
	BadgeID   string
	BadgeName string
	Points    int
	EarnedAt  time.Time
}

// NewlyEarned returns the badges whose criteria hold and that are not in earned.
func NewlyEarned(badges []*Badge, earned map[string]bool, counters Counters) []*Badge {
	var out []*Badge
	for _, b := range badges {
		if earned[b.ID] {
			continue
		}
		if b.Criteria.Holds(counters) {
			out = append(out, b)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE
// ══════════════════════════════════════════════════════════════════════════════

// UserScore is the derived aggregate for one intern.
type UserScore struct {
	InternID         string
	TotalPoints      int
	CoursesCompleted int
	QuizzesPassed    int
	BadgesEarned     int
	LessonsCompleted int
	DaysPresent      int
	UpdatedAt        time.Time
}

// Derive builds the score from counters and the full set of earned badges.
func Derive(internID string, counters Counters, earned []*Badge, now time.Time) *UserScore {
	total := 0
	for _, b := range earned {
		total += b.Points
	}
	return &UserScore{
		InternID:         internID,
		TotalPoints:      total,
		CoursesCompleted: counters.CoursesCompleted,
		QuizzesPassed:    counters.QuizzesPassed,
		BadgesEarned:     len(earned),
		LessonsCompleted: counters.LessonsCompleted,
		DaysPresent:      counters.DaysPresent,
		UpdatedAt:        now,
	}
}

// SameCounters reports whether two scores differ only in UpdatedAt.
func (s *UserScore) SameCounters(o *UserScore) bool {
	if s == nil || o == nil {
		return false
	}
	return s.TotalPoints == o.TotalPoints &&
		s.CoursesCompleted == o.CoursesCompleted &&
		s.QuizzesPassed == o.QuizzesPassed &&
		s.BadgesEarned == o.BadgesEarned &&
		s.LessonsCompleted == o.LessonsCompleted &&
		s.DaysPresent == o.DaysPresent
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	InternID     string `json:"intern_id"`
	InternCode   string `json:"intern_code"`
	Name         string `json:"name"`
	Department   string `json:"department"`
	TotalPoints  int    `json:"total_points"`
	BadgesEarned int    `json:"badges_earned"`
}

// SortLeaderboard orders entries by points, then badges, then intern code,
// and assigns ranks from 1.
func SortLeaderboard(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.BadgesEarned != b.BadgesEarned {
			return a.BadgesEarned > b.BadgesEarned
		}
		return a.InternCode < b.InternCode
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
