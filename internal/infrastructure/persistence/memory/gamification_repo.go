package memory

import (
	"context"
	"sort"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

type gamificationRepo struct {
	s *Store
}

func (r *gamificationRepo) CreateBadge(ctx context.Context, b *gamification.Badge) error {
	return r.s.do(ctx, func(st *state) error {
		for _, existing := range st.badges {
			if existing.Name == b.Name {
				return shared.ErrBadgeExists
			}
		}
		st.badges[b.ID] = *b
		return nil
	})
}

func (r *gamificationRepo) ListBadges(ctx context.Context) ([]*gamification.Badge, error) {
	var out []*gamification.Badge
	err := r.s.do(ctx, func(st *state) error {
		for _, b := range st.badges {
			b := b
			out = append(out, &b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *gamificationRepo) ListUserBadges(ctx context.Context, internID string) ([]*gamification.UserBadge, error) {
	var out []*gamification.UserBadge
	err := r.s.do(ctx, func(st *state) error {
		for k, ub := range st.userBadges {
			if k.a != internID {
				continue
			}
			ub := ub
			if b, ok := st.badges[ub.BadgeID]; ok {
				ub.BadgeName = b.Name
				ub.Points = b.Points
			}
			out = append(out, &ub)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.Before(out[j].EarnedAt)
		}
		return out[i].BadgeName < out[j].BadgeName
	})
	return out, err
}

func (r *gamificationRepo) AwardBadge(ctx context.Context, ub *gamification.UserBadge) (bool, error) {
	created := false
	err := r.s.do(ctx, func(st *state) error {
		key := pairKey{ub.InternID, ub.BadgeID}
		if _, ok := st.userBadges[key]; ok {
			return nil
		}
		st.userBadges[key] = *ub
		created = true
		return nil
	})
	return created, err
}

// LockScore is a no-op: the unit of work already holds the store lock.
func (r *gamificationRepo) LockScore(ctx context.Context, _ string) error {
	return ctx.Err()
}

func (r *gamificationRepo) GetScore(ctx context.Context, internID string) (*gamification.UserScore, error) {
	var out gamification.UserScore
	err := r.s.do(ctx, func(st *state) error {
		sc, ok := st.scores[internID]
		if !ok {
			return shared.ErrScoreNotFound
		}
		out = sc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *gamificationRepo) SaveScore(ctx context.Context, sc *gamification.UserScore) error {
	return r.s.do(ctx, func(st *state) error {
		st.scores[sc.InternID] = *sc
		return nil
	})
}

func (r *gamificationRepo) TopScores(ctx context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	var out []gamification.LeaderboardEntry
	err := r.s.do(ctx, func(st *state) error {
		for id, sc := range st.scores {
			in, ok := st.interns[id]
			if !ok || !in.IsActive {
				continue
			}
			out = append(out, gamification.LeaderboardEntry{
				InternID:     id,
				InternCode:   in.Code.String(),
				Name:         in.Name,
				Department:   in.Department,
				TotalPoints:  sc.TotalPoints,
				BadgesEarned: sc.BadgesEarned,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	gamification.SortLeaderboard(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
