package postgres

import (
	"context"
	"fmt"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAMIFICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GamificationRepository implements gamification.Repository for PostgreSQL.
type GamificationRepository struct {
	conn *Connection
}

// NewGamificationRepository creates a new GamificationRepository.
func NewGamificationRepository(conn *Connection) *GamificationRepository {
	return &GamificationRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Badges
// ─────────────────────────────────────────────────────────────────────────────

// CreateBadge inserts b. A duplicate name maps to shared.ErrBadgeExists.
func (r *GamificationRepository) CreateBadge(ctx context.Context, b *gamification.Badge) error {
	query := `
		INSERT INTO badges (id, name, description, criteria, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		b.ID, b.Name, b.Description, string(b.Criteria.JSON()), b.Points, b.CreatedAt)
	if IsUniqueViolation(err) {
		return shared.ErrBadgeExists
	}
	if err != nil {
		return fmt.Errorf("failed to create badge: %w", err)
	}
	return nil
}

// ListBadges returns every badge definition ordered by name.
func (r *GamificationRepository) ListBadges(ctx context.Context) ([]*gamification.Badge, error) {
	query := `SELECT id, name, description, criteria, points, created_at FROM badges ORDER BY name`

	rows, err := r.conn.querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var out []*gamification.Badge
	for rows.Next() {
		var (
			b   gamification.Badge
			raw []byte
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &raw, &b.Points, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		c, err := gamification.ParseCriteria(raw)
		if err != nil {
			return nil, fmt.Errorf("badge %q has invalid criteria: %w", b.Name, err)
		}
		b.Criteria = c
		out = append(out, &b)
	}
	return out, rows.Err()
}

// ListUserBadges returns an intern's awards, oldest first.
func (r *GamificationRepository) ListUserBadges(ctx context.Context, internID string) ([]*gamification.UserBadge, error) {
	query := `
		SELECT ub.intern_id, ub.badge_id, b.name, b.points, ub.earned_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.intern_id = $1
		ORDER BY ub.earned_at, b.name`

	rows, err := r.conn.querier(ctx).Query(ctx, query, internID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	defer rows.Close()

	var out []*gamification.UserBadge
	for rows.Next() {
		var ub gamification.UserBadge
		if err := rows.Scan(&ub.InternID, &ub.BadgeID, &ub.BadgeName, &ub.Points, &ub.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user badge: %w", err)
		}
		out = append(out, &ub)
	}
	return out, rows.Err()
}

// AwardBadge inserts the award unless it exists. Reports whether it was new.
func (r *GamificationRepository) AwardBadge(ctx context.Context, ub *gamification.UserBadge) (bool, error) {
	query := `
		INSERT INTO user_badges (intern_id, badge_id, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (intern_id, badge_id) DO NOTHING`

	tag, err := r.conn.querier(ctx).Exec(ctx, query, ub.InternID, ub.BadgeID, ub.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scores
// ─────────────────────────────────────────────────────────────────────────────

const scoreColumns = `intern_id, total_points, courses_completed, quizzes_passed, badges_earned, lessons_completed, days_present, updated_at`

// LockScore takes a transaction-scoped advisory lock on the intern's score.
func (r *GamificationRepository) LockScore(ctx context.Context, internID string) error {
	return advisoryLock(ctx, r.conn, "score:"+internID)
}

// GetScore returns shared.ErrScoreNotFound when never computed.
func (r *GamificationRepository) GetScore(ctx context.Context, internID string) (*gamification.UserScore, error) {
	if !shared.IsValidID(internID) {
		return nil, shared.ErrScoreNotFound
	}
	query := `SELECT ` + scoreColumns + ` FROM user_scores WHERE intern_id = $1`

	var s gamification.UserScore
	err := r.conn.querier(ctx).QueryRow(ctx, query, internID).Scan(
		&s.InternID, &s.TotalPoints, &s.CoursesCompleted, &s.QuizzesPassed,
		&s.BadgesEarned, &s.LessonsCompleted, &s.DaysPresent, &s.UpdatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrScoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return &s, nil
}

// SaveScore upserts the intern's single score row.
func (r *GamificationRepository) SaveScore(ctx context.Context, s *gamification.UserScore) error {
	query := `
		INSERT INTO user_scores (` + scoreColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (intern_id) DO UPDATE SET
			total_points = EXCLUDED.total_points,
			courses_completed = EXCLUDED.courses_completed,
			quizzes_passed = EXCLUDED.quizzes_passed,
			badges_earned = EXCLUDED.badges_earned,
			lessons_completed = EXCLUDED.lessons_completed,
			days_present = EXCLUDED.days_present,
			updated_at = EXCLUDED.updated_at`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		s.InternID, s.TotalPoints, s.CoursesCompleted, s.QuizzesPassed,
		s.BadgesEarned, s.LessonsCompleted, s.DaysPresent, s.UpdatedAt)
	if IsForeignKeyViolation(err) {
		return shared.ErrInternNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}
	return nil
}

// TopScores returns active interns ordered by total points, ranked from 1.
// A non-positive limit returns every active intern.
func (r *GamificationRepository) TopScores(ctx context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	query := `
		SELECT s.intern_id, i.intern_code, i.name, i.department, s.total_points, s.badges_earned
		FROM user_scores s
		JOIN interns i ON i.id = s.intern_id
		WHERE i.is_active
		ORDER BY s.total_points DESC, s.badges_earned DESC, i.intern_code COLLATE "C"`

	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.conn.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []gamification.LeaderboardEntry
	for rows.Next() {
		var e gamification.LeaderboardEntry
		if err := rows.Scan(&e.InternID, &e.InternCode, &e.Name, &e.Department, &e.TotalPoints, &e.BadgesEarned); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	gamification.SortLeaderboard(out)
	return out, nil
}
