package command

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

func TestRecomputeScore_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	_, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "DMRC001", Status: "present"})
	require.NoError(t, err)

	before := f.score(t, in.ID)

	f.clock.Advance(2 * time.Hour)
	res, err := f.h.RecomputeScore.Handle(f.ctx, RecomputeScoreCommand{InternID: in.ID})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, res.Events)

	after := f.score(t, in.ID)
	assert.Equal(t, *before, *after, "no intervening facts means a bit-identical score")
}

func TestRecomputeScore_RegistrationCreatesZeroScore(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")

	s := f.score(t, in.ID)
	assert.Equal(t, gamification.UserScore{InternID: in.ID, UpdatedAt: f.clock.Now()}, *s)
}

func TestRecomputeScore_UnknownIntern(t *testing.T) {
	f := newFixture(t)

	_, err := f.h.RecomputeScore.Handle(f.ctx, RecomputeScoreCommand{InternID: shared.NewID()})
	assert.True(t, shared.IsNotFound(err))

	_, err = f.h.RecomputeScore.Handle(f.ctx, RecomputeScoreCommand{InternID: "not-a-uuid"})
	assert.True(t, shared.IsInvalidInput(err))
}

func TestRecomputeScore_BadgeAwardedOnce(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	q := f.quiz(t, nil)

	badge, err := f.h.Catalog.DefineBadge(f.ctx, DefineBadgeCommand{
		Name:     "Quiz Whiz",
		Criteria: json.RawMessage(`{"quizzes_passed": 1}`),
		Points:   50,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.h.SubmitAttempt.Handle(f.ctx, SubmitAttemptCommand{InternID: in.ID, QuizID: q.ID, Score: 10, MaxScore: 10})
		require.NoError(t, err)
	}

	s := f.score(t, in.ID)
	assert.Equal(t, 50, s.TotalPoints)
	assert.Equal(t, 1, s.BadgesEarned)
	assert.Equal(t, 1, f.events.count(shared.EventBadgeEarned))

	owned, err := f.store.Gamification().ListUserBadges(f.ctx, in.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, badge.ID, owned[0].BadgeID)
}

func TestRecomputeScore_LateBadgeAwardedOnNextRecompute(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	_, err := f.h.Attendance.CheckIn(f.ctx, CheckInCommand{InternCode: "DMRC001", Status: "late"})
	require.NoError(t, err)

	_, err = f.h.Catalog.DefineBadge(f.ctx, DefineBadgeCommand{
		Name: "First Day",
		Criteria: json.RawMessage(`{"match":"any","rules":[
			{"counter":"days_present","op":"gte","value":1},
			{"counter":"courses_completed","op":"gte","value":5}
		]}`),
		Points: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.score(t, in.ID).TotalPoints)

	res, err := f.h.RecomputeScore.Handle(f.ctx, RecomputeScoreCommand{InternID: in.ID})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, "First Day", res.NewBadges[0].Name)
	assert.Equal(t, 10, res.Score.TotalPoints)
}

func TestDefineBadge_RejectsUnknownCounter(t *testing.T) {
	f := newFixture(t)

	_, err := f.h.Catalog.DefineBadge(f.ctx, DefineBadgeCommand{
		Name:     "Mystery",
		Criteria: json.RawMessage(`{"karma": 3}`),
		Points:   5,
	})
	assert.True(t, shared.IsInvalidInput(err))

	badges, err := f.store.Gamification().ListBadges(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, badges)
}

// failingScores fails every score write so the surrounding command rolls back.
type failingScores struct {
	gamification.Repository
}

var errScoreWrite = errors.New("score write failed")

func (failingScores) SaveScore(context.Context, *gamification.UserScore) error {
	return errScoreWrite
}

func TestCommands_RollBackWhenScoringFails(t *testing.T) {
	f := newFixtureWith(t, func(r gamification.Repository) gamification.Repository {
		return failingScores{Repository: r}
	})

	_, err := f.h.RegisterIntern.Handle(f.ctx, RegisterInternCommand{
		Code:       "DMRC001",
		Name:       "Aigerim",
		Email:      "aigerim@example.com",
		Department: "Engineering",
		StartDate:  time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, errScoreWrite)

	list, err := f.store.Interns().CountActive(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, list, "the intern insert must be rolled back")
	assert.Empty(t, f.events.events, "nothing is published for a failed command")
}

func TestRegisterIntern_Conflicts(t *testing.T) {
	f := newFixture(t)
	f.register(t, "DMRC001")

	tests := []struct {
		name  string
		code  string
		email string
	}{
		{"same code", "DMRC001", "other@example.com"},
		{"same email", "DMRC002", "DMRC001@EXAMPLE.COM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.h.RegisterIntern.Handle(f.ctx, RegisterInternCommand{
				Code: tt.code, Name: "Someone", Email: tt.email, Department: "Ops",
				StartDate: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
			})
			assert.True(t, shared.IsConflict(err), "unexpected error: %v", err)
		})
	}
}

func TestSetInternActive(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")

	res, err := f.h.SetInternActive.Handle(f.ctx, SetInternActiveCommand{InternID: in.ID, Active: false})
	require.NoError(t, err)
	assert.False(t, res.Intern.IsActive)
	assert.Equal(t, 1, f.events.count(shared.EventInternStatusChanged))

	_, err = f.h.SetInternActive.Handle(f.ctx, SetInternActiveCommand{InternID: shared.NewID(), Active: true})
	assert.True(t, shared.IsNotFound(err))
}
