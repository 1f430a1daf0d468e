package command

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

func (f *fixture) quiz(t *testing.T, maxAttempts *int) *quiz.Quiz {
	t.Helper()
	q, err := f.h.Catalog.CreateQuiz(f.ctx, CreateQuizCommand{Title: "Go syntax", MaxAttempts: maxAttempts})
	require.NoError(t, err)
	return q
}

func TestSubmitAttempt_NumbersUntilLimit(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	q := f.quiz(t, intPtr(3))
	assert.Equal(t, 70, q.PassingScore, "default passing score applies")

	for n := 1; n <= 3; n++ {
		res, err := f.h.SubmitAttempt.Handle(f.ctx, SubmitAttemptCommand{
			InternID: in.ID, QuizID: q.ID, Score: 5, MaxScore: 10,
			Answers: json.RawMessage(`{"q1":"b"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, n, res.Attempt.AttemptNumber)
		require.NotNil(t, res.AttemptsRemaining)
		assert.Equal(t, 3-n, *res.AttemptsRemaining)
	}

	_, err := f.h.SubmitAttempt.Handle(f.ctx, SubmitAttemptCommand{InternID: in.ID, QuizID: q.ID, Score: 10, MaxScore: 10})
	require.Error(t, err)
	assert.True(t, shared.IsLimitExceeded(err))

	attempts, err := f.store.Quizzes().ListAttempts(f.ctx, in.ID, q.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 3)
}

func TestSubmitAttempt_PassBoundary(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		maxScore int
		passed   bool
	}{
		{"exactly seventy percent", 7, 10, true},
		{"just below", 69, 100, false},
		{"full marks", 3, 3, true},
		{"zero", 0, 5, false},
		{"two of three rounds down", 2, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.register(t, "DMRC001")
			q := f.quiz(t, nil)

			res, err := f.h.SubmitAttempt.Handle(f.ctx, SubmitAttemptCommand{
				InternID: in.ID, QuizID: q.ID, Score: tt.score, MaxScore: tt.maxScore,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.passed, res.Attempt.Passed)
			assert.Nil(t, res.AttemptsRemaining)
		})
	}
}

func TestSubmitAttempt_InvalidScoreRejectedBeforePersistence(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	q := f.quiz(t, nil)

	tests := []struct {
		name            string
		score, maxScore int
	}{
		{"score above max", 11, 10},
		{"negative score", -1, 10},
		{"zero max", 0, 0},
		{"max beyond integer column", 1 << 60, 1 << 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.h.SubmitAttempt.Handle(f.ctx, SubmitAttemptCommand{
				InternID: in.ID, QuizID: q.ID, Score: tt.score, MaxScore: tt.maxScore,
			})
			assert.True(t, shared.IsInvalidInput(err))
		})
	}

	attempts, err := f.store.Quizzes().ListAttempts(f.ctx, in.ID, q.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestSubmitAttempt_FullMarksAtLargestMaxScore(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	q := f.quiz(t, nil)

	res, err := f.h.SubmitAttempt.Handle(f.ctx, SubmitAttemptCommand{
		InternID: in.ID, QuizID: q.ID, Score: math.MaxInt32, MaxScore: math.MaxInt32,
	})
	require.NoError(t, err)
	assert.True(t, res.Attempt.Passed)
}

func TestSubmitAttempt_UnknownQuiz(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")

	_, err := f.h.SubmitAttempt.Handle(f.ctx, SubmitAttemptCommand{
		InternID: in.ID, QuizID: shared.NewID(), Score: 1, MaxScore: 1,
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestSubmitAttempt_ConcurrentSubmissionsStayGapFree(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	q := f.quiz(t, nil)

	const n = 12
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.h.SubmitAttempt.Handle(f.ctx, SubmitAttemptCommand{InternID: in.ID, QuizID: q.ID, Score: 1, MaxScore: 2})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	attempts, err := f.store.Quizzes().ListAttempts(f.ctx, in.ID, q.ID)
	require.NoError(t, err)
	require.Len(t, attempts, n)

	seen := make(map[int]bool, n)
	for _, a := range attempts {
		seen[a.AttemptNumber] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[i], "attempt %d missing", i)
	}
}

func TestSubmitAttempt_QuizzesPassedCountsDistinctQuizzes(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	first := f.quiz(t, nil)
	second := f.quiz(t, nil)

	submit := func(q *quiz.Quiz, score int) {
		_, err := f.h.SubmitAttempt.Handle(f.ctx, SubmitAttemptCommand{InternID: in.ID, QuizID: q.ID, Score: score, MaxScore: 10})
		require.NoError(t, err)
	}

	submit(first, 9)
	submit(first, 10)
	assert.Equal(t, 1, f.score(t, in.ID).QuizzesPassed)

	submit(second, 3)
	assert.Equal(t, 1, f.score(t, in.ID).QuizzesPassed)

	submit(second, 8)
	assert.Equal(t, 2, f.score(t, in.ID).QuizzesPassed)
}
