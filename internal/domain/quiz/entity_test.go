package quiz

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

func intPtr(v int) *int { return &v }

func TestQuiz_Passes(t *testing.T) {
	q := &Quiz{PassingScore: 70}
	tests := []struct {
		score, max int
		want       bool
	}{
		{7, 10, true},
		{6, 10, false},
		{10, 10, true},
		{0, 10, false},
		{69, 99, false},
		{70, 100, true},
		{14, 20, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, q.Passes(tt.score, tt.max), "%d/%d", tt.score, tt.max)
	}

	zero := &Quiz{PassingScore: 0}
	assert.True(t, zero.Passes(0, 10))

	assert.True(t, q.Passes(MaxScore, MaxScore), "full marks at the largest max score")
	assert.False(t, q.Passes(MaxScore/2, MaxScore))
}

func TestValidateScore(t *testing.T) {
	assert.NoError(t, ValidateScore(0, 10))
	assert.NoError(t, ValidateScore(10, 10))
	assert.ErrorIs(t, ValidateScore(-1, 10), shared.ErrInvalidInput)
	assert.ErrorIs(t, ValidateScore(11, 10), shared.ErrInvalidInput)
	assert.ErrorIs(t, ValidateScore(0, 0), shared.ErrInvalidInput)

	assert.NoError(t, ValidateScore(MaxScore, MaxScore))
	assert.ErrorIs(t, ValidateScore(MaxScore, MaxScore+1), shared.ErrInvalidInput)
	assert.ErrorIs(t, ValidateScore(1<<60, 1<<60), shared.ErrInvalidInput)
}

func TestNewQuiz(t *testing.T) {
	q, err := NewQuiz(NewQuizParams{Title: "Go basics"}, DefaultPassingScore, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 70, q.PassingScore)
	assert.Nil(t, q.MaxAttempts)

	_, err = NewQuiz(NewQuizParams{Title: "x", PassingScore: intPtr(101)}, DefaultPassingScore, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewQuiz(NewQuizParams{Title: "x", MaxAttempts: intPtr(0)}, DefaultPassingScore, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestGrade(t *testing.T) {
	q := &Quiz{ID: "quiz-1", PassingScore: 70, MaxAttempts: intPtr(2)}
	now := time.Now()

	a, err := Grade(q, "intern-1", 1, 8, 10, json.RawMessage(`{"q1":"b"}`), now)
	require.NoError(t, err)
	assert.True(t, a.Passed)
	assert.Equal(t, 1, a.AttemptNumber)

	a, err = Grade(q, "intern-1", 2, 3, 10, nil, now)
	require.NoError(t, err)
	assert.False(t, a.Passed)
	assert.JSONEq(t, `null`, string(a.Answers))

	_, err = Grade(q, "intern-1", 3, 10, 10, nil, now)
	assert.ErrorIs(t, err, shared.ErrLimitExceeded)

	_, err = Grade(q, "intern-1", 1, 10, 10, json.RawMessage(`{oops`), now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
