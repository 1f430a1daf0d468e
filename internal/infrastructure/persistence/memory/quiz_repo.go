package memory

import (
	"context"

	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

type quizRepo struct {
	s *Store
}

func (r *quizRepo) CreateQuiz(ctx context.Context, q *quiz.Quiz) error {
	return r.s.do(ctx, func(st *state) error {
		st.quizzes[q.ID] = *q
		return nil
	})
}

func (r *quizRepo) GetQuiz(ctx context.Context, id string) (*quiz.Quiz, error) {
	var out quiz.Quiz
	err := r.s.do(ctx, func(st *state) error {
		q, ok := st.quizzes[id]
		if !ok {
			return shared.ErrQuizNotFound
		}
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockAttempts is a no-op: the unit of work already holds the store lock.
func (r *quizRepo) LockAttempts(ctx context.Context, _, _ string) error {
	return ctx.Err()
}

func (r *quizRepo) MaxAttemptNumber(ctx context.Context, internID, quizID string) (int, error) {
	highest := 0
	err := r.s.do(ctx, func(st *state) error {
		for _, a := range st.attempts[pairKey{internID, quizID}] {
			if a.AttemptNumber > highest {
				highest = a.AttemptNumber
			}
		}
		return nil
	})
	return highest, err
}

func (r *quizRepo) InsertAttempt(ctx context.Context, a *quiz.Attempt) error {
	return r.s.do(ctx, func(st *state) error {
		key := pairKey{a.InternID, a.QuizID}
		for _, existing := range st.attempts[key] {
			if existing.AttemptNumber == a.AttemptNumber {
				return shared.ErrAttemptConflict
			}
		}
		st.attempts[key] = append(st.attempts[key], *a)
		return nil
	})
}

func (r *quizRepo) ListAttempts(ctx context.Context, internID, quizID string) ([]*quiz.Attempt, error) {
	var out []*quiz.Attempt
	err := r.s.do(ctx, func(st *state) error {
		for _, a := range st.attempts[pairKey{internID, quizID}] {
			a := a
			out = append(out, &a)
		}
		return nil
	})
	return out, err
}

func (r *quizRepo) CountPassedQuizzes(ctx context.Context, internID string) (int, error) {
	n := 0
	err := r.s.do(ctx, func(st *state) error {
		for k, attempts := range st.attempts {
			if k.a != internID {
				continue
			}
			for _, a := range attempts {
				if a.Passed {
					n++
					break
				}
			}
		}
		return nil
	})
	return n, err
}
