package memory

import (
	"context"
	"sort"

	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

type learningRepo struct {
	s *Store
}

// ─────────────────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────────────────

func (r *learningRepo) CreateCourse(ctx context.Context, c *learning.Course) error {
	return r.s.do(ctx, func(st *state) error {
		st.courses[c.ID] = *c
		return nil
	})
}

func (r *learningRepo) GetCourse(ctx context.Context, id string) (*learning.Course, error) {
	var out learning.Course
	err := r.s.do(ctx, func(st *state) error {
		c, ok := st.courses[id]
		if !ok {
			return shared.ErrCourseNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *learningRepo) CreateModule(ctx context.Context, m *learning.Module) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.courses[m.CourseID]; !ok {
			return shared.ErrCourseNotFound
		}
		st.modules[m.ID] = *m
		return nil
	})
}

func (r *learningRepo) GetModule(ctx context.Context, id string) (*learning.Module, error) {
	var out learning.Module
	err := r.s.do(ctx, func(st *state) error {
		m, ok := st.modules[id]
		if !ok {
			return shared.ErrModuleNotFound
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *learningRepo) CreateLesson(ctx context.Context, l *learning.Lesson) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.modules[l.ModuleID]; !ok {
			return shared.ErrModuleNotFound
		}
		st.lessons[l.ID] = *l
		return nil
	})
}

func (r *learningRepo) GetLesson(ctx context.Context, id string) (*learning.Lesson, error) {
	var out learning.Lesson
	err := r.s.do(ctx, func(st *state) error {
		l, ok := st.lessons[id]
		if !ok {
			return shared.ErrLessonNotFound
		}
		out = l
		out.CourseID = st.modules[l.ModuleID].CourseID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *learningRepo) RequiredLessonIDs(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.s.do(ctx, func(st *state) error {
		for id, l := range st.lessons {
			if l.IsRequired && st.modules[l.ModuleID].CourseID == courseID {
				ids = append(ids, id)
			}
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Enrollments
// ─────────────────────────────────────────────────────────────────────────────

func (r *learningRepo) CreateEnrollment(ctx context.Context, e *learning.Enrollment) error {
	return r.s.do(ctx, func(st *state) error {
		key := pairKey{e.InternID, e.CourseID}
		if _, ok := st.enrollments[key]; ok {
			return shared.ErrEnrollmentExists
		}
		st.enrollments[key] = *e
		return nil
	})
}

func (r *learningRepo) GetEnrollment(ctx context.Context, internID, courseID string) (*learning.Enrollment, error) {
	var out learning.Enrollment
	err := r.s.do(ctx, func(st *state) error {
		e, ok := st.enrollments[pairKey{internID, courseID}]
		if !ok {
			return shared.ErrEnrollmentNotFound
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *learningRepo) ListEnrollments(ctx context.Context, internID string) ([]*learning.Enrollment, error) {
	var out []*learning.Enrollment
	err := r.s.do(ctx, func(st *state) error {
		for k, e := range st.enrollments {
			if k.a == internID {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.After(out[j].EnrolledAt) })
	return out, err
}

func (r *learningRepo) UpdateEnrollment(ctx context.Context, e *learning.Enrollment) error {
	return r.s.do(ctx, func(st *state) error {
		key := pairKey{e.InternID, e.CourseID}
		if _, ok := st.enrollments[key]; !ok {
			return shared.ErrEnrollmentNotFound
		}
		st.enrollments[key] = *e
		return nil
	})
}

func (r *learningRepo) CountCompletedEnrollments(ctx context.Context, internID string) (int, error) {
	n := 0
	err := r.s.do(ctx, func(st *state) error {
		for k, e := range st.enrollments {
			if k.a == internID && e.Status == learning.EnrollmentCompleted {
				n++
			}
		}
		return nil
	})
	return n, err
}

// LockInternProgress is a no-op: the unit of work already holds the store lock.
func (r *learningRepo) LockInternProgress(ctx context.Context, _ string) error {
	return ctx.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Certificates
// ─────────────────────────────────────────────────────────────────────────────

func (r *learningRepo) IssueCertificate(ctx context.Context, c *learning.Certificate) (bool, error) {
	stored := false
	err := r.s.do(ctx, func(st *state) error {
		key := pairKey{c.InternID, c.CourseID}
		if _, ok := st.certs[key]; ok {
			return nil
		}
		st.certs[key] = *c
		stored = true
		return nil
	})
	return stored, err
}

func (r *learningRepo) ListCertificates(ctx context.Context, internID string) ([]*learning.Certificate, error) {
	var out []*learning.Certificate
	err := r.s.do(ctx, func(st *state) error {
		for k, c := range st.certs {
			if k.a == internID {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Lesson progress
// ─────────────────────────────────────────────────────────────────────────────

func (r *learningRepo) InsertProgressIfAbsent(ctx context.Context, p *learning.LessonProgress) (*learning.LessonProgress, bool, error) {
	var (
		out     learning.LessonProgress
		created bool
	)
	err := r.s.do(ctx, func(st *state) error {
		key := pairKey{p.InternID, p.LessonID}
		if existing, ok := st.progress[key]; ok {
			out = existing
			return nil
		}
		st.progress[key] = *p
		out = *p
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

func (r *learningRepo) GetProgressForUpdate(ctx context.Context, internID, lessonID string) (*learning.LessonProgress, error) {
	var out learning.LessonProgress
	err := r.s.do(ctx, func(st *state) error {
		p, ok := st.progress[pairKey{internID, lessonID}]
		if !ok {
			return shared.ErrProgressNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *learningRepo) SaveProgress(ctx context.Context, p *learning.LessonProgress) error {
	return r.s.do(ctx, func(st *state) error {
		key := pairKey{p.InternID, p.LessonID}
		if _, ok := st.progress[key]; !ok {
			return shared.ErrProgressNotFound
		}
		st.progress[key] = *p
		return nil
	})
}

func (r *learningRepo) CountCompletedAmong(ctx context.Context, internID string, lessonIDs []string) (int, error) {
	n := 0
	err := r.s.do(ctx, func(st *state) error {
		for _, id := range lessonIDs {
			if p, ok := st.progress[pairKey{internID, id}]; ok && p.IsCompleted {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *learningRepo) CountCompletedLessons(ctx context.Context, internID string) (int, error) {
	n := 0
	err := r.s.do(ctx, func(st *state) error {
		for k, p := range st.progress {
			if k.a == internID && p.IsCompleted {
				n++
			}
		}
		return nil
	})
	return n, err
}
