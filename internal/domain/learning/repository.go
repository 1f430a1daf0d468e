package learning

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository stores the catalog, enrollments and lesson progress.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Catalog
	// ─────────────────────────────────────────────────────────────────────────

	CreateCourse(ctx context.Context, c *Course) error
	GetCourse(ctx context.Context, id string) (*Course, error)
	CreateModule(ctx context.Context, m *Module) error
	GetModule(ctx context.Context, id string) (*Module, error)
	CreateLesson(ctx context.Context, l *Lesson) error

	// GetLesson returns the lesson with CourseID resolved through its module.
	GetLesson(ctx context.Context, id string) (*Lesson, error)

	// RequiredLessonIDs returns the IDs of every required lesson in a course.
	RequiredLessonIDs(ctx context.Context, courseID string) ([]string, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Enrollments
	// ─────────────────────────────────────────────────────────────────────────

	// CreateEnrollment inserts e. Returns shared.ErrEnrollmentExists on a
	// duplicate (intern, course).
	CreateEnrollment(ctx context.Context, e *Enrollment) error

	// GetEnrollment returns the (intern, course) enrollment.
	GetEnrollment(ctx context.Context, internID, courseID string) (*Enrollment, error)

	// ListEnrollments returns an intern's enrollments, newest first.
	ListEnrollments(ctx context.Context, internID string) ([]*Enrollment, error)

	// UpdateEnrollment persists status, percentage and completedAt.
	UpdateEnrollment(ctx context.Context, e *Enrollment) error

	// CountCompletedEnrollments counts enrollments with status completed.
	CountCompletedEnrollments(ctx context.Context, internID string) (int, error)

	// LockInternProgress serializes progress and enrollment changes of one
	// intern until the unit of work ends. Callers take it before reading
	// anything they derive an enrollment from.
	LockInternProgress(ctx context.Context, internID string) error

	// ─────────────────────────────────────────────────────────────────────────
	// Certificates
	// ─────────────────────────────────────────────────────────────────────────

	// IssueCertificate stores c unless the intern already holds one for the
	// course. Returns whether c was stored.
	IssueCertificate(ctx context.Context, c *Certificate) (bool, error)

	// ListCertificates returns an intern's certificates, newest first.
	ListCertificates(ctx context.Context, internID string) ([]*Certificate, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Lesson progress
	// ─────────────────────────────────────────────────────────────────────────

	// InsertProgressIfAbsent stores p unless a row for (intern, lesson)
	// exists. Returns the stored row and whether it was created.
	InsertProgressIfAbsent(ctx context.Context, p *LessonProgress) (*LessonProgress, bool, error)

	// GetProgressForUpdate returns the (intern, lesson) row locked for the
	// rest of the unit of work.
	GetProgressForUpdate(ctx context.Context, internID, lessonID string) (*LessonProgress, error)

	// SaveProgress persists minutes, notes and completion of an existing row.
	SaveProgress(ctx context.Context, p *LessonProgress) error

	// CountCompletedAmong counts completed rows among lessonIDs.
	CountCompletedAmong(ctx context.Context, internID string, lessonIDs []string) (int, error)

	// CountCompletedLessons counts every completed lesson of the intern.
	CountCompletedLessons(ctx context.Context, internID string) (int, error)
}
