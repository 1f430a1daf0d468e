package postgres

import (
	"context"
	"fmt"

	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearningRepository implements learning.Repository for PostgreSQL.
type LearningRepository struct {
	conn *Connection
}

// NewLearningRepository creates a new LearningRepository.
func NewLearningRepository(conn *Connection) *LearningRepository {
	return &LearningRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────────────────

// CreateCourse inserts a course.
func (r *LearningRepository) CreateCourse(ctx context.Context, c *learning.Course) error {
	query := `
		INSERT INTO courses (id, title, description, difficulty_level, duration_hours, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		c.ID, c.Title, c.Description, c.DifficultyLevel, c.DurationHours, string(c.Status), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// GetCourse returns shared.ErrCourseNotFound if absent.
func (r *LearningRepository) GetCourse(ctx context.Context, id string) (*learning.Course, error) {
	if !shared.IsValidID(id) {
		return nil, shared.ErrCourseNotFound
	}
	query := `
		SELECT id, title, description, difficulty_level, duration_hours, status, created_at
		FROM courses WHERE id = $1`

	var (
		c      learning.Course
		status string
	)
	err := r.conn.querier(ctx).QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Description, &c.DifficultyLevel, &c.DurationHours, &status, &c.CreatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	c.Status = learning.CourseStatus(status)
	return &c, nil
}

// CreateModule inserts a module. A missing course maps to shared.ErrCourseNotFound.
func (r *LearningRepository) CreateModule(ctx context.Context, m *learning.Module) error {
	query := `INSERT INTO course_modules (id, course_id, title, order_index) VALUES ($1, $2, $3, $4)`

	_, err := r.conn.querier(ctx).Exec(ctx, query, m.ID, m.CourseID, m.Title, m.OrderIndex)
	if IsForeignKeyViolation(err) {
		return shared.ErrCourseNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	return nil
}

// GetModule returns shared.ErrModuleNotFound if absent.
func (r *LearningRepository) GetModule(ctx context.Context, id string) (*learning.Module, error) {
	if !shared.IsValidID(id) {
		return nil, shared.ErrModuleNotFound
	}
	query := `SELECT id, course_id, title, order_index FROM course_modules WHERE id = $1`

	var m learning.Module
	err := r.conn.querier(ctx).QueryRow(ctx, query, id).Scan(&m.ID, &m.CourseID, &m.Title, &m.OrderIndex)
	if IsNoRows(err) {
		return nil, shared.ErrModuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return &m, nil
}

// CreateLesson inserts a lesson. A missing module maps to shared.ErrModuleNotFound.
func (r *LearningRepository) CreateLesson(ctx context.Context, l *learning.Lesson) error {
	query := `
		INSERT INTO lessons (id, module_id, title, content_type, duration_minutes, is_required, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		l.ID, l.ModuleID, l.Title, string(l.ContentType), l.DurationMinutes, l.IsRequired, l.OrderIndex)
	if IsForeignKeyViolation(err) {
		return shared.ErrModuleNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

// GetLesson returns the lesson with CourseID resolved through its module.
func (r *LearningRepository) GetLesson(ctx context.Context, id string) (*learning.Lesson, error) {
	if !shared.IsValidID(id) {
		return nil, shared.ErrLessonNotFound
	}
	query := `
		SELECT l.id, l.module_id, m.course_id, l.title, l.content_type,
		       l.duration_minutes, l.is_required, l.order_index
		FROM lessons l
		JOIN course_modules m ON m.id = l.module_id
		WHERE l.id = $1`

	var (
		l           learning.Lesson
		contentType string
	)
	err := r.conn.querier(ctx).QueryRow(ctx, query, id).Scan(
		&l.ID, &l.ModuleID, &l.CourseID, &l.Title, &contentType,
		&l.DurationMinutes, &l.IsRequired, &l.OrderIndex)
	if IsNoRows(err) {
		return nil, shared.ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	l.ContentType = learning.ContentType(contentType)
	return &l, nil
}

// RequiredLessonIDs returns the IDs of every required lesson in a course.
func (r *LearningRepository) RequiredLessonIDs(ctx context.Context, courseID string) ([]string, error) {
	query := `
		SELECT l.id::text
		FROM lessons l
		JOIN course_modules m ON m.id = l.module_id
		WHERE m.course_id = $1 AND l.is_required
		ORDER BY l.id`

	rows, err := r.conn.querier(ctx).Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query required lessons: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan lesson id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Enrollments
// ─────────────────────────────────────────────────────────────────────────────

const enrollmentColumns = `id, intern_id, course_id, status, progress_percentage, enrolled_at, completed_at`

// CreateEnrollment inserts e. A duplicate (intern, course) maps to
// shared.ErrEnrollmentExists.
func (r *LearningRepository) CreateEnrollment(ctx context.Context, e *learning.Enrollment) error {
	query := `INSERT INTO enrollments (` + enrollmentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		e.ID, e.InternID, e.CourseID, string(e.Status), e.ProgressPercentage, e.EnrolledAt, e.CompletedAt)
	if IsUniqueViolation(err) {
		return shared.ErrEnrollmentExists
	}
	if err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	return nil
}

// GetEnrollment returns the (intern, course) enrollment.
func (r *LearningRepository) GetEnrollment(ctx context.Context, internID, courseID string) (*learning.Enrollment, error) {
	if !shared.IsValidID(internID) || !shared.IsValidID(courseID) {
		return nil, shared.ErrEnrollmentNotFound
	}
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE intern_id = $1 AND course_id = $2`
	return scanEnrollment(r.conn.querier(ctx).QueryRow(ctx, query, internID, courseID))
}

// ListEnrollments returns an intern's enrollments, newest first.
func (r *LearningRepository) ListEnrollments(ctx context.Context, internID string) ([]*learning.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE intern_id = $1 ORDER BY enrolled_at DESC`

	rows, err := r.conn.querier(ctx).Query(ctx, query, internID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var out []*learning.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateEnrollment persists status, percentage and completedAt.
func (r *LearningRepository) UpdateEnrollment(ctx context.Context, e *learning.Enrollment) error {
	query := `
		UPDATE enrollments
		SET status = $3, progress_percentage = $4, completed_at = $5
		WHERE intern_id = $1 AND course_id = $2`

	tag, err := r.conn.querier(ctx).Exec(ctx, query,
		e.InternID, e.CourseID, string(e.Status), e.ProgressPercentage, e.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrEnrollmentNotFound
	}
	return nil
}

// CountCompletedEnrollments counts enrollments with status completed.
func (r *LearningRepository) CountCompletedEnrollments(ctx context.Context, internID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM enrollments WHERE intern_id = $1 AND status = 'completed'`, internID)
}

func scanEnrollment(row rowScanner) (*learning.Enrollment, error) {
	var (
		e      learning.Enrollment
		status string
	)
	err := row.Scan(&e.ID, &e.InternID, &e.CourseID, &status, &e.ProgressPercentage, &e.EnrolledAt, &e.CompletedAt)
	if IsNoRows(err) {
		return nil, shared.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan enrollment: %w", err)
	}
	e.Status = learning.EnrollmentStatus(status)
	return &e, nil
}

// LockInternProgress takes a transaction-scoped advisory lock on the intern's
// progress. Under READ COMMITTED every statement after it sees the
// completions committed by the previous holder.
func (r *LearningRepository) LockInternProgress(ctx context.Context, internID string) error {
	return advisoryLock(ctx, r.conn, "progress:"+internID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Certificates
// ─────────────────────────────────────────────────────────────────────────────

const certificateColumns = `id, intern_id, course_id, issued_at, certificate_url`

// IssueCertificate inserts c unless (intern, course) already has one.
func (r *LearningRepository) IssueCertificate(ctx context.Context, c *learning.Certificate) (bool, error) {
	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (intern_id, course_id) DO NOTHING`

	tag, err := r.conn.querier(ctx).Exec(ctx, query, c.ID, c.InternID, c.CourseID, c.IssuedAt, c.CertificateURL)
	if err != nil {
		return false, fmt.Errorf("failed to issue certificate: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListCertificates returns an intern's certificates, newest first.
func (r *LearningRepository) ListCertificates(ctx context.Context, internID string) ([]*learning.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE intern_id = $1 ORDER BY issued_at DESC`

	rows, err := r.conn.querier(ctx).Query(ctx, query, internID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	var out []*learning.Certificate
	for rows.Next() {
		var c learning.Certificate
		if err := rows.Scan(&c.ID, &c.InternID, &c.CourseID, &c.IssuedAt, &c.CertificateURL); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Lesson progress
// ─────────────────────────────────────────────────────────────────────────────

const progressColumns = `id, intern_id, lesson_id, is_completed, time_spent_minutes, notes, started_at, completed_at`

// InsertProgressIfAbsent stores p unless a row for (intern, lesson) exists.
func (r *LearningRepository) InsertProgressIfAbsent(ctx context.Context, p *learning.LessonProgress) (*learning.LessonProgress, bool, error) {
	insert := `
		INSERT INTO lesson_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (intern_id, lesson_id) DO NOTHING
		RETURNING ` + progressColumns

	q := r.conn.querier(ctx)
	stored, err := scanProgress(q.QueryRow(ctx, insert,
		p.ID, p.InternID, p.LessonID, p.IsCompleted, p.TimeSpentMinutes, p.Notes, p.StartedAt, p.CompletedAt))
	if err == nil {
		return stored, true, nil
	}
	if !shared.IsNotFound(err) {
		return nil, false, err
	}

	existing, err := scanProgress(q.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM lesson_progress WHERE intern_id = $1 AND lesson_id = $2`,
		p.InternID, p.LessonID))
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetProgressForUpdate locks the (intern, lesson) row until the transaction ends.
func (r *LearningRepository) GetProgressForUpdate(ctx context.Context, internID, lessonID string) (*learning.LessonProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM lesson_progress
		WHERE intern_id = $1 AND lesson_id = $2
		FOR UPDATE`
	return scanProgress(r.conn.querier(ctx).QueryRow(ctx, query, internID, lessonID))
}

// SaveProgress persists minutes, notes and completion of an existing row.
func (r *LearningRepository) SaveProgress(ctx context.Context, p *learning.LessonProgress) error {
	query := `
		UPDATE lesson_progress
		SET is_completed = $3, time_spent_minutes = $4, notes = $5, completed_at = $6
		WHERE intern_id = $1 AND lesson_id = $2`

	tag, err := r.conn.querier(ctx).Exec(ctx, query,
		p.InternID, p.LessonID, p.IsCompleted, p.TimeSpentMinutes, p.Notes, p.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProgressNotFound
	}
	return nil
}

// CountCompletedAmong counts completed rows among lessonIDs.
func (r *LearningRepository) CountCompletedAmong(ctx context.Context, internID string, lessonIDs []string) (int, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	return r.count(ctx, `
		SELECT count(*) FROM lesson_progress
		WHERE intern_id = $1 AND is_completed AND lesson_id::text = ANY($2)`,
		internID, lessonIDs)
}

// CountCompletedLessons counts every completed lesson of the intern.
func (r *LearningRepository) CountCompletedLessons(ctx context.Context, internID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM lesson_progress WHERE intern_id = $1 AND is_completed`, internID)
}

func (r *LearningRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.conn.querier(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func scanProgress(row rowScanner) (*learning.LessonProgress, error) {
	var p learning.LessonProgress
	err := row.Scan(&p.ID, &p.InternID, &p.LessonID, &p.IsCompleted, &p.TimeSpentMinutes, &p.Notes, &p.StartedAt, &p.CompletedAt)
	if IsNoRows(err) {
		return nil, shared.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lesson progress: %w", err)
	}
	return &p, nil
}
