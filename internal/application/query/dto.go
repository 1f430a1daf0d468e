// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"encoding/json"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DTOs
// Wire shapes shared by query results and command responses. Dates are
// YYYY-MM-DD strings; instants are RFC 3339.
// ══════════════════════════════════════════════════════════════════════════════

// InternDTO is the public view of an intern.
type InternDTO struct {
	ID         string    `json:"id"`
	InternCode string    `json:"intern_code"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Phone      string    `json:"phone,omitempty"`
	IsActive   bool      `json:"is_active"`
	StartDate  string    `json:"start_date"`
	EndDate    *string   `json:"end_date,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToInternDTO converts an intern.
func ToInternDTO(in *intern.Intern) InternDTO {
	dto := InternDTO{
		ID:         in.ID,
		InternCode: in.Code.String(),
		Name:       in.Name,
		Email:      in.Email,
		Department: in.Department,
		Phone:      in.Phone,
		IsActive:   in.IsActive,
		StartDate:  timeutil.FormatDate(in.StartDate),
		CreatedAt:  in.CreatedAt,
	}
	if in.EndDate != nil {
		end := timeutil.FormatDate(*in.EndDate)
		dto.EndDate = &end
	}
	return dto
}

// AttendanceDTO is one attendance record, optionally with the intern's
// identity for roster views.
type AttendanceDTO struct {
	ID           string     `json:"id"`
	InternID     string     `json:"intern_id"`
	InternCode   string     `json:"intern_code,omitempty"`
	Name         string     `json:"name,omitempty"`
	Date         string     `json:"date"`
	Status       string     `json:"status"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// ToAttendanceDTO converts a record. in may be nil.
func ToAttendanceDTO(r *attendance.Record, in *intern.Intern) AttendanceDTO {
	dto := AttendanceDTO{
		ID:           r.ID,
		InternID:     r.InternID,
		Date:         timeutil.FormatDate(r.Date),
		Status:       string(r.Status),
		CheckInTime:  r.CheckInTime,
		CheckOutTime: r.CheckOutTime,
		Notes:        r.Notes,
	}
	if in != nil {
		dto.InternCode = in.Code.String()
		dto.Name = in.Name
	}
	return dto
}

// DailyStatsDTO summarizes one day.
type DailyStatsDTO struct {
	Date         string `json:"date"`
	Present      int    `json:"present"`
	Late         int    `json:"late"`
	Absent       int    `json:"absent"`
	TotalInterns int    `json:"total_interns"`
	NotCheckedIn int    `json:"not_checked_in"`
}

// ToDailyStatsDTO converts daily stats.
func ToDailyStatsDTO(s attendance.DailyStats) DailyStatsDTO {
	return DailyStatsDTO{
		Date:         timeutil.FormatDate(s.Date),
		Present:      s.Present,
		Late:         s.Late,
		Absent:       s.Absent,
		TotalInterns: s.TotalInterns,
		NotCheckedIn: s.NotCheckedIn,
	}
}

// CourseDTO is a course definition.
type CourseDTO struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DifficultyLevel string    `json:"difficulty_level,omitempty"`
	DurationHours   int       `json:"duration_hours"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToCourseDTO converts a course.
func ToCourseDTO(c *learning.Course) CourseDTO {
	return CourseDTO{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		DifficultyLevel: c.DifficultyLevel,
		DurationHours:   c.DurationHours,
		Status:          string(c.Status),
		CreatedAt:       c.CreatedAt,
	}
}

// ModuleDTO is a course module.
type ModuleDTO struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}

// ToModuleDTO converts a module.
func ToModuleDTO(m *learning.Module) ModuleDTO {
	return ModuleDTO{ID: m.ID, CourseID: m.CourseID, Title: m.Title, OrderIndex: m.OrderIndex}
}

// LessonDTO is a lesson definition.
type LessonDTO struct {
	ID              string `json:"id"`
	ModuleID        string `json:"module_id"`
	CourseID        string `json:"course_id"`
	Title           string `json:"title"`
	ContentType     string `json:"content_type"`
	DurationMinutes int    `json:"duration_minutes"`
	IsRequired      bool   `json:"is_required"`
	OrderIndex      int    `json:"order_index"`
}

// ToLessonDTO converts a lesson.
func ToLessonDTO(l *learning.Lesson) LessonDTO {
	return LessonDTO{
		ID:              l.ID,
		ModuleID:        l.ModuleID,
		CourseID:        l.CourseID,
		Title:           l.Title,
		ContentType:     string(l.ContentType),
		DurationMinutes: l.DurationMinutes,
		IsRequired:      l.IsRequired,
		OrderIndex:      l.OrderIndex,
	}
}

// EnrollmentDTO is an intern's enrollment in a course.
type EnrollmentDTO struct {
	ID                 string     `json:"id"`
	InternID           string     `json:"intern_id"`
	CourseID           string     `json:"course_id"`
	Status             string     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	EnrolledAt         time.Time  `json:"enrolled_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// ToEnrollmentDTO converts an enrollment.
func ToEnrollmentDTO(e *learning.Enrollment) EnrollmentDTO {
	return EnrollmentDTO{
		ID:                 e.ID,
		InternID:           e.InternID,
		CourseID:           e.CourseID,
		Status:             string(e.Status),
		ProgressPercentage: e.ProgressPercentage,
		EnrolledAt:         e.EnrolledAt,
		CompletedAt:        e.CompletedAt,
	}
}

// CertificateDTO is a course completion certificate.
type CertificateDTO struct {
	ID             string    `json:"id"`
	InternID       string    `json:"intern_id"`
	CourseID       string    `json:"course_id"`
	IssuedAt       time.Time `json:"issued_at"`
	CertificateURL *string   `json:"certificate_url,omitempty"`
}

// ToCertificateDTO converts a certificate.
func ToCertificateDTO(c *learning.Certificate) CertificateDTO {
	return CertificateDTO{
		ID:             c.ID,
		InternID:       c.InternID,
		CourseID:       c.CourseID,
		IssuedAt:       c.IssuedAt,
		CertificateURL: c.CertificateURL,
	}
}

// ProgressDTO is an intern's progress on one lesson.
type ProgressDTO struct {
	ID               string     `json:"id"`
	InternID         string     `json:"intern_id"`
	LessonID         string     `json:"lesson_id"`
	IsCompleted      bool       `json:"is_completed"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	Notes            *string    `json:"notes,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// ToProgressDTO converts lesson progress.
func ToProgressDTO(p *learning.LessonProgress) ProgressDTO {
	return ProgressDTO{
		ID:               p.ID,
		InternID:         p.InternID,
		LessonID:         p.LessonID,
		IsCompleted:      p.IsCompleted,
		TimeSpentMinutes: p.TimeSpentMinutes,
		Notes:            p.Notes,
		StartedAt:        p.StartedAt,
		CompletedAt:      p.CompletedAt,
	}
}

// QuizDTO is a quiz definition.
type QuizDTO struct {
	ID               string    `json:"id"`
	LessonID         *string   `json:"lesson_id,omitempty"`
	Title            string    `json:"title"`
	PassingScore     int       `json:"passing_score"`
	MaxAttempts      *int      `json:"max_attempts,omitempty"`
	TimeLimitMinutes *int      `json:"time_limit_minutes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ToQuizDTO converts a quiz.
func ToQuizDTO(q *quiz.Quiz) QuizDTO {
	return QuizDTO{
		ID:               q.ID,
		LessonID:         q.LessonID,
		Title:            q.Title,
		PassingScore:     q.PassingScore,
		MaxAttempts:      q.MaxAttempts,
		TimeLimitMinutes: q.TimeLimitMinutes,
		CreatedAt:        q.CreatedAt,
	}
}

// AttemptDTO is one graded quiz attempt.
type AttemptDTO struct {
	ID            string          `json:"id"`
	InternID      string          `json:"intern_id"`
	QuizID        string          `json:"quiz_id"`
	AttemptNumber int             `json:"attempt_number"`
	Score         int             `json:"score"`
	MaxScore      int             `json:"max_score"`
	Passed        bool            `json:"passed"`
	Answers       json.RawMessage `json:"answers"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// ToAttemptDTO converts an attempt.
func ToAttemptDTO(a *quiz.Attempt) AttemptDTO {
	return AttemptDTO{
		ID:            a.ID,
		InternID:      a.InternID,
		QuizID:        a.QuizID,
		AttemptNumber: a.AttemptNumber,
		Score:         a.Score,
		MaxScore:      a.MaxScore,
		Passed:        a.Passed,
		Answers:       a.Answers,
		CompletedAt:   a.CompletedAt,
	}
}

// BadgeDTO is a badge definition.
type BadgeDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Criteria    json.RawMessage `json:"criteria"`
	Points      int             `json:"points"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToBadgeDTO converts a badge. Criteria are rendered in their full form.
func ToBadgeDTO(b *gamification.Badge) BadgeDTO {
	return BadgeDTO{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Criteria:    b.Criteria.JSON(),
		Points:      b.Points,
		CreatedAt:   b.CreatedAt,
	}
}

// EarnedBadgeDTO is a badge held by an intern.
type EarnedBadgeDTO struct {
	BadgeID  string    `json:"badge_id"`
	Name     string    `json:"name"`
	Points   int       `json:"points"`
	EarnedAt time.Time `json:"earned_at"`
}

// ScoreDTO is an intern's derived score.
type ScoreDTO struct {
	InternID         string           `json:"intern_id"`
	TotalPoints      int              `json:"total_points"`
	CoursesCompleted int              `json:"courses_completed"`
	QuizzesPassed    int              `json:"quizzes_passed"`
	BadgesEarned     int              `json:"badges_earned"`
	LessonsCompleted int              `json:"lessons_completed"`
	DaysPresent      int              `json:"days_present"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Badges           []EarnedBadgeDTO `json:"badges,omitempty"`
}

// ToScoreDTO converts a score and the intern's badges.
func ToScoreDTO(s *gamification.UserScore, badges []*gamification.UserBadge) ScoreDTO {
	dto := ScoreDTO{
		InternID:         s.InternID,
		TotalPoints:      s.TotalPoints,
		CoursesCompleted: s.CoursesCompleted,
		QuizzesPassed:    s.QuizzesPassed,
		BadgesEarned:     s.BadgesEarned,
		LessonsCompleted: s.LessonsCompleted,
		DaysPresent:      s.DaysPresent,
		UpdatedAt:        s.UpdatedAt,
	}
	for _, ub := range badges {
		dto.Badges = append(dto.Badges, EarnedBadgeDTO{
			BadgeID:  ub.BadgeID,
			Name:     ub.BadgeName,
			Points:   ub.Points,
			EarnedAt: ub.EarnedAt,
		})
	}
	return dto
}
