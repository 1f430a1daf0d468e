// Package learning contains the course catalog and the progress tracker:
// enrollments, per-lesson progress and the completion percentage that
// links the two.
package learning

import (
	"strings"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE
// ══════════════════════════════════════════════════════════════════════════════

// CourseStatus is the publication state of a course.
type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

// IsValid checks that the status belongs to the enum.
func (s CourseStatus) IsValid() bool {
	switch s {
	case CourseDraft, CoursePublished, CourseArchived:
		return true
	}
	return false
}

// Course groups modules of lessons.
type Course struct {
	ID              string
	Title           string
	Description     string
	DifficultyLevel string
	DurationHours   int
	Status          CourseStatus
	CreatedAt       time.Time
}

// NewCourse validates and builds a course. An empty status defaults to draft.
func NewCourse(title, description, difficulty string, hours int, status CourseStatus, now time.Time) (*Course, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.InvalidInput("learning", "CreateCourse", "title is required")
	}
	if hours < 0 {
		return nil, shared.InvalidInput("learning", "CreateCourse", "duration must not be negative")
	}
	if status == "" {
		status = CourseDraft
	}
	if !status.IsValid() {
		return nil, shared.InvalidInput("learning", "CreateCourse", "unknown course status %q", status)
	}
	return &Course{
		ID:              shared.NewID(),
		Title:           title,
		Description:     strings.TrimSpace(description),
		DifficultyLevel: strings.TrimSpace(difficulty),
		DurationHours:   hours,
		Status:          status,
		CreatedAt:       now,
	}, nil
}

// IsEnrollable reports whether interns may enroll.
func (c *Course) IsEnrollable() bool {
	return c.Status == CoursePublished
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULE & LESSON
// ══════════════════════════════════════════════════════════════════════════════

// Module is an ordered section of a course.
type Module struct {
	ID         string
	CourseID   string
	Title      string
	OrderIndex int
}

// NewModule validates and builds a module.
func NewModule(courseID, title string, order int) (*Module, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.InvalidInput("learning", "CreateModule", "title is required")
	}
	if order < 0 {
		return nil, shared.InvalidInput("learning", "CreateModule", "order index must not be negative")
	}
	return &Module{ID: shared.NewID(), CourseID: courseID, Title: title, OrderIndex: order}, nil
}

// ContentType is the lesson medium.
type ContentType string

const (
	ContentVideo      ContentType = "video"
	ContentPDF        ContentType = "pdf"
	ContentQuiz       ContentType = "quiz"
	ContentAssignment ContentType = "assignment"
	ContentText       ContentType = "text"
)

// IsValid checks that the content type belongs to the enum.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentVideo, ContentPDF, ContentQuiz, ContentAssignment, ContentText:
		return true
	}
	return false
}

// Lesson is a unit of learning content. Only required lessons count toward
// an enrollment's completion percentage.
type Lesson struct {
	ID              string
	ModuleID        string
	CourseID        string // resolved through the module
	Title           string
	ContentType     ContentType
	DurationMinutes int
	IsRequired      bool
	OrderIndex      int
}

// NewLessonParams holds lesson creation input.
type NewLessonParams struct {
	Title           string
	ContentType     ContentType
	DurationMinutes int
	IsRequired      bool
	OrderIndex      int
}

// NewLesson validates and builds a lesson inside module m.
func NewLesson(m *Module, p NewLessonParams) (*Lesson, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, shared.InvalidInput("learning", "CreateLesson", "title is required")
	}
	if !p.ContentType.IsValid() {
		return nil, shared.InvalidInput("learning", "CreateLesson", "unknown content type %q", p.ContentType)
	}
	if p.DurationMinutes < 0 || p.OrderIndex < 0 {
		return nil, shared.InvalidInput("learning", "CreateLesson", "duration and order must not be negative")
	}
	return &Lesson{
		ID:              shared.NewID(),
		ModuleID:        m.ID,
		CourseID:        m.CourseID,
		Title:           title,
		ContentType:     p.ContentType,
		DurationMinutes: p.DurationMinutes,
		IsRequired:      p.IsRequired,
		OrderIndex:      p.OrderIndex,
	}, nil
}
