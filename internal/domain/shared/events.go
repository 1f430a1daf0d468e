// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Events are published after the unit of work that
// produced them has committed.
const (
	// Intern events
	EventInternRegistered    EventType = "intern.registered"
	EventInternStatusChanged EventType = "intern.status_changed"

	// Attendance events
	EventCheckedIn  EventType = "attendance.checked_in"
	EventCheckedOut EventType = "attendance.checked_out"

	// Learning events
	EventEnrolled          EventType = "learning.enrolled"
	EventEnrollmentDrop    EventType = "learning.dropped"
	EventLessonCompleted   EventType = "learning.lesson_completed"
	EventCourseCompleted   EventType = "learning.course_completed"
	EventCertificateIssued EventType = "learning.certificate_issued"

	// Quiz events
	EventAttemptSubmitted EventType = "quiz.attempt_submitted"

	// Gamification events
	EventBadgeEarned     EventType = "gamification.badge_earned"
	EventScoreRecomputed EventType = "gamification.score_recomputed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Intern Events
// ═══════════════════════════════════════════════════════════════════════════

// InternRegisteredEvent is emitted when an intern is added to the cohort.
type InternRegisteredEvent struct {
	BaseEvent
	InternCode string `json:"intern_code"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// Payload implements Event interface.
func (e InternRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"intern_code": e.InternCode,
		"name":        e.Name,
		"department":  e.Department,
	}
}

// NewInternRegisteredEvent creates a new InternRegisteredEvent.
func NewInternRegisteredEvent(internID, code, name, department string, at time.Time) InternRegisteredEvent {
	return InternRegisteredEvent{
		BaseEvent:  NewBaseEvent(EventInternRegistered, internID, at),
		InternCode: code,
		Name:       name,
		Department: department,
	}
}

// InternStatusChangedEvent is emitted when an administrator toggles isActive.
type InternStatusChangedEvent struct {
	BaseEvent
	Active bool `json:"active"`
}

// Payload implements Event interface.
func (e InternStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"active": e.Active}
}

// NewInternStatusChangedEvent creates a new InternStatusChangedEvent.
func NewInternStatusChangedEvent(internID string, active bool, at time.Time) InternStatusChangedEvent {
	return InternStatusChangedEvent{
		BaseEvent: NewBaseEvent(EventInternStatusChanged, internID, at),
		Active:    active,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Attendance Events
// ═══════════════════════════════════════════════════════════════════════════

// AttendanceEvent is emitted on check-in and check-out.
type AttendanceEvent struct {
	BaseEvent
	Date   string `json:"date"`
	Status string `json:"status"`
}

// Payload implements Event interface.
func (e AttendanceEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date":   e.Date,
		"status": e.Status,
	}
}

// NewCheckedInEvent creates an attendance event for a check-in.
func NewCheckedInEvent(internID, date, status string, at time.Time) AttendanceEvent {
	return AttendanceEvent{
		BaseEvent: NewBaseEvent(EventCheckedIn, internID, at),
		Date:      date,
		Status:    status,
	}
}

// NewCheckedOutEvent creates an attendance event for a check-out.
func NewCheckedOutEvent(internID, date, status string, at time.Time) AttendanceEvent {
	return AttendanceEvent{
		BaseEvent: NewBaseEvent(EventCheckedOut, internID, at),
		Date:      date,
		Status:    status,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Learning Events
// ═══════════════════════════════════════════════════════════════════════════

// EnrollmentEvent is emitted when an enrollment is created, dropped or completed.
type EnrollmentEvent struct {
	BaseEvent
	CourseID           string `json:"course_id"`
	ProgressPercentage int    `json:"progress_percentage"`
}

// Payload implements Event interface.
func (e EnrollmentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"course_id":           e.CourseID,
		"progress_percentage": e.ProgressPercentage,
	}
}

// NewEnrollmentEvent creates an enrollment event of the given type.
func NewEnrollmentEvent(eventType EventType, internID, courseID string, pct int, at time.Time) EnrollmentEvent {
	return EnrollmentEvent{
		BaseEvent:          NewBaseEvent(eventType, internID, at),
		CourseID:           courseID,
		ProgressPercentage: pct,
	}
}

// LessonCompletedEvent is emitted the first time a lesson is completed.
type LessonCompletedEvent struct {
	BaseEvent
	LessonID         string `json:"lesson_id"`
	TimeSpentMinutes int    `json:"time_spent_minutes"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lesson_id":          e.LessonID,
		"time_spent_minutes": e.TimeSpentMinutes,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(internID, lessonID string, minutes int, at time.Time) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:        NewBaseEvent(EventLessonCompleted, internID, at),
		LessonID:         lessonID,
		TimeSpentMinutes: minutes,
	}
}

// CertificateIssuedEvent is emitted once per (intern, course) completion.
type CertificateIssuedEvent struct {
	BaseEvent
	CertificateID string `json:"certificate_id"`
	CourseID      string `json:"course_id"`
}

// Payload implements Event interface.
func (e CertificateIssuedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"certificate_id": e.CertificateID,
		"course_id":      e.CourseID,
	}
}

// NewCertificateIssuedEvent creates a new CertificateIssuedEvent.
func NewCertificateIssuedEvent(internID, certificateID, courseID string, at time.Time) CertificateIssuedEvent {
	return CertificateIssuedEvent{
		BaseEvent:     NewBaseEvent(EventCertificateIssued, internID, at),
		CertificateID: certificateID,
		CourseID:      courseID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Quiz Events
// ═══════════════════════════════════════════════════════════════════════════

// AttemptSubmittedEvent is emitted for every graded quiz attempt.
type AttemptSubmittedEvent struct {
	BaseEvent
	QuizID        string `json:"quiz_id"`
	AttemptNumber int    `json:"attempt_number"`
	Passed        bool   `json:"passed"`
}

// Payload implements Event interface.
func (e AttemptSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"quiz_id":        e.QuizID,
		"attempt_number": e.AttemptNumber,
		"passed":         e.Passed,
	}
}

// NewAttemptSubmittedEvent creates a new AttemptSubmittedEvent.
func NewAttemptSubmittedEvent(internID, quizID string, number int, passed bool, at time.Time) AttemptSubmittedEvent {
	return AttemptSubmittedEvent{
		BaseEvent:     NewBaseEvent(EventAttemptSubmitted, internID, at),
		QuizID:        quizID,
		AttemptNumber: number,
		Passed:        passed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Gamification Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeEarnedEvent is emitted once per (intern, badge).
type BadgeEarnedEvent struct {
	BaseEvent
	BadgeID   string `json:"badge_id"`
	BadgeName string `json:"badge_name"`
	Points    int    `json:"points"`
}

// Payload implements Event interface.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"badge_id":   e.BadgeID,
		"badge_name": e.BadgeName,
		"points":     e.Points,
	}
}

// NewBadgeEarnedEvent creates a new BadgeEarnedEvent.
func NewBadgeEarnedEvent(internID, badgeID, name string, points int, at time.Time) BadgeEarnedEvent {
	return BadgeEarnedEvent{
		BaseEvent: NewBaseEvent(EventBadgeEarned, internID, at),
		BadgeID:   badgeID,
		BadgeName: name,
		Points:    points,
	}
}

// ScoreRecomputedEvent is emitted when a recomputation changed the stored score.
type ScoreRecomputedEvent struct {
	BaseEvent
	TotalPoints      int `json:"total_points"`
	CoursesCompleted int `json:"courses_completed"`
	QuizzesPassed    int `json:"quizzes_passed"`
	BadgesEarned     int `json:"badges_earned"`
}

// Payload implements Event interface.
func (e ScoreRecomputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"total_points":      e.TotalPoints,
		"courses_completed": e.CoursesCompleted,
		"quizzes_passed":    e.QuizzesPassed,
		"badges_earned":     e.BadgesEarned,
	}
}

// NewScoreRecomputedEvent creates a new ScoreRecomputedEvent.
func NewScoreRecomputedEvent(internID string, total, courses, quizzes, badges int, at time.Time) ScoreRecomputedEvent {
	return ScoreRecomputedEvent{
		BaseEvent:        NewBaseEvent(EventScoreRecomputed, internID, at),
		TotalPoints:      total,
		CoursesCompleted: courses,
		QuizzesPassed:    quizzes,
		BadgesEarned:     badges,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
