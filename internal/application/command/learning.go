package command

import (
	"context"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS TRACKER COMMANDS
// Enrollment lifecycle and per-lesson progress. Enrollment percentages are
// refreshed whenever a required lesson completion flips. Every command that
// derives or overwrites an enrollment holds the intern's progress lock, so
// concurrent completions in one course cannot persist a stale percentage.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollCommand enrolls an intern in a published course.
type EnrollCommand struct {
	InternID string
	CourseID string
}

// DropEnrollmentCommand drops an active enrollment.
type DropEnrollmentCommand struct {
	InternID string
	CourseID string
}

// StartLessonCommand opens a progress row for a lesson.
type StartLessonCommand struct {
	InternID string
	LessonID string
}

// RecordProgressCommand adds time to a lesson and optionally completes it.
type RecordProgressCommand struct {
	InternID          string
	LessonID          string
	AdditionalMinutes int
	Notes             *string
	Complete          bool
}

// MaxMinutesPerRecord caps the minutes one RecordProgress call may add.
const MaxMinutesPerRecord = 24 * 60

// Validate validates the command.
func (c RecordProgressCommand) Validate() error {
	if c.AdditionalMinutes < 0 {
		return shared.InvalidInput("learning", "RecordProgress", "additional minutes must not be negative")
	}
	if c.AdditionalMinutes > MaxMinutesPerRecord {
		return shared.InvalidInput("learning", "RecordProgress", "additional minutes must not exceed %d", MaxMinutesPerRecord)
	}
	return nil
}

// EnrollmentResult contains the enrollment after the command.
type EnrollmentResult struct {
	Enrollment *learning.Enrollment

	// Certificate is set when the command completed the course.
	Certificate *learning.Certificate

	Events []shared.Event
}

// ProgressResult contains the lesson progress after the command.
type ProgressResult struct {
	Progress *learning.LessonProgress

	// Created is true when the command opened the progress row.
	Created bool

	// Completed is true when the command flipped the lesson to completed.
	Completed bool

	// Enrollment is the refreshed enrollment in the lesson's course, if any.
	Enrollment *learning.Enrollment

	// Certificate is set when the completion finished the course.
	Certificate *learning.Certificate

	Events []shared.Event
}

// LearningHandler handles the progress tracker commands.
type LearningHandler struct {
	interns        intern.Repository
	learning       learning.Repository
	scorer         *RecomputeScoreHandler
	tx             shared.Transactor
	clock          timeutil.Clock
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewLearningHandler creates a new LearningHandler.
func NewLearningHandler(
	interns intern.Repository,
	learningRepo learning.Repository,
	scorer *RecomputeScoreHandler,
	tx shared.Transactor,
	clock timeutil.Clock,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *LearningHandler {
	return &LearningHandler{
		interns:        interns,
		learning:       learningRepo,
		scorer:         scorer,
		tx:             tx,
		clock:          clock,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("learning")),
	}
}

// Enroll creates the enrollment with its percentage computed from lessons the
// intern already completed. A course without required lessons completes on
// enrollment.
func (h *LearningHandler) Enroll(ctx context.Context, cmd EnrollCommand) (*EnrollmentResult, error) {
	now := h.clock.Now()
	result := &EnrollmentResult{}

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := h.interns.GetByID(ctx, cmd.InternID); err != nil {
			return err
		}
		if err := h.learning.LockInternProgress(ctx, cmd.InternID); err != nil {
			return err
		}
		course, err := h.learning.GetCourse(ctx, cmd.CourseID)
		if err != nil {
			return err
		}
		if !course.IsEnrollable() {
			return shared.ErrCourseNotPublished
		}

		completed, total, err := h.requiredProgress(ctx, cmd.InternID, course.ID)
		if err != nil {
			return err
		}

		enrollment := learning.NewEnrollment(cmd.InternID, course.ID, completed, total, now)
		if err := h.learning.CreateEnrollment(ctx, enrollment); err != nil {
			return err
		}

		result.Enrollment = enrollment
		result.Events = append(result.Events,
			shared.NewEnrollmentEvent(shared.EventEnrolled, cmd.InternID, course.ID, enrollment.ProgressPercentage, now))
		if enrollment.Status == learning.EnrollmentCompleted {
			result.Events = append(result.Events,
				shared.NewEnrollmentEvent(shared.EventCourseCompleted, cmd.InternID, course.ID, 100, now))

			cert, events, err := h.issueCertificate(ctx, enrollment, now)
			if err != nil {
				return err
			}
			result.Certificate = cert
			result.Events = append(result.Events, events...)
		}

		scored, err := h.scorer.recompute(ctx, cmd.InternID)
		if err != nil {
			return err
		}
		result.Events = append(result.Events, scored.Events...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.log.Info("enrolled",
		logger.InternID(cmd.InternID),
		logger.CourseID(cmd.CourseID),
		logger.Int("progress", result.Enrollment.ProgressPercentage),
	)
	publish(h.eventPublisher, h.log, result.Events)
	return result, nil
}

// DropEnrollment moves an enrollment to dropped. Completed enrollments are
// final.
func (h *LearningHandler) DropEnrollment(ctx context.Context, cmd DropEnrollmentCommand) (*EnrollmentResult, error) {
	now := h.clock.Now()
	result := &EnrollmentResult{}

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.learning.LockInternProgress(ctx, cmd.InternID); err != nil {
			return err
		}
		enrollment, err := h.learning.GetEnrollment(ctx, cmd.InternID, cmd.CourseID)
		if err != nil {
			return err
		}
		if enrollment.Status == learning.EnrollmentDropped {
			result.Enrollment = enrollment
			return nil
		}
		if err := enrollment.Drop(); err != nil {
			return err
		}
		if err := h.learning.UpdateEnrollment(ctx, enrollment); err != nil {
			return err
		}

		result.Enrollment = enrollment
		result.Events = append(result.Events,
			shared.NewEnrollmentEvent(shared.EventEnrollmentDrop, cmd.InternID, cmd.CourseID, enrollment.ProgressPercentage, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(h.eventPublisher, h.log, result.Events)
	return result, nil
}

// StartLesson opens the progress row if it is absent. Starting twice is a
// no-op that returns the existing row.
func (h *LearningHandler) StartLesson(ctx context.Context, cmd StartLessonCommand) (*ProgressResult, error) {
	result := &ProgressResult{}

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := h.interns.GetByID(ctx, cmd.InternID); err != nil {
			return err
		}
		if _, err := h.learning.GetLesson(ctx, cmd.LessonID); err != nil {
			return err
		}
		p, created, err := h.learning.InsertProgressIfAbsent(ctx,
			learning.NewLessonProgress(cmd.InternID, cmd.LessonID, h.clock.Now()))
		if err != nil {
			return err
		}
		result.Progress = p
		result.Created = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordProgress accumulates minutes on a lesson and completes it once. When
// completion flips, the enrollment in the lesson's course is refreshed and the
// score recomputed.
func (h *LearningHandler) RecordProgress(ctx context.Context, cmd RecordProgressCommand) (*ProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.clock.Now()
	result := &ProgressResult{}

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := h.interns.GetByID(ctx, cmd.InternID); err != nil {
			return err
		}
		lesson, err := h.learning.GetLesson(ctx, cmd.LessonID)
		if err != nil {
			return err
		}
		if err := h.learning.LockInternProgress(ctx, cmd.InternID); err != nil {
			return err
		}

		_, created, err := h.learning.InsertProgressIfAbsent(ctx, learning.NewLessonProgress(cmd.InternID, lesson.ID, now))
		if err != nil {
			return err
		}
		p, err := h.learning.GetProgressForUpdate(ctx, cmd.InternID, lesson.ID)
		if err != nil {
			return err
		}

		flipped, err := p.Record(cmd.AdditionalMinutes, cmd.Notes, cmd.Complete, now)
		if err != nil {
			return err
		}
		if err := h.learning.SaveProgress(ctx, p); err != nil {
			return err
		}

		result.Progress = p
		result.Created = created
		result.Completed = flipped
		if !flipped {
			return nil
		}

		result.Events = append(result.Events,
			shared.NewLessonCompletedEvent(cmd.InternID, lesson.ID, p.TimeSpentMinutes, now))

		enrollment, cert, events, err := h.refreshEnrollment(ctx, cmd.InternID, lesson.CourseID, now)
		if err != nil {
			return err
		}
		result.Enrollment = enrollment
		result.Certificate = cert
		result.Events = append(result.Events, events...)

		scored, err := h.scorer.recompute(ctx, cmd.InternID)
		if err != nil {
			return err
		}
		result.Events = append(result.Events, scored.Events...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Completed {
		h.log.Info("lesson completed", logger.InternID(cmd.InternID), logger.LessonID(cmd.LessonID))
	}
	publish(h.eventPublisher, h.log, result.Events)
	return result, nil
}

// refreshEnrollment recomputes the intern's enrollment in courseID and issues
// the course certificate when it just completed. An intern may progress
// through lessons of a course they are not enrolled in; that is not an error.
// The caller holds the intern's progress lock.
func (h *LearningHandler) refreshEnrollment(ctx context.Context, internID, courseID string, now time.Time) (*learning.Enrollment, *learning.Certificate, []shared.Event, error) {
	enrollment, err := h.learning.GetEnrollment(ctx, internID, courseID)
	if shared.IsNotFound(err) {
		return nil, nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}

	completed, total, err := h.requiredProgress(ctx, internID, courseID)
	if err != nil {
		return nil, nil, nil, err
	}

	justCompleted := enrollment.Refresh(completed, total, now)
	if err := h.learning.UpdateEnrollment(ctx, enrollment); err != nil {
		return nil, nil, nil, err
	}
	if !justCompleted {
		return enrollment, nil, nil, nil
	}

	events := []shared.Event{shared.NewEnrollmentEvent(shared.EventCourseCompleted, internID, courseID, 100, now)}
	h.log.Info("course completed", logger.InternID(internID), logger.CourseID(courseID))

	cert, issued, err := h.issueCertificate(ctx, enrollment, now)
	if err != nil {
		return nil, nil, nil, err
	}
	return enrollment, cert, append(events, issued...), nil
}

// issueCertificate stores the certificate of a completed enrollment. It
// returns nil when the intern already holds one for the course.
func (h *LearningHandler) issueCertificate(ctx context.Context, e *learning.Enrollment, now time.Time) (*learning.Certificate, []shared.Event, error) {
	cert := learning.NewCertificate(e, now)
	stored, err := h.learning.IssueCertificate(ctx, cert)
	if err != nil {
		return nil, nil, err
	}
	if !stored {
		return nil, nil, nil
	}
	return cert, []shared.Event{shared.NewCertificateIssuedEvent(e.InternID, cert.ID, e.CourseID, now)}, nil
}

func (h *LearningHandler) requiredProgress(ctx context.Context, internID, courseID string) (completed, total int, err error) {
	required, err := h.learning.RequiredLessonIDs(ctx, courseID)
	if err != nil {
		return 0, 0, err
	}
	if len(required) == 0 {
		return 0, 0, nil
	}
	completed, err = h.learning.CountCompletedAmong(ctx, internID, required)
	if err != nil {
		return 0, 0, err
	}
	return completed, len(required), nil
}
