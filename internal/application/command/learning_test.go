package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

func TestLearning_PercentageFollowsRequiredLessons(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	course, lessons := f.course(t, 4, 1)

	enrolled, err := f.h.Learning.Enroll(f.ctx, EnrollCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, enrolled.Enrollment.ProgressPercentage)
	assert.Equal(t, learning.EnrollmentEnrolled, enrolled.Enrollment.Status)

	f.complete(t, in.ID, lessons[0])
	res := f.complete(t, in.ID, lessons[1])
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, 50, res.Enrollment.ProgressPercentage)

	res = f.complete(t, in.ID, lessons[4])
	assert.Equal(t, 50, res.Enrollment.ProgressPercentage, "optional lessons do not count")

	f.complete(t, in.ID, lessons[2])
	res = f.complete(t, in.ID, lessons[3])
	assert.Equal(t, 100, res.Enrollment.ProgressPercentage)
	assert.Equal(t, learning.EnrollmentCompleted, res.Enrollment.Status)
	require.NotNil(t, res.Enrollment.CompletedAt)

	score := f.score(t, in.ID)
	assert.Equal(t, 1, score.CoursesCompleted)
	assert.Equal(t, 5, score.LessonsCompleted)
	assert.Equal(t, 1, f.events.count(shared.EventCourseCompleted))
}

func TestLearning_RecordProgressAccumulatesAndCompletesOnce(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	_, lessons := f.course(t, 1, 0)
	lesson := lessons[0]

	res, err := f.h.Learning.RecordProgress(f.ctx, RecordProgressCommand{
		InternID: in.ID, LessonID: lesson.ID, AdditionalMinutes: 15, Notes: strPtr("  intro  "),
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.Completed)
	assert.Equal(t, 15, res.Progress.TimeSpentMinutes)
	assert.Equal(t, "intro", *res.Progress.Notes)

	res = f.complete(t, in.ID, lesson)
	assert.True(t, res.Completed)
	firstCompletion := *res.Progress.CompletedAt

	f.clock.Advance(time.Hour)
	res, err = f.h.Learning.RecordProgress(f.ctx, RecordProgressCommand{
		InternID: in.ID, LessonID: lesson.ID, AdditionalMinutes: 5, Complete: false,
	})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.True(t, res.Progress.IsCompleted, "complete=false never un-completes")
	assert.Equal(t, 40, res.Progress.TimeSpentMinutes)
	assert.True(t, res.Progress.CompletedAt.Equal(firstCompletion))

	res = f.complete(t, in.ID, lesson)
	assert.False(t, res.Completed, "completion flips once")
	assert.Equal(t, 1, f.events.count(shared.EventLessonCompleted))
}

func TestLearning_NegativeMinutesRejected(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	_, lessons := f.course(t, 1, 0)

	_, err := f.h.Learning.RecordProgress(f.ctx, RecordProgressCommand{
		InternID: in.ID, LessonID: lessons[0].ID, AdditionalMinutes: -5,
	})
	assert.True(t, shared.IsInvalidInput(err))

	_, err = f.store.Learning().GetProgressForUpdate(f.ctx, in.ID, lessons[0].ID)
	assert.True(t, shared.IsNotFound(err), "no progress row may be created")
}

func TestLearning_StartLessonIsIdempotent(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	_, lessons := f.course(t, 1, 0)

	first, err := f.h.Learning.StartLesson(f.ctx, StartLessonCommand{InternID: in.ID, LessonID: lessons[0].ID})
	require.NoError(t, err)
	assert.True(t, first.Created)

	f.clock.Advance(time.Minute)
	second, err := f.h.Learning.StartLesson(f.ctx, StartLessonCommand{InternID: in.ID, LessonID: lessons[0].ID})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Progress.ID, second.Progress.ID)
	assert.True(t, second.Progress.StartedAt.Equal(first.Progress.StartedAt))
}

func TestLearning_EnrollComputesPercentageImmediately(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	course, lessons := f.course(t, 4, 0)

	f.complete(t, in.ID, lessons[0])

	res, err := f.h.Learning.Enroll(f.ctx, EnrollCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Enrollment.ProgressPercentage)
}

func TestLearning_EnrollInCourseWithoutRequiredLessonsCompletes(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	course, _ := f.course(t, 0, 2)

	res, err := f.h.Learning.Enroll(f.ctx, EnrollCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Enrollment.ProgressPercentage)
	assert.Equal(t, learning.EnrollmentCompleted, res.Enrollment.Status)
	assert.Equal(t, 1, f.score(t, in.ID).CoursesCompleted)
}

func TestLearning_EnrollErrors(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	course, _ := f.course(t, 1, 0)
	draft, err := f.h.Catalog.CreateCourse(f.ctx, CreateCourseCommand{Title: "Draft"})
	require.NoError(t, err)

	_, err = f.h.Learning.Enroll(f.ctx, EnrollCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)

	tests := []struct {
		name  string
		cmd   EnrollCommand
		check func(error) bool
	}{
		{"already enrolled", EnrollCommand{InternID: in.ID, CourseID: course.ID}, shared.IsConflict},
		{"draft course", EnrollCommand{InternID: in.ID, CourseID: draft.ID}, shared.IsInvalidInput},
		{"unknown course", EnrollCommand{InternID: in.ID, CourseID: shared.NewID()}, shared.IsNotFound},
		{"unknown intern", EnrollCommand{InternID: shared.NewID(), CourseID: course.ID}, shared.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.h.Learning.Enroll(f.ctx, tt.cmd)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestLearning_DropEnrollment(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	course, lessons := f.course(t, 2, 0)
	done, _ := f.course(t, 0, 0)

	_, err := f.h.Learning.Enroll(f.ctx, EnrollCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)
	_, err = f.h.Learning.Enroll(f.ctx, EnrollCommand{InternID: in.ID, CourseID: done.ID})
	require.NoError(t, err)

	dropped, err := f.h.Learning.DropEnrollment(f.ctx, DropEnrollmentCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, learning.EnrollmentDropped, dropped.Enrollment.Status)

	_, err = f.h.Learning.DropEnrollment(f.ctx, DropEnrollmentCommand{InternID: in.ID, CourseID: done.ID})
	assert.True(t, shared.IsInvalidInput(err), "completed enrollments cannot be dropped")

	// A dropped enrollment still tracks progress but never completes.
	f.complete(t, in.ID, lessons[0])
	res := f.complete(t, in.ID, lessons[1])
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, 100, res.Enrollment.ProgressPercentage)
	assert.Equal(t, learning.EnrollmentDropped, res.Enrollment.Status)
	assert.Nil(t, res.Enrollment.CompletedAt)
	assert.Equal(t, 1, f.score(t, in.ID).CoursesCompleted)
}

func TestLearning_ProgressWithoutEnrollment(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	_, lessons := f.course(t, 1, 0)

	res := f.complete(t, in.ID, lessons[0])
	assert.Nil(t, res.Enrollment)
	assert.Equal(t, 1, f.score(t, in.ID).LessonsCompleted)
}

func TestLearning_MinutesPerRecordBounded(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	_, lessons := f.course(t, 1, 0)

	for _, minutes := range []int{MaxMinutesPerRecord + 1, 1 << 62} {
		_, err := f.h.Learning.RecordProgress(f.ctx, RecordProgressCommand{
			InternID: in.ID, LessonID: lessons[0].ID, AdditionalMinutes: minutes,
		})
		assert.True(t, shared.IsInvalidInput(err), "minutes %d", minutes)
	}
	_, err := f.store.Learning().GetProgressForUpdate(f.ctx, in.ID, lessons[0].ID)
	assert.True(t, shared.IsNotFound(err), "no progress row may be created")

	res, err := f.h.Learning.RecordProgress(f.ctx, RecordProgressCommand{
		InternID: in.ID, LessonID: lessons[0].ID, AdditionalMinutes: MaxMinutesPerRecord,
	})
	require.NoError(t, err)
	assert.Equal(t, MaxMinutesPerRecord, res.Progress.TimeSpentMinutes)
}

func TestLearning_CompletionIssuesOneCertificate(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	course, lessons := f.course(t, 2, 1)

	_, err := f.h.Learning.Enroll(f.ctx, EnrollCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)

	res := f.complete(t, in.ID, lessons[0])
	assert.Nil(t, res.Certificate)

	f.clock.Advance(time.Hour)
	res = f.complete(t, in.ID, lessons[1])
	require.NotNil(t, res.Certificate)
	assert.Equal(t, in.ID, res.Certificate.InternID)
	assert.Equal(t, course.ID, res.Certificate.CourseID)
	assert.True(t, res.Certificate.IssuedAt.Equal(*res.Enrollment.CompletedAt))

	res = f.complete(t, in.ID, lessons[2])
	assert.Nil(t, res.Certificate, "optional lessons after completion issue nothing")
	res = f.complete(t, in.ID, lessons[1])
	assert.Nil(t, res.Certificate)

	certs, err := f.store.Learning().ListCertificates(f.ctx, in.ID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, 1, f.events.count(shared.EventCertificateIssued))
}

func TestLearning_EnrollCompletedCourseIssuesCertificate(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, "DMRC001")
	course, _ := f.course(t, 0, 1)

	res, err := f.h.Learning.Enroll(f.ctx, EnrollCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, course.ID, res.Certificate.CourseID)
	assert.Equal(t, 1, f.events.count(shared.EventCertificateIssued))
}

// lockTracer records the order of the reads the learning handler makes.
type lockTracer struct {
	learning.Repository
	calls []string
}

func (r *lockTracer) LockInternProgress(ctx context.Context, internID string) error {
	r.calls = append(r.calls, "lock")
	return r.Repository.LockInternProgress(ctx, internID)
}

func (r *lockTracer) GetEnrollment(ctx context.Context, internID, courseID string) (*learning.Enrollment, error) {
	r.calls = append(r.calls, "enrollment")
	return r.Repository.GetEnrollment(ctx, internID, courseID)
}

func (r *lockTracer) CountCompletedAmong(ctx context.Context, internID string, lessonIDs []string) (int, error) {
	r.calls = append(r.calls, "count")
	return r.Repository.CountCompletedAmong(ctx, internID, lessonIDs)
}

func (r *lockTracer) take() []string {
	calls := r.calls
	r.calls = nil
	return calls
}

func TestLearning_ProgressLockPrecedesReads(t *testing.T) {
	tracer := &lockTracer{}
	f := newFixtureWithLearning(t, func(r learning.Repository) learning.Repository {
		tracer.Repository = r
		return tracer
	})
	in := f.register(t, "DMRC001")
	course, lessons := f.course(t, 2, 0)
	tracer.take()

	_, err := f.h.Learning.Enroll(f.ctx, EnrollCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)
	calls := tracer.take()
	require.NotEmpty(t, calls)
	assert.Equal(t, "lock", calls[0], "enroll: %v", calls)
	assert.Contains(t, calls, "count")

	f.complete(t, in.ID, lessons[0])
	calls = tracer.take()
	require.NotEmpty(t, calls)
	assert.Equal(t, "lock", calls[0], "record progress: %v", calls)
	assert.Contains(t, calls, "count")
	assert.Contains(t, calls, "enrollment")

	_, err = f.h.Learning.DropEnrollment(f.ctx, DropEnrollmentCommand{InternID: in.ID, CourseID: course.ID})
	require.NoError(t, err)
	calls = tracer.take()
	require.NotEmpty(t, calls)
	assert.Equal(t, "lock", calls[0], "drop: %v", calls)
}
