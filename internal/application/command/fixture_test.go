package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/persistence/memory"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// almaty is UTC+5 without DST, so tests do not depend on the tz database.
var almaty = time.FixedZone("Asia/Almaty", 5*60*60)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count(t shared.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == t {
			n++
		}
	}
	return n
}

type fixture struct {
	ctx    context.Context
	store  *memory.Store
	clock  *timeutil.FixedClock
	events *recordingPublisher
	h      *Handlers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

// newFixtureWith lets a test replace the gamification repository.
func newFixtureWith(t *testing.T, wrap func(gamification.Repository) gamification.Repository) *fixture {
	t.Helper()
	return buildFixture(t, wrap, nil)
}

// newFixtureWithLearning lets a test replace the learning repository.
func newFixtureWithLearning(t *testing.T, wrap func(learning.Repository) learning.Repository) *fixture {
	t.Helper()
	return buildFixture(t, nil, wrap)
}

func buildFixture(
	t *testing.T,
	wrapScores func(gamification.Repository) gamification.Repository,
	wrapLearning func(learning.Repository) learning.Repository,
) *fixture {
	t.Helper()
	store := memory.New()
	clock := &timeutil.FixedClock{
		At:  time.Date(2026, 3, 2, 4, 30, 0, 0, time.UTC), // 09:30 in Almaty
		Loc: almaty,
	}
	events := &recordingPublisher{}

	scores := store.Gamification()
	if wrapScores != nil {
		scores = wrapScores(scores)
	}
	progress := store.Learning()
	if wrapLearning != nil {
		progress = wrapLearning(progress)
	}

	return &fixture{
		ctx:    context.Background(),
		store:  store,
		clock:  clock,
		events: events,
		h: NewHandlers(Dependencies{
			Interns:             store.Interns(),
			Attendance:          store.Attendance(),
			Learning:            progress,
			Quizzes:             store.Quizzes(),
			Gamification:        scores,
			Tx:                  store,
			Clock:               clock,
			Events:              events,
			Logger:              logger.Nop(),
			DefaultPassingScore: 70,
		}),
	}
}

func (f *fixture) register(t *testing.T, code string) *intern.Intern {
	t.Helper()
	res, err := f.h.RegisterIntern.Handle(f.ctx, RegisterInternCommand{
		Code:       code,
		Name:       "Intern " + code,
		Email:      code + "@example.com",
		Department: "Engineering",
		StartDate:  time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return res.Intern
}

// course creates a published course with the given number of required and
// optional lessons, all in one module.
func (f *fixture) course(t *testing.T, required, optional int) (*learning.Course, []*learning.Lesson) {
	t.Helper()
	c, err := f.h.Catalog.CreateCourse(f.ctx, CreateCourseCommand{Title: "Go Basics", Status: "published"})
	require.NoError(t, err)
	m, err := f.h.Catalog.CreateModule(f.ctx, CreateModuleCommand{CourseID: c.ID, Title: "Week 1"})
	require.NoError(t, err)

	var lessons []*learning.Lesson
	for i := 0; i < required+optional; i++ {
		l, err := f.h.Catalog.CreateLesson(f.ctx, CreateLessonCommand{
			ModuleID:        m.ID,
			Title:           "Lesson",
			ContentType:     "text",
			DurationMinutes: 30,
			IsRequired:      i < required,
			OrderIndex:      i,
		})
		require.NoError(t, err)
		lessons = append(lessons, l)
	}
	return c, lessons
}

func (f *fixture) complete(t *testing.T, internID string, l *learning.Lesson) *ProgressResult {
	t.Helper()
	res, err := f.h.Learning.RecordProgress(f.ctx, RecordProgressCommand{
		InternID:          internID,
		LessonID:          l.ID,
		AdditionalMinutes: 20,
		Complete:          true,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) score(t *testing.T, internID string) *gamification.UserScore {
	t.Helper()
	s, err := f.store.Gamification().GetScore(f.ctx, internID)
	require.NoError(t, err)
	return s
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
