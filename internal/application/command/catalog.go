package command

import (
	"context"
	"encoding/json"

	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG COMMANDS
// Administrative definitions: courses, modules, lessons, quizzes and badges.
// These never touch an intern's facts, so no score is recomputed.
// ══════════════════════════════════════════════════════════════════════════════

// CreateCourseCommand defines a course.
type CreateCourseCommand struct {
	Title           string
	Description     string
	DifficultyLevel string
	DurationHours   int
	Status          string
}

// CreateModuleCommand adds a module to a course.
type CreateModuleCommand struct {
	CourseID   string
	Title      string
	OrderIndex int
}

// CreateLessonCommand adds a lesson to a module.
type CreateLessonCommand struct {
	ModuleID        string
	Title           string
	ContentType     string
	DurationMinutes int
	IsRequired      bool
	OrderIndex      int
}

// CreateQuizCommand defines a quiz, optionally attached to a lesson.
type CreateQuizCommand struct {
	LessonID         *string
	Title            string
	PassingScore     *int
	MaxAttempts      *int
	TimeLimitMinutes *int
}

// DefineBadgeCommand defines a badge and its award criteria.
type DefineBadgeCommand struct {
	Name        string
	Description string
	Criteria    json.RawMessage
	Points      int
}

// CatalogConfig holds catalog defaults.
type CatalogConfig struct {
	DefaultPassingScore int
}

// CatalogHandler handles the catalog commands.
type CatalogHandler struct {
	learning     learning.Repository
	quizzes      quiz.Repository
	gamification gamification.Repository
	tx           shared.Transactor
	clock        timeutil.Clock
	config       CatalogConfig
	log          *logger.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(
	learningRepo learning.Repository,
	quizRepo quiz.Repository,
	gamificationRepo gamification.Repository,
	tx shared.Transactor,
	clock timeutil.Clock,
	config CatalogConfig,
	log *logger.Logger,
) *CatalogHandler {
	if config.DefaultPassingScore == 0 {
		config.DefaultPassingScore = quiz.DefaultPassingScore
	}
	return &CatalogHandler{
		learning:     learningRepo,
		quizzes:      quizRepo,
		gamification: gamificationRepo,
		tx:           tx,
		clock:        clock,
		config:       config,
		log:          log.With(logger.Component("catalog")),
	}
}

// CreateCourse defines a course. An empty status means draft.
func (h *CatalogHandler) CreateCourse(ctx context.Context, cmd CreateCourseCommand) (*learning.Course, error) {
	course, err := learning.NewCourse(
		cmd.Title, cmd.Description, cmd.DifficultyLevel, cmd.DurationHours,
		learning.CourseStatus(cmd.Status), h.clock.Now(),
	)
	if err != nil {
		return nil, err
	}
	if err := h.learning.CreateCourse(ctx, course); err != nil {
		return nil, err
	}
	h.log.Info("course created", logger.CourseID(course.ID), logger.String("status", string(course.Status)))
	return course, nil
}

// CreateModule adds a module to an existing course.
func (h *CatalogHandler) CreateModule(ctx context.Context, cmd CreateModuleCommand) (*learning.Module, error) {
	var module *learning.Module
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := h.learning.GetCourse(ctx, cmd.CourseID); err != nil {
			return err
		}
		var err error
		module, err = learning.NewModule(cmd.CourseID, cmd.Title, cmd.OrderIndex)
		if err != nil {
			return err
		}
		return h.learning.CreateModule(ctx, module)
	})
	if err != nil {
		return nil, err
	}
	return module, nil
}

// CreateLesson adds a lesson to an existing module.
func (h *CatalogHandler) CreateLesson(ctx context.Context, cmd CreateLessonCommand) (*learning.Lesson, error) {
	var lesson *learning.Lesson
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		module, err := h.learning.GetModule(ctx, cmd.ModuleID)
		if err != nil {
			return err
		}
		lesson, err = learning.NewLesson(module, learning.NewLessonParams{
			Title:           cmd.Title,
			ContentType:     learning.ContentType(cmd.ContentType),
			DurationMinutes: cmd.DurationMinutes,
			IsRequired:      cmd.IsRequired,
			OrderIndex:      cmd.OrderIndex,
		})
		if err != nil {
			return err
		}
		return h.learning.CreateLesson(ctx, lesson)
	})
	if err != nil {
		return nil, err
	}
	h.log.Info("lesson created", logger.LessonID(lesson.ID), logger.CourseID(lesson.CourseID))
	return lesson, nil
}

// CreateQuiz defines a quiz. The passing score falls back to the configured
// default.
func (h *CatalogHandler) CreateQuiz(ctx context.Context, cmd CreateQuizCommand) (*quiz.Quiz, error) {
	q, err := quiz.NewQuiz(quiz.NewQuizParams{
		LessonID:         cmd.LessonID,
		Title:            cmd.Title,
		PassingScore:     cmd.PassingScore,
		MaxAttempts:      cmd.MaxAttempts,
		TimeLimitMinutes: cmd.TimeLimitMinutes,
	}, h.config.DefaultPassingScore, h.clock.Now())
	if err != nil {
		return nil, err
	}

	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if q.LessonID != nil {
			if _, err := h.learning.GetLesson(ctx, *q.LessonID); err != nil {
				return err
			}
		}
		return h.quizzes.CreateQuiz(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	h.log.Info("quiz created", logger.QuizID(q.ID), logger.Int("passing_score", q.PassingScore))
	return q, nil
}

// DefineBadge validates the criteria and stores the badge. Interns who
// already qualify receive it on their next recomputation.
func (h *CatalogHandler) DefineBadge(ctx context.Context, cmd DefineBadgeCommand) (*gamification.Badge, error) {
	badge, err := gamification.NewBadge(cmd.Name, cmd.Description, cmd.Criteria, cmd.Points, h.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := h.gamification.CreateBadge(ctx, badge); err != nil {
		return nil, err
	}
	h.log.Info("badge defined", logger.String("badge", badge.Name), logger.Int("points", badge.Points))
	return badge, nil
}
