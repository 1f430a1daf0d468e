package command

import (
	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// Dependencies are the collaborators shared by every command handler.
type Dependencies struct {
	Interns      intern.Repository
	Attendance   attendance.Repository
	Learning     learning.Repository
	Quizzes      quiz.Repository
	Gamification gamification.Repository

	Tx     shared.Transactor
	Clock  timeutil.Clock
	Events shared.EventPublisher
	Logger *logger.Logger

	DefaultPassingScore int
}

// Handlers groups the command handlers for the interface layer.
type Handlers struct {
	RegisterIntern  *RegisterInternHandler
	SetInternActive *SetInternActiveHandler
	Attendance      *AttendanceHandler
	Catalog         *CatalogHandler
	Learning        *LearningHandler
	SubmitAttempt   *SubmitAttemptHandler
	RecomputeScore  *RecomputeScoreHandler
}

// NewHandlers wires every command handler around one scoring engine.
func NewHandlers(d Dependencies) *Handlers {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}

	scorer := NewRecomputeScoreHandler(ScoreRepos{
		Interns:      d.Interns,
		Attendance:   d.Attendance,
		Learning:     d.Learning,
		Quizzes:      d.Quizzes,
		Gamification: d.Gamification,
	}, d.Tx, d.Clock, d.Events, d.Logger)

	catalog := CatalogConfig{DefaultPassingScore: d.DefaultPassingScore}

	return &Handlers{
		RegisterIntern:  NewRegisterInternHandler(d.Interns, scorer, d.Tx, d.Clock, d.Events, d.Logger),
		SetInternActive: NewSetInternActiveHandler(d.Interns, d.Tx, d.Clock, d.Events, d.Logger),
		Attendance:      NewAttendanceHandler(d.Interns, d.Attendance, scorer, d.Tx, d.Clock, d.Events, d.Logger),
		Catalog:         NewCatalogHandler(d.Learning, d.Quizzes, d.Gamification, d.Tx, d.Clock, catalog, d.Logger),
		Learning:        NewLearningHandler(d.Interns, d.Learning, scorer, d.Tx, d.Clock, d.Events, d.Logger),
		SubmitAttempt:   NewSubmitAttemptHandler(d.Interns, d.Quizzes, scorer, d.Tx, d.Clock, d.Events, d.Logger),
		RecomputeScore:  scorer,
	}
}
