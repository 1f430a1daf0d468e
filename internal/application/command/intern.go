// Package command contains write operations (CQRS - Commands).
//
// Each handler validates its command, runs the state change and the score
// recomputation in one transaction, then publishes domain events.
package command

import (
	"context"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER INTERN COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RegisterInternCommand contains the registration data.
type RegisterInternCommand struct {
	// Code is the front-desk identifier, e.g. DMRC001.
	Code       string
	Name       string
	Email      string
	Department string
	Phone      string
	StartDate  time.Time
	EndDate    *time.Time
}

// RegisterInternResult contains the registered intern.
type RegisterInternResult struct {
	Intern *intern.Intern
	Events []shared.Event
}

// RegisterInternHandler handles RegisterInternCommand.
type RegisterInternHandler struct {
	interns        intern.Repository
	scorer         *RecomputeScoreHandler
	tx             shared.Transactor
	clock          timeutil.Clock
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewRegisterInternHandler creates a new RegisterInternHandler.
func NewRegisterInternHandler(
	interns intern.Repository,
	scorer *RecomputeScoreHandler,
	tx shared.Transactor,
	clock timeutil.Clock,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *RegisterInternHandler {
	return &RegisterInternHandler{
		interns:        interns,
		scorer:         scorer,
		tx:             tx,
		clock:          clock,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("intern")),
	}
}

// Handle registers the intern. Uniqueness of code and email is left to the
// store; a collision surfaces as ErrConflict.
func (h *RegisterInternHandler) Handle(ctx context.Context, cmd RegisterInternCommand) (*RegisterInternResult, error) {
	now := h.clock.Now()
	in, err := intern.NewIntern(intern.NewInternParams{
		Code:       cmd.Code,
		Name:       cmd.Name,
		Email:      cmd.Email,
		Department: cmd.Department,
		Phone:      cmd.Phone,
		StartDate:  cmd.StartDate,
		EndDate:    cmd.EndDate,
	}, now)
	if err != nil {
		return nil, err
	}

	result := &RegisterInternResult{Intern: in}
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.interns.Create(ctx, in); err != nil {
			return err
		}
		result.Events = append(result.Events,
			shared.NewInternRegisteredEvent(in.ID, in.Code.String(), in.Name, in.Department, now))

		// Every intern starts with a zero score row so they appear on the
		// leaderboard from day one.
		scored, err := h.scorer.recompute(ctx, in.ID)
		if err != nil {
			return err
		}
		result.Events = append(result.Events, scored.Events...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.log.Info("intern registered", logger.InternID(in.ID), logger.InternCode(in.Code.String()))
	publish(h.eventPublisher, h.log, result.Events)
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SET INTERN ACTIVE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SetInternActiveCommand activates or deactivates an intern.
type SetInternActiveCommand struct {
	InternID string
	Active   bool
}

// Validate validates the command.
func (c SetInternActiveCommand) Validate() error {
	if !shared.IsValidID(c.InternID) {
		return shared.InvalidInput("intern", "SetActive", "intern_id must be a UUID")
	}
	return nil
}

// SetInternActiveResult contains the updated intern.
type SetInternActiveResult struct {
	Intern *intern.Intern
	Events []shared.Event
}

// SetInternActiveHandler handles SetInternActiveCommand.
type SetInternActiveHandler struct {
	interns        intern.Repository
	tx             shared.Transactor
	clock          timeutil.Clock
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewSetInternActiveHandler creates a new SetInternActiveHandler.
func NewSetInternActiveHandler(
	interns intern.Repository,
	tx shared.Transactor,
	clock timeutil.Clock,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *SetInternActiveHandler {
	return &SetInternActiveHandler{
		interns:        interns,
		tx:             tx,
		clock:          clock,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("intern")),
	}
}

// Handle flips the active flag. Inactive interns keep their history but
// cannot check in and drop off the leaderboard.
func (h *SetInternActiveHandler) Handle(ctx context.Context, cmd SetInternActiveCommand) (*SetInternActiveResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var updated *intern.Intern
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = h.interns.SetActive(ctx, cmd.InternID, cmd.Active)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &SetInternActiveResult{
		Intern: updated,
		Events: []shared.Event{shared.NewInternStatusChangedEvent(updated.ID, updated.IsActive, h.clock.Now())},
	}
	h.log.Info("intern status changed", logger.InternID(updated.ID), logger.Bool("active", updated.IsActive))
	publish(h.eventPublisher, h.log, result.Events)
	return result, nil
}
