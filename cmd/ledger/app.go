package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/intern-hub/progress-ledger/config"
	"github.com/intern-hub/progress-ledger/internal/application/command"
	"github.com/intern-hub/progress-ledger/internal/application/eventhandler"
	"github.com/intern-hub/progress-ledger/internal/domain/attendance"
	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/learning"
	"github.com/intern-hub/progress-ledger/internal/domain/quiz"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/messaging"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/persistence/memory"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/persistence/postgres"
	"github.com/intern-hub/progress-ledger/pkg/logger"
	"github.com/intern-hub/progress-ledger/pkg/retry"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ledgerStore is satisfied by both the PostgreSQL and the in-memory store.
type ledgerStore interface {
	shared.Transactor
	Ping(ctx context.Context) error
	Interns() intern.Repository
	Attendance() attendance.Repository
	Learning() learning.Repository
	Quizzes() quiz.Repository
	Gamification() gamification.Repository
}

// app holds what every subcommand needs: configuration, logging, the clock
// and an open store.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	clock timeutil.Clock
	store ledgerStore

	// conn is nil when running on the in-memory store.
	conn *postgres.Connection
}

// bootstrap loads configuration, applies persistent flag overrides and opens
// the store.
func bootstrap(ctx context.Context, cmd *cobra.Command) (*app, error) {
	// Flags are applied through the environment so that config.Load
	// validates the effective values.
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		if err := os.Setenv("LOG_LEVEL", level); err != nil {
			return nil, err
		}
	}
	if inMemory, _ := cmd.Flags().GetBool("in-memory"); inMemory {
		if err := os.Setenv("DB_IN_MEMORY", "true"); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.IsDevelopment(),
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)

	a := &app{
		cfg:   cfg,
		log:   log,
		clock: timeutil.NewSystemClock(cfg.App.Location()),
	}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// openStore connects to PostgreSQL, retrying while the database comes up,
// or falls back to the in-memory store when configured.
func (a *app) openStore(ctx context.Context) error {
	if a.cfg.Database.InMemory {
		a.log.Warn("using in-memory store, data is lost on exit")
		a.store = memory.New()
		return nil
	}

	a.log.Info("connecting to database...")
	retrier := retry.StartupRetrier(func(attempt int, err error, delay time.Duration) {
		a.log.Warn("database not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	})
	conn, err := retry.DoWithData(ctx, retrier, func(ctx context.Context) (*postgres.Connection, error) {
		return connectAttempt(ctx, postgres.ConfigFrom(a.cfg.Database))
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	a.conn = conn
	a.store = postgres.NewStore(conn)
	a.log.Info("database connected")
	return nil
}

// connectAttempt opens one connection. Errors no retry can fix stop the
// startup retrier at once.
func connectAttempt(ctx context.Context, cfg postgres.Config) (*postgres.Connection, error) {
	conn, err := postgres.NewConnection(ctx, cfg)
	if err != nil && postgres.IsPermanentConnectError(err) {
		return nil, retry.Permanent(err)
	}
	return conn, err
}

// migrate applies pending migrations. It is a no-op on the in-memory store.
func (a *app) migrate(ctx context.Context) error {
	if a.conn == nil {
		return nil
	}
	applied, err := postgres.NewMigrator(a.conn).Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.log.Info("migrations applied", logger.Int("count", applied))
	return nil
}

// newEventBus creates the bus and subscribes the audit trail. Callers add
// further handlers before publishing.
func (a *app) newEventBus(async bool) (*messaging.InMemoryEventBus, error) {
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      async,
		WorkerPoolSize: 10,
		Logger:         a.log.Slog(),
	})
	if err := eventhandler.NewAuditLogHandler(a.log.Slog()).Register(bus); err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("failed to subscribe audit log: %w", err)
	}
	return bus, nil
}

// commands wires the command handlers over the open store.
func (a *app) commands(events shared.EventPublisher) *command.Handlers {
	return command.NewHandlers(command.Dependencies{
		Interns:             a.store.Interns(),
		Attendance:          a.store.Attendance(),
		Learning:            a.store.Learning(),
		Quizzes:             a.store.Quizzes(),
		Gamification:        a.store.Gamification(),
		Tx:                  a.store,
		Clock:               a.clock,
		Events:              events,
		Logger:              a.log,
		DefaultPassingScore: a.cfg.Scoring.DefaultPassingScore,
	})
}

// Close releases the database pool.
func (a *app) Close() {
	if a.conn != nil {
		a.log.Info("closing database connection...")
		a.conn.Close()
	}
}
