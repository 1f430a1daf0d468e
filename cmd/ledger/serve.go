package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/intern-hub/progress-ledger/config"
	"github.com/intern-hub/progress-ledger/internal/application/eventhandler"
	"github.com/intern-hub/progress-ledger/internal/application/query"
	"github.com/intern-hub/progress-ledger/internal/domain/gamification"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/persistence/redis"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/scheduler"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/intern-hub/progress-ledger/internal/interface/http"
	"github.com/intern-hub/progress-ledger/internal/interface/http/handlers"
	"github.com/intern-hub/progress-ledger/pkg/circuitbreaker"
	"github.com/intern-hub/progress-ledger/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cmd)
	},
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Config, logger and store
	// ─────────────────────────────────────────────────────────────────────────

	a, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log
	cfg := a.cfg
	log.Info("starting progress ledger",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("timezone", cfg.App.Location().String()),
	)

	if cfg.Database.MigrateOnStart {
		if err := a.migrate(ctx); err != nil {
			return err
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Leaderboard cache (optional)
	// ─────────────────────────────────────────────────────────────────────────

	var (
		cache      gamification.LeaderboardCache
		guarded    *redis.GuardedLeaderboardCache
		redisCache *redis.Cache
	)
	if cfg.Features.IsEnabled(config.FeatureLeaderboardCache) && !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(redis.ConfigFrom(cfg.Redis))
		if err != nil {
			// The leaderboard falls back to the store.
			log.Warn("failed to connect to Redis, continuing without cache", logger.Err(err))
			redisCache = nil
		} else {
			defer func() {
				log.Info("closing Redis connection...")
				_ = redisCache.Close()
			}()
			breaker := circuitbreaker.CacheBreaker("leaderboard_cache", func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			}, circuitbreaker.WithIsFailure(redis.IsCacheFailure))
			guarded = redis.NewGuardedLeaderboardCache(
				redis.NewLeaderboardCache(redisCache, cfg.Scoring.LeaderboardTTL),
				breaker,
			)
			cache = guarded
			log.Info("Redis connected")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Event bus and reactions
	// ─────────────────────────────────────────────────────────────────────────

	bus, err := a.newEventBus(cfg.Features.IsEnabled(config.FeatureAsyncEvents))
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	if cache != nil {
		lbSync := eventhandler.NewLeaderboardSyncHandler(
			a.store.Interns(), a.store.Gamification(), cache, log.Slog(),
		)
		if err := lbSync.Register(bus); err != nil {
			return fmt.Errorf("failed to subscribe leaderboard sync: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Application handlers
	// ─────────────────────────────────────────────────────────────────────────

	commands := a.commands(bus)
	scores := query.NewScoreHandler(
		a.store.Interns(),
		a.store.Gamification(),
		cache,
		a.clock,
		query.ScoreConfig{
			DefaultLimit: cfg.Scoring.LeaderboardSize,
			MaxLimit:     cfg.Scoring.LeaderboardSize * 4,
		},
		log,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Background jobs
	// ─────────────────────────────────────────────────────────────────────────

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = newScheduler(a, cache, commands.RecomputeScore)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer func() {
			_ = sched.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Health checks
	// ─────────────────────────────────────────────────────────────────────────

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewPingCheck(a.store))
	if redisCache != nil {
		health.AddCheck("redis", handlers.NewPingCheck(redisCache))
	}
	health.AddDetail("events", func(context.Context) interface{} { return bus.Stats() })
	if guarded != nil {
		health.AddDetail("leaderboard_cache", func(context.Context) interface{} { return guarded.Breaker().Snapshot() })
	}
	if sched != nil {
		health.AddDetail("jobs", func(context.Context) interface{} { return sched.Jobs() })
	}
	if a.conn != nil {
		health.AddDetail("database_pool", func(ctx context.Context) interface{} {
			status, _ := a.conn.Health(ctx)
			return status
		})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP server
	// ─────────────────────────────────────────────────────────────────────────

	server := httpapi.NewServer(
		httpapi.ConfigFrom(cfg.HTTP, cfg.Features.IsEnabled(config.FeatureRequestLogging)),
		httpapi.Dependencies{
			Commands:      commands,
			Interns:       query.NewInternsHandler(a.store.Interns()),
			Attendance:    query.NewAttendanceHandler(a.store.Interns(), a.store.Attendance(), a.clock),
			Progress:      query.NewProgressHandler(a.store.Interns(), a.store.Learning(), a.store.Quizzes()),
			Scores:        scores,
			HealthChecker: health,
			Logger:        log,
		},
	)
	errCh := server.StartAsync()

	log.Info("progress ledger is running", logger.String("address", cfg.HTTP.Addr()))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("HTTP server shutdown failed", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// newScheduler registers the maintenance jobs that apply to this deployment.
func newScheduler(a *app, cache gamification.LeaderboardCache, scorer jobs.ScoreRecomputer) (*scheduler.Scheduler, error) {
	cfg := a.cfg.Scheduler
	sched := scheduler.New(scheduler.Config{
		Logger:   a.log,
		Location: a.cfg.App.Location(),
	})

	if cache != nil {
		rebuild := jobs.NewRebuildLeaderboardJob(a.store.Gamification(), cache, a.log, time.Minute)
		if err := sched.Register(rebuild, scheduler.Every(cfg.LeaderboardRebuildInterval)); err != nil {
			return nil, err
		}
	}

	if cfg.RecomputeCron != "" {
		nightly, err := scheduler.ParseCron(cfg.RecomputeCron)
		if err != nil {
			return nil, fmt.Errorf("SCHEDULER_RECOMPUTE_CRON: %w", err)
		}
		recompute := jobs.NewRecomputeScoresJob(a.store.Interns(), scorer, a.log)
		if err := sched.Register(recompute, nightly); err != nil {
			return nil, err
		}
	}

	return sched, nil
}
