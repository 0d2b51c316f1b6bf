// Package main - точка входа фонового процесса (Worker) Tournament Hub.
//
// Worker держит кеш лидербордов актуальным:
// - по расписанию пересобирает лидерборды активных турниров;
// - слушает события из Redis Pub/Sub и пересобирает лидерборд турнира
//   сразу после записи результата или завершения турнира.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alem-hub/tournament-hub/config"
	"github.com/alem-hub/tournament-hub/internal/app"
	"github.com/alem-hub/tournament-hub/internal/application/eventhandler"
	"github.com/alem-hub/tournament-hub/internal/infrastructure/scheduler"
	"github.com/alem-hub/tournament-hub/internal/infrastructure/scheduler/jobs"
	"github.com/alem-hub/tournament-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := app.NewLogger(cfg).With(logger.Component("worker"))
	log.Info("starting Tournament Hub Worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("storage", cfg.Storage.Driver),
	)
	if !cfg.UsesPostgres() {
		log.Warn("worker is running on in-memory storage; it only sees its own process state")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ЗАВИСИМОСТИ (хранилища, Redis, шина событий, сервис)
	// ─────────────────────────────────────────────────────────────────────────
	container, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Warn("shutdown errors", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. СОБЫТИЯ ИЗ ДРУГИХ ПРОЦЕССОВ
	// ─────────────────────────────────────────────────────────────────────────
	refresh := eventhandler.NewRefreshLeaderboardHandler(container.Service, log, eventhandler.DefaultRefreshLeaderboardConfig())
	if container.RedisBus != nil {
		if err := refresh.Register(container.RedisBus); err != nil {
			return fmt.Errorf("failed to register event handlers: %w", err)
		}
		if err := container.RedisBus.Listen(ctx); err != nil {
			log.Warn("remote events disabled", logger.Err(err))
		}
	} else {
		log.Info("Redis is disabled, leaderboards are rebuilt on schedule only")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	if !cfg.Scheduler.Enabled {
		log.Info("scheduler disabled, waiting for events")
		<-ctx.Done()
		return nil
	}

	sched, err := scheduler.New(scheduler.Config{
		Logger:            log,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	rebuildCfg := jobs.DefaultRebuildLeaderboardConfig()
	rebuildCfg.Timeout = cfg.Scheduler.JobTimeout
	if container.Redis != nil {
		rebuildCfg.Locker = container.Redis
	}
	rebuild := jobs.NewRebuildLeaderboardJob(container.Service, log, rebuildCfg)
	if err := sched.Register(rebuild, cfg.Scheduler.RebuildLeaderboardInterval, true); err != nil {
		return fmt.Errorf("failed to register %s: %w", rebuild.Name(), err)
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	for _, job := range sched.ListJobs() {
		log.Info("job scheduled", logger.String("job", job.Name), logger.Time("next_run", job.NextRun))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info("received shutdown signal, stopping scheduler...")

	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop failed", logger.Err(err))
	}
	if stats := rebuild.LastStats(); stats != nil {
		log.Info("last leaderboard rebuild",
			logger.Int("tournaments", stats.Tournaments),
			logger.Duration("duration", stats.Duration),
		)
	}

	log.Info("shutdown completed successfully")
	return nil
}
