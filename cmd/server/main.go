// Package main is the entry point for the finsight personal-finance advisor
// core. It wires the ledger, goals, profile, product, recommendation,
// dashboard and advisor services on top of the 4-database layout and keeps
// them maintained through cron-driven background jobs.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for business logic
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/finsight/finsight/internal/config"
	"github.com/finsight/finsight/internal/di"
	"github.com/finsight/finsight/internal/version"
	"github.com/finsight/finsight/pkg/logger"
)

// shutdownTimeout is the budget for draining running jobs on exit
const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("version", version.Version).
		Str("data_dir", cfg.DataDir).
		Msg("Starting finsight")

	// Wire all dependencies using the DI container: databases, repositories,
	// services, clients and background jobs.
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	// Close checkpoints the WALs and closes all databases, also on panic
	defer container.Close()

	if cfg.SchedulerEnabled {
		container.Scheduler.Start()
	} else {
		log.Warn().Msg("Scheduler disabled by configuration")
	}

	// Block until SIGINT (Ctrl+C) or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	stop()

	log.Info().Msg("Shutting down...")

	if cfg.SchedulerEnabled {
		// Let running jobs drain, but never hang shutdown on a stuck job
		drained := make(chan struct{})
		go func() {
			container.Scheduler.Stop()
			close(drained)
		}()

		select {
		case <-drained:
		case <-time.After(shutdownTimeout):
			log.Warn().Msg("Jobs did not drain in time, closing anyway")
		}
	}

	log.Info().Msg("finsight stopped")
}
