// Package main is the entry point for the investment-tracking backend.
// It wires configuration, logging, databases, services, background jobs and
// the HTTP server, then waits for a shutdown signal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundfolio/fundfolio/internal/config"
	"github.com/fundfolio/fundfolio/internal/di"
	"github.com/fundfolio/fundfolio/internal/modules/portfolio"
	"github.com/fundfolio/fundfolio/internal/scheduler"
	"github.com/fundfolio/fundfolio/internal/server"
	"github.com/fundfolio/fundfolio/pkg/logger"
)

func main() {
	// Load configuration first to get the log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger so the configuration error is still logged
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting fundfolio")

	// Wire databases, repositories and services
	container, err := di.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Background jobs
	sched := scheduler.New(log)
	if cfg.RevaluationSchedule != "" {
		revalJob := portfolio.NewRevaluationJob(container.PortfolioService)
		if err := sched.AddJob(cfg.RevaluationSchedule, revalJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register revaluation job")
		}
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	// Wait for shutdown signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
