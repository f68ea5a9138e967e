package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/fantasy-grid/internal/api"
	"github.com/yourusername/fantasy-grid/internal/health"
	"github.com/yourusername/fantasy-grid/internal/metrics"
	"github.com/yourusername/fantasy-grid/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	var noScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction API and run scheduled forecasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), !noScheduler)
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Do not run scheduled event forecasts")
	return cmd
}

func runServe(parent context.Context, withScheduler bool) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	appLog.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"environment": cfg.App.Environment,
	}).Info("Starting fantasy grid server")

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	svc, db, cleanup, err := newPredictionService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	checks := map[string]health.Pinger{}
	if db != nil {
		checks["database"] = db
	}
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		Logger:      appLog,
		Checks:      checks,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	apiServer := api.NewServer(api.ConfigFrom(cfg), svc, appLog)
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	var sched *scheduler.Scheduler
	if withScheduler {
		sched = scheduler.NewScheduler(svc, appLog, cfg.BatchTimeout())
		added, err := sched.ScheduleEvents(cfg.Events)
		if err != nil {
			return fmt.Errorf("failed to schedule events: %w", err)
		}
		if added > 0 {
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			appLog.WithField("next_run", sched.GetNextRun()).Info("Scheduled forecasts enabled")
		}
	}

	healthServer.SetReady(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		appLog.WithField("signal", sig.String()).Info("Shutdown signal received")
	case <-ctx.Done():
	}

	healthServer.SetReady(false)
	if sched != nil {
		sched.Stop()
	}
	if err := apiServer.Shutdown(); err != nil {
		appLog.WithError(err).Warn("API server shutdown failed")
	}
	if err := healthServer.Shutdown(); err != nil {
		appLog.WithError(err).Warn("Health server shutdown failed")
	}

	appLog.Info("Fantasy grid server stopped")
	return nil
}
