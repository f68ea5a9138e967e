// Package main provides the racesim command line tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/fantasy-grid/internal/config"
	"github.com/yourusername/fantasy-grid/internal/database"
	"github.com/yourusername/fantasy-grid/internal/logger"
	"github.com/yourusername/fantasy-grid/internal/repository"
	"github.com/yourusername/fantasy-grid/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "racesim",
		Short:         "Monte Carlo race simulator for fantasy grid predictions",
		Long:          `Simulates races lap by lap with tyre wear, pit stops and weather, and aggregates thousands of runs into finishing probabilities.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
			appLog.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(newSimulateCmd(), newPredictCmd(), newDeriveCmd(), newServeCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	return config.Validate(cfg)
}

// newPredictionService wires storage when the database is enabled. The
// returned cleanup closes the pool.
func newPredictionService(ctx context.Context) (*service.PredictionService, *database.DB, func(), error) {
	if !cfg.Database.Enabled {
		return service.NewPredictionService(service.ConfigFrom(cfg), nil, appLog), nil, func() {}, nil
	}

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repos, err := repository.NewRepositories(db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	appLog.Info("Database connection established")
	return service.NewPredictionService(service.ConfigFrom(cfg), repos.Prediction, appLog), db, db.Close, nil
}
