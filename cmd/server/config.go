package main

import (
	"fmt"
	"log/slog"

	"github.com/shabelingo/shabelingo-api/internal/config"
	"github.com/shabelingo/shabelingo-api/internal/platform/postgres"
)

// loadAppConfig loads configuration from the flags' env and config files,
// the process environment and defaults.
func loadAppConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadFrom(opts.envFile, opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// logConfig records the effective configuration without secrets.
func logConfig(cfg *config.Config, logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	if cfg.Database.Driver == "postgres" {
		logger.Debug("database configuration", slog.String("url", postgres.MaskURL(cfg.Database.URL)))
	}
	logger.Debug("review configuration",
		slog.Int("due_limit", cfg.Review.DueLimit),
		slog.Int("new_limit", cfg.Review.NewLimit),
		slog.Int("random_limit", cfg.Review.RandomLimit),
		slog.Duration("query_timeout", cfg.Review.QueryTimeout),
		slog.Bool("reminders", cfg.Reminder.Enabled))
}
