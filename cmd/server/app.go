package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shabelingo/shabelingo-api/internal/config"
	"github.com/shabelingo/shabelingo-api/internal/domain/srs"
	"github.com/shabelingo/shabelingo-api/internal/reminder"
	"github.com/shabelingo/shabelingo-api/internal/service"
	"github.com/shabelingo/shabelingo-api/internal/service/memo_review"
)

// application holds the shared dependencies of the server and ensures they
// are released on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	storage *storage

	srsService    srs.Service
	memoService   service.MemoService
	reviewService memo_review.Service

	reminders *reminder.Scheduler
}

// newApplication wires services on top of an opened storage.
func newApplication(cfg *config.Config, logger *slog.Logger, st *storage) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		storage: st,
	}

	var err error
	app.srsService, err = newSRSService(cfg.SRS)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	app.memoService, err = service.NewMemoService(st.memos, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create memo service: %w", err)
	}

	app.reviewService = memo_review.NewService(st.memos, app.srsService, reviewLimits(cfg.Review), logger)

	if cfg.Reminder.Enabled {
		app.reminders = reminder.NewScheduler(st.memos, reminder.NewLogNotifier(logger), logger)
	}

	logger.Info("application initialized")
	return app, nil
}

// newSRSService builds the calculator from configured overrides. Zero values
// keep the SM-2 defaults.
func newSRSService(cfg config.SRSConfig) (srs.Service, error) {
	return srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MinEaseFactor:  cfg.MinEaseFactor,
		FirstInterval:  cfg.FirstInterval,
		SecondInterval: cfg.SecondInterval,
	}))
}

func reviewLimits(cfg config.ReviewConfig) memo_review.Limits {
	return memo_review.Limits{
		DueLimit:     cfg.DueLimit,
		NewLimit:     cfg.NewLimit,
		RandomLimit:  cfg.RandomLimit,
		RandomWindow: cfg.RandomWindow,
		MaxLimit:     cfg.MaxLimit,
		QueryTimeout: cfg.QueryTimeout,
	}
}

// Run starts the reminder job, if enabled, and serves HTTP until ctx is
// canceled or the process receives SIGINT or SIGTERM.
func (app *application) Run(ctx context.Context) error {
	if app.reminders != nil {
		if err := app.reminders.Start(ctx, app.config.Reminder.Cron); err != nil {
			return fmt.Errorf("failed to start reminders: %w", err)
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	if err := app.startHTTPServer(ctx, server); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases application resources.
func (app *application) cleanup() {
	if app.reminders != nil {
		app.reminders.Stop()
	}

	if err := app.storage.Close(); err != nil {
		app.logger.Error("error closing database connection", slog.String("error", err.Error()))
	}

	app.logger.Info("application shutdown completed")
}
