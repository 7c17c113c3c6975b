package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shabelingo/shabelingo-api/internal/platform/migrations"
	"github.com/spf13/cobra"
)

const readHeaderTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadAppConfig(opts)
			if err != nil {
				return err
			}
			logger, err := setupAppLogger(cfg)
			if err != nil {
				return err
			}
			logConfig(cfg, logger)

			ctx := cmd.Context()
			st, err := openStorage(ctx, cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}

			if migrate && st.db != nil {
				if err := st.migrate(ctx, migrations.CommandUp, logger); err != nil {
					_ = st.Close()
					return err
				}
			}

			app, err := newApplication(cfg, logger, st)
			if err != nil {
				_ = st.Close()
				return err
			}
			return app.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// startHTTPServer serves until ctx is canceled or a shutdown signal arrives,
// then drains in-flight requests within the configured shutdown timeout.
func (app *application) startHTTPServer(ctx context.Context, server *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	case serveErr = <-errCh:
		if serveErr != nil {
			app.logger.Error("server failed", slog.String("error", serveErr.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		serveErr = errors.Join(serveErr, fmt.Errorf("server shutdown failed: %w", err))
	}

	app.cleanup()

	app.logger.Info("server shutdown completed")
	return serveErr
}
