// Package migrations applies the embedded goose schema migrations of a store
// backend. goose keeps its dialect, table name and base filesystem in package
// globals, so every run holds a lock while it configures and executes.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

// TableName is the goose version table used by every backend.
const TableName = "schema_migrations"

// Commands accepted by Run.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

var gooseMu sync.Mutex

// Source describes the migrations of one backend.
type Source struct {
	Dialect string // goose dialect, e.g. "postgres" or "sqlite3"
	FS      fs.FS  // filesystem holding the .sql files
	Dir     string // directory inside FS
}

// slogGooseLogger adapts the goose logger interface to use slog
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger by forwarding messages at info level.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements goose.Logger. Unlike the standard Fatalf it does not exit;
// the failure is returned to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Run executes a goose command against db.
func Run(ctx context.Context, db *sql.DB, src Source, command string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(
		slog.String("component", "migrations"),
		slog.String("correlation_id", uuid.NewString()),
		slog.String("command", command),
		slog.String("dialect", src.Dialect),
	)

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(&slogGooseLogger{logger: log})
	goose.SetBaseFS(src.FS)
	defer goose.SetBaseFS(nil)
	goose.SetTableName(TableName)

	if err := goose.SetDialect(src.Dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	start := time.Now()
	var err error
	switch command {
	case CommandUp:
		err = goose.UpContext(ctx, db, src.Dir)
	case CommandDown:
		err = goose.DownContext(ctx, db, src.Dir)
	case CommandReset:
		err = goose.ResetContext(ctx, db, src.Dir)
	case CommandStatus:
		err = goose.StatusContext(ctx, db, src.Dir)
	case CommandVersion:
		err = goose.VersionContext(ctx, db, src.Dir)
	default:
		return fmt.Errorf(
			"unknown migration command: %s (expected up, down, reset, status or version)",
			command,
		)
	}

	if err != nil {
		log.Error("migration command failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	log.Info("migration command executed successfully",
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, src Source, logger *slog.Logger) error {
	return Run(ctx, db, src, CommandUp, logger)
}
