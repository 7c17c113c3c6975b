// Package sqlite provides a single-file MemoStore built on sqlx and the pure-Go
// modernc.org/sqlite driver. Instants are stored as epoch milliseconds.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/shabelingo/shabelingo-api/internal/platform/migrations"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations is the goose source for the SQLite schema.
var Migrations = migrations.Source{
	Dialect: "sqlite3",
	FS:      migrationFS,
	Dir:     "migrations",
}

// Open opens (creating if needed) the database file at path. The pool is
// limited to one connection so per-connection pragmas apply to every
// statement and writers serialize instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	logger.Info("database connection established",
		slog.String("driver", "sqlite"),
		slog.String("path", path))
	return db, nil
}

func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
