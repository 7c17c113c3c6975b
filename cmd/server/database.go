package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shabelingo/shabelingo-api/internal/api"
	"github.com/shabelingo/shabelingo-api/internal/config"
	"github.com/shabelingo/shabelingo-api/internal/platform/memory"
	"github.com/shabelingo/shabelingo-api/internal/platform/migrations"
	"github.com/shabelingo/shabelingo-api/internal/platform/postgres"
	"github.com/shabelingo/shabelingo-api/internal/platform/sqlite"
	"github.com/shabelingo/shabelingo-api/internal/store"
)

// errNoMigrations is returned when migrations are requested for the
// in-memory backend.
var errNoMigrations = errors.New("the memory driver has no schema to migrate")

// storage is the opened memo store together with the connection behind it.
// db is nil for the memory driver.
type storage struct {
	memos  store.MemoStore
	db     *sql.DB
	source migrations.Source
}

// openStorage connects to the backend selected by cfg.Driver.
func openStorage(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.URL, logger)
		if err != nil {
			return nil, err
		}
		return &storage{
			memos:  postgres.NewPostgresMemoStore(db, logger),
			db:     db,
			source: postgres.Migrations,
		}, nil

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.URL, logger)
		if err != nil {
			return nil, err
		}
		return &storage{
			memos:  sqlite.NewMemoStore(db, logger),
			db:     db.DB,
			source: sqlite.Migrations,
		}, nil

	case "memory":
		logger.Warn("using in-memory store; memos are lost on exit")
		return &storage{memos: memory.NewMemoStore(logger)}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// migrate runs a goose command against the backend's embedded migrations.
func (s *storage) migrate(ctx context.Context, command string, logger *slog.Logger) error {
	if s.db == nil {
		return errNoMigrations
	}
	return migrations.Run(ctx, s.db, s.source, command, logger)
}

// pinger returns the health check target, nil for the memory driver.
func (s *storage) pinger() api.Pinger {
	if s.db == nil {
		return nil
	}
	return s.db
}

func (s *storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
