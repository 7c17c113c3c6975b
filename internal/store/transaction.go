package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shabelingo/shabelingo-api/internal/platform/logger"
)

// TxFn is the unit of work passed to RunInTransaction.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// Beginner starts transactions. *sql.DB and *sqlx.DB satisfy it.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// RunInTransaction commits when fn returns nil and rolls back otherwise.
// A panic in fn rolls back and is re-raised. When the rollback itself fails,
// the returned error matches both fn's error and the rollback error.
func RunInTransaction(ctx context.Context, db Beginner, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("rollback after panic failed",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("error", err.Error()))
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		log.Debug("transaction rolled back", slog.String("error", err.Error()))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
