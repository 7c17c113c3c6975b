package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/platform/logger"
	"github.com/shabelingo/shabelingo-api/internal/store"
)

// memoColumns is the column list shared by every SELECT that feeds scanMemo.
const memoColumns = `
	id, user_id, original_text, translated_text, note, evaluation_text, language,
	status, interval_days, ease_factor, review_count, next_review_at, last_review_at,
	version, created_at, updated_at`

// PostgresMemoStore implements the store.MemoStore interface
// using a PostgreSQL database as the storage backend.
type PostgresMemoStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMemoStore creates a new PostgreSQL implementation of the MemoStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresMemoStore(db store.DBTX, logger *slog.Logger) *PostgresMemoStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMemoStore{
		db:     db,
		logger: logger.With(slog.String("component", "memo_store")),
	}
}

// Ensure PostgresMemoStore implements store.MemoStore interface
var _ store.MemoStore = (*PostgresMemoStore)(nil)

// WithTx returns a store that runs every statement inside tx.
func (s *PostgresMemoStore) WithTx(tx *sql.Tx) *PostgresMemoStore {
	return &PostgresMemoStore{db: tx, logger: s.logger}
}

// Create implements store.MemoStore.Create
func (s *PostgresMemoStore) Create(ctx context.Context, memo *domain.Memo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.insert(ctx, s.db, memo); err != nil {
		return err
	}

	log.Info("memo created successfully",
		slog.String("memo_id", memo.ID.String()),
		slog.String("user_id", memo.UserID.String()))
	return nil
}

// CreateMultiple implements store.MemoStore.CreateMultiple.
// When the store is bound to a *sql.DB the batch runs in its own transaction;
// when it is already bound to a transaction the caller owns commit/rollback.
func (s *PostgresMemoStore) CreateMultiple(ctx context.Context, memos []*domain.Memo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	insertAll := func(ctx context.Context, db store.DBTX) error {
		for _, memo := range memos {
			if err := s.insert(ctx, db, memo); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if sqlDB, ok := s.db.(*sql.DB); ok {
		err = store.RunInTransaction(ctx, sqlDB, func(ctx context.Context, tx *sql.Tx) error {
			return insertAll(ctx, tx)
		})
	} else {
		err = insertAll(ctx, s.db)
	}
	if err != nil {
		return err
	}

	log.Info("memos created successfully", slog.Int("count", len(memos)))
	return nil
}

func (s *PostgresMemoStore) insert(ctx context.Context, db store.DBTX, memo *domain.Memo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := memo.Validate(); err != nil {
		log.Warn("memo validation failed during create",
			slog.String("error", err.Error()),
			slog.String("memo_id", memo.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO memos (
			id, user_id, original_text, translated_text, note, evaluation_text, language,
			status, interval_days, ease_factor, review_count, next_review_at, last_review_at,
			version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := db.ExecContext(
		ctx,
		query,
		memo.ID,
		memo.UserID,
		memo.OriginalText,
		memo.TranslatedText,
		memo.Note,
		memo.EvaluationText,
		memo.Language,
		string(memo.Review.Status),
		memo.Review.Interval,
		memo.Review.EaseFactor,
		memo.Review.ReviewCount,
		memo.Review.NextReviewDate.UTC(),
		nullTime(memo.Review.LastReviewDate),
		memo.Version,
		memo.CreatedAt.UTC(),
		memo.UpdatedAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrMemoExists, err)
		}
		log.Error("failed to create memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", memo.ID.String()),
			slog.String("user_id", memo.UserID.String()))
		return memoError("create", err)
	}
	return nil
}

// GetByID implements store.MemoStore.GetByID
func (s *PostgresMemoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + memoColumns + ` FROM memos WHERE id = $1`

	memo, err := scanMemo(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("memo not found", slog.String("memo_id", id.String()))
			return nil, store.ErrMemoNotFound
		}
		log.Error("failed to get memo by ID",
			slog.String("error", err.Error()),
			slog.String("memo_id", id.String()))
		return nil, memoError("get", err)
	}

	return memo, nil
}

// Delete implements store.MemoStore.Delete
func (s *PostgresMemoStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM memos WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", id.String()))
		return memoError("delete", err)
	}

	if err := CheckRowsAffected(result, store.ErrMemoNotFound); err != nil {
		return err
	}

	log.Info("memo deleted", slog.String("memo_id", id.String()))
	return nil
}

// UpdateContent implements store.MemoStore.UpdateContent
func (s *PostgresMemoStore) UpdateContent(ctx context.Context, memo *domain.Memo) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := memo.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE memos
		SET original_text = $1, translated_text = $2, note = $3, evaluation_text = $4,
			language = $5, version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8
		RETURNING version
	`

	var version int64
	err := s.db.QueryRowContext(
		ctx,
		query,
		memo.OriginalText,
		memo.TranslatedText,
		memo.Note,
		memo.EvaluationText,
		memo.Language,
		memo.UpdatedAt.UTC(),
		memo.ID,
		memo.Version,
	).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, s.classifyMissedUpdate(ctx, memo.ID, memo.Version)
	}
	if err != nil {
		log.Error("failed to update memo content",
			slog.String("error", err.Error()),
			slog.String("memo_id", memo.ID.String()))
		return 0, memoError("update_content", err)
	}

	log.Info("memo content updated",
		slog.String("memo_id", memo.ID.String()),
		slog.Int64("version", version))
	return version, nil
}

// ListByUser implements store.MemoStore.ListByUser
func (s *PostgresMemoStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Memo, error) {
	query := `SELECT ` + memoColumns + `
		FROM memos
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	return s.queryMemos(ctx, "list_by_user", query, userID, max(limit, 0), max(offset, 0))
}

// FindDue implements store.MemoStore.FindDue
func (s *PostgresMemoStore) FindDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.Memo, error) {
	query := `SELECT ` + memoColumns + `
		FROM memos
		WHERE user_id = $1 AND status <> 'new' AND next_review_at <= $2
		ORDER BY next_review_at ASC, created_at ASC, id ASC
		LIMIT $3`

	return s.queryMemos(ctx, "find_due", query, userID, now.UTC(), max(limit, 0))
}

// FindNew implements store.MemoStore.FindNew
func (s *PostgresMemoStore) FindNew(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Memo, error) {
	query := `SELECT ` + memoColumns + `
		FROM memos
		WHERE user_id = $1 AND status = 'new'
		ORDER BY created_at ASC, id ASC
		LIMIT $2`

	return s.queryMemos(ctx, "find_new", query, userID, max(limit, 0))
}

// SampleReviewed implements store.MemoStore.SampleReviewed.
// random() ordering samples uniformly over the whole reviewed pool rather
// than whatever physical order the table happens to return.
func (s *PostgresMemoStore) SampleReviewed(ctx context.Context, userID uuid.UUID, window int) ([]*domain.Memo, error) {
	query := `SELECT ` + memoColumns + `
		FROM memos
		WHERE user_id = $1 AND status <> 'new'
		ORDER BY random()
		LIMIT $2`

	return s.queryMemos(ctx, "sample_reviewed", query, userID, max(window, 0))
}

// UpdateReviewState implements store.MemoStore.UpdateReviewState
func (s *PostgresMemoStore) UpdateReviewState(
	ctx context.Context,
	id uuid.UUID,
	state domain.ReviewState,
	expectedVersion int64,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE memos
		SET status = $1, interval_days = $2, ease_factor = $3, review_count = $4,
			next_review_at = $5, last_review_at = $6,
			version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9
		RETURNING version
	`

	var version int64
	err := s.db.QueryRowContext(
		ctx,
		query,
		string(state.Status),
		state.Interval,
		state.EaseFactor,
		state.ReviewCount,
		state.NextReviewDate.UTC(),
		nullTime(state.LastReviewDate),
		time.Now().UTC(),
		id,
		expectedVersion,
	).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, s.classifyMissedUpdate(ctx, id, expectedVersion)
	}
	if err != nil {
		log.Error("failed to update memo review state",
			slog.String("error", err.Error()),
			slog.String("memo_id", id.String()))
		return 0, memoError("update_review_state", err)
	}

	log.Debug("memo review state updated",
		slog.String("memo_id", id.String()),
		slog.Int64("version", version),
		slog.Int("interval", state.Interval))
	return version, nil
}

// classifyMissedUpdate tells a missing row apart from a stale version after a
// conditional update matched nothing.
func (s *PostgresMemoStore) classifyMissedUpdate(ctx context.Context, id uuid.UUID, expected int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var current int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM memos WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrMemoNotFound
	}
	if err != nil {
		return memoError("check_version", err)
	}

	log.Warn("memo update lost a version race",
		slog.String("memo_id", id.String()),
		slog.Int64("expected_version", expected),
		slog.Int64("current_version", current))
	return fmt.Errorf("%w: expected version %d, found %d", store.ErrVersionConflict, expected, current)
}

// CountDueByUser implements store.MemoStore.CountDueByUser
func (s *PostgresMemoStore) CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, COUNT(*)
		FROM memos
		WHERE status <> 'new' AND next_review_at <= $1
		GROUP BY user_id
	`

	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		log.Error("failed to count due memos", slog.String("error", err.Error()))
		return nil, memoError("count_due", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var userID uuid.UUID
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, memoError("count_due", err)
		}
		counts[userID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, memoError("count_due", err)
	}
	return counts, nil
}

func (s *PostgresMemoStore) queryMemos(ctx context.Context, op, query string, args ...any) ([]*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query memos",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, memoError(op, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows",
				slog.String("operation", op),
				slog.String("error", closeErr.Error()))
		}
	}()

	memos := []*domain.Memo{}
	for rows.Next() {
		memo, err := scanMemo(rows)
		if err != nil {
			return nil, memoError(op, err)
		}
		memos = append(memos, memo)
	}
	if err := rows.Err(); err != nil {
		return nil, memoError(op, err)
	}

	log.Debug("memos queried",
		slog.String("operation", op),
		slog.Int("count", len(memos)))
	return memos, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemo(row rowScanner) (*domain.Memo, error) {
	var memo domain.Memo
	var status string
	var lastReview sql.NullTime

	err := row.Scan(
		&memo.ID,
		&memo.UserID,
		&memo.OriginalText,
		&memo.TranslatedText,
		&memo.Note,
		&memo.EvaluationText,
		&memo.Language,
		&status,
		&memo.Review.Interval,
		&memo.Review.EaseFactor,
		&memo.Review.ReviewCount,
		&memo.Review.NextReviewDate,
		&lastReview,
		&memo.Version,
		&memo.CreatedAt,
		&memo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	memo.Review.Status = domain.ReviewStatus(status)
	if lastReview.Valid {
		memo.Review.LastReviewDate = lastReview.Time.UTC()
	}
	memo.Review.NextReviewDate = memo.Review.NextReviewDate.UTC()
	memo.CreatedAt = memo.CreatedAt.UTC()
	memo.UpdatedAt = memo.UpdatedAt.UTC()
	return &memo, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
