package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/platform/logger"
	"github.com/shabelingo/shabelingo-api/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// memoRow is the on-disk shape of a memo.
type memoRow struct {
	ID             string        `db:"id"`
	UserID         string        `db:"user_id"`
	OriginalText   string        `db:"original_text"`
	TranslatedText string        `db:"translated_text"`
	Note           string        `db:"note"`
	EvaluationText string        `db:"evaluation_text"`
	Language       string        `db:"language"`
	Status         string        `db:"status"`
	IntervalDays   int           `db:"interval_days"`
	EaseFactor     float64       `db:"ease_factor"`
	ReviewCount    int           `db:"review_count"`
	NextReviewAt   int64         `db:"next_review_at"`
	LastReviewAt   sql.NullInt64 `db:"last_review_at"`
	Version        int64         `db:"version"`
	CreatedAt      int64         `db:"created_at"`
	UpdatedAt      int64         `db:"updated_at"`
}

const insertMemo = `
	INSERT INTO memos (
		id, user_id, original_text, translated_text, note, evaluation_text, language,
		status, interval_days, ease_factor, review_count, next_review_at, last_review_at,
		version, created_at, updated_at
	) VALUES (
		:id, :user_id, :original_text, :translated_text, :note, :evaluation_text, :language,
		:status, :interval_days, :ease_factor, :review_count, :next_review_at, :last_review_at,
		:version, :created_at, :updated_at
	)`

// MemoStore implements store.MemoStore on SQLite.
type MemoStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewMemoStore wraps an open database. If logger is nil, slog.Default() is used.
func NewMemoStore(db *sqlx.DB, logger *slog.Logger) *MemoStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoStore{
		db:     db,
		logger: logger.With(slog.String("component", "memo_store_sqlite")),
	}
}

var _ store.MemoStore = (*MemoStore)(nil)

// Create implements store.MemoStore.
func (s *MemoStore) Create(ctx context.Context, memo *domain.Memo) error {
	return s.CreateMultiple(ctx, []*domain.Memo{memo})
}

// CreateMultiple implements store.MemoStore.
func (s *MemoStore) CreateMultiple(ctx context.Context, memos []*domain.Memo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows := make([]memoRow, 0, len(memos))
	for _, m := range memos {
		if err := m.Validate(); err != nil {
			log.Warn("memo validation failed during create",
				slog.String("error", err.Error()),
				slog.String("memo_id", m.ID.String()))
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
		rows = append(rows, toRow(m))
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		for _, row := range rows {
			query, args, err := sqlx.Named(insertMemo, row)
			if err != nil {
				return fmt.Errorf("bind memo insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return memoError("create", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug("memos created", slog.Int("count", len(memos)))
	return nil
}

// GetByID implements store.MemoStore.
func (s *MemoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Memo, error) {
	var row memoRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM memos WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrMemoNotFound
	}
	if err != nil {
		return nil, memoError("get", err)
	}
	return row.toDomain()
}

// Delete implements store.MemoStore.
func (s *MemoStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM memos WHERE id = ?`, id.String())
	if err != nil {
		return memoError("delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrMemoNotFound
	}
	return nil
}

// FindDue implements store.MemoStore.
func (s *MemoStore) FindDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.Memo, error) {
	return s.selectMemos(ctx, "find_due", `
		SELECT * FROM memos
		WHERE user_id = ? AND status <> 'new' AND next_review_at <= ?
		ORDER BY next_review_at ASC, created_at ASC, id ASC
		LIMIT ?`,
		userID.String(), now.UnixMilli(), max(limit, 0))
}

// FindNew implements store.MemoStore.
func (s *MemoStore) FindNew(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Memo, error) {
	return s.selectMemos(ctx, "find_new", `
		SELECT * FROM memos
		WHERE user_id = ? AND status = 'new'
		ORDER BY created_at ASC, id ASC
		LIMIT ?`,
		userID.String(), max(limit, 0))
}

// SampleReviewed implements store.MemoStore.
func (s *MemoStore) SampleReviewed(ctx context.Context, userID uuid.UUID, window int) ([]*domain.Memo, error) {
	return s.selectMemos(ctx, "sample_reviewed", `
		SELECT * FROM memos
		WHERE user_id = ? AND status <> 'new'
		ORDER BY RANDOM()
		LIMIT ?`,
		userID.String(), max(window, 0))
}

// UpdateReviewState implements store.MemoStore.
func (s *MemoStore) UpdateReviewState(
	ctx context.Context,
	id uuid.UUID,
	state domain.ReviewState,
	expectedVersion int64,
) (int64, error) {
	if err := state.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE memos
		SET status = ?, interval_days = ?, ease_factor = ?, review_count = ?,
			next_review_at = ?, last_review_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(state.Status),
		state.Interval,
		state.EaseFactor,
		state.ReviewCount,
		state.NextReviewDate.UnixMilli(),
		nullMillis(state.LastReviewDate),
		time.Now().UnixMilli(),
		id.String(),
		expectedVersion,
	)
	if err != nil {
		return 0, memoError("update_review_state", err)
	}

	return s.versionAfterUpdate(ctx, result, id, expectedVersion)
}

// UpdateContent implements store.MemoStore.
func (s *MemoStore) UpdateContent(ctx context.Context, memo *domain.Memo) (int64, error) {
	if err := memo.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE memos
		SET original_text = ?, translated_text = ?, note = ?, evaluation_text = ?,
			language = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		memo.OriginalText,
		memo.TranslatedText,
		memo.Note,
		memo.EvaluationText,
		memo.Language,
		memo.UpdatedAt.UnixMilli(),
		memo.ID.String(),
		memo.Version,
	)
	if err != nil {
		return 0, memoError("update_content", err)
	}

	return s.versionAfterUpdate(ctx, result, memo.ID, memo.Version)
}

// versionAfterUpdate returns the bumped version of a conditional update, or
// tells a missing row apart from a stale version when nothing matched.
func (s *MemoStore) versionAfterUpdate(ctx context.Context, result sql.Result, id uuid.UUID, expected int64) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 1 {
		return expected + 1, nil
	}

	var current int64
	err = s.db.GetContext(ctx, &current, `SELECT version FROM memos WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrMemoNotFound
	}
	if err != nil {
		return 0, memoError("check_version", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Warn("memo update lost a version race",
		slog.String("memo_id", id.String()),
		slog.Int64("expected_version", expected),
		slog.Int64("current_version", current))
	return 0, fmt.Errorf("%w: expected version %d, found %d", store.ErrVersionConflict, expected, current)
}

// ListByUser implements store.MemoStore.
func (s *MemoStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Memo, error) {
	return s.selectMemos(ctx, "list_by_user", `
		SELECT * FROM memos
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		userID.String(), max(limit, 0), max(offset, 0))
}

// CountDueByUser implements store.MemoStore.
func (s *MemoStore) CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	var rows []struct {
		UserID string `db:"user_id"`
		Count  int    `db:"due"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT user_id, COUNT(*) AS due
		FROM memos
		WHERE status <> 'new' AND next_review_at <= ?
		GROUP BY user_id`,
		now.UnixMilli())
	if err != nil {
		return nil, memoError("count_due", err)
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.UserID)
		if err != nil {
			return nil, fmt.Errorf("corrupt user id %q: %w", r.UserID, err)
		}
		counts[id] = r.Count
	}
	return counts, nil
}

func (s *MemoStore) selectMemos(ctx context.Context, op, query string, args ...any) ([]*domain.Memo, error) {
	var rows []memoRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query memos",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, memoError(op, err)
	}

	memos := make([]*domain.Memo, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		memos = append(memos, m)
	}
	return memos, nil
}

func toRow(m *domain.Memo) memoRow {
	return memoRow{
		ID:             m.ID.String(),
		UserID:         m.UserID.String(),
		OriginalText:   m.OriginalText,
		TranslatedText: m.TranslatedText,
		Note:           m.Note,
		EvaluationText: m.EvaluationText,
		Language:       m.Language,
		Status:         string(m.Review.Status),
		IntervalDays:   m.Review.Interval,
		EaseFactor:     m.Review.EaseFactor,
		ReviewCount:    m.Review.ReviewCount,
		NextReviewAt:   m.Review.NextReviewDate.UnixMilli(),
		LastReviewAt:   nullMillis(m.Review.LastReviewDate),
		Version:        m.Version,
		CreatedAt:      m.CreatedAt.UnixMilli(),
		UpdatedAt:      m.UpdatedAt.UnixMilli(),
	}
}

func (r memoRow) toDomain() (*domain.Memo, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt memo id %q: %w", r.ID, err)
	}
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", r.UserID, err)
	}

	m := &domain.Memo{
		ID:             id,
		UserID:         userID,
		OriginalText:   r.OriginalText,
		TranslatedText: r.TranslatedText,
		Note:           r.Note,
		EvaluationText: r.EvaluationText,
		Language:       r.Language,
		Review: domain.ReviewState{
			Status:         domain.ReviewStatus(r.Status),
			Interval:       r.IntervalDays,
			EaseFactor:     r.EaseFactor,
			ReviewCount:    r.ReviewCount,
			NextReviewDate: time.UnixMilli(r.NextReviewAt).UTC(),
		},
		Version:   r.Version,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
	}
	if r.LastReviewAt.Valid {
		m.Review.LastReviewDate = time.UnixMilli(r.LastReviewAt.Int64).UTC()
	}
	return m, nil
}

func nullMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// memoError maps err and records which memo operation failed.
func memoError(op string, err error) error {
	return store.NewStoreError("memo", op, "database error", mapError(err))
}

// mapError translates SQLite constraint failures into store errors.
func mapError(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("%w: %v", store.ErrMemoExists, err)
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	return err
}
