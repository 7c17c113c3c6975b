package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewedState() domain.ReviewState {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.ReviewState{
		Status:         domain.StatusReview,
		Interval:       6,
		EaseFactor:     2.6,
		ReviewCount:    2,
		NextReviewDate: now.Add(6 * 24 * time.Hour),
		LastReviewDate: now,
	}
}

func TestUpdateReviewStateClassifiesMisses(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		expect  func(sqlmock.Sqlmock)
		want    int64
		wantErr error
	}{
		{
			name: "version matches",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("UPDATE memos").
					WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))
			},
			want: 4,
		},
		{
			name: "stale version",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("UPDATE memos").WillReturnRows(sqlmock.NewRows([]string{"version"}))
				m.ExpectQuery("SELECT version FROM memos").
					WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))
			},
			wantErr: store.ErrVersionConflict,
		},
		{
			name: "memo missing",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("UPDATE memos").WillReturnRows(sqlmock.NewRows([]string{"version"}))
				m.ExpectQuery("SELECT version FROM memos").WillReturnRows(sqlmock.NewRows([]string{"version"}))
			},
			wantErr: store.ErrMemoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.expect(mock)
			s := NewPostgresMemoStore(db, nil)

			version, err := s.UpdateReviewState(context.Background(), id, reviewedState(), 3)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, version)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateReviewStateRejectsInvalidState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	state := reviewedState()
	state.EaseFactor = 1.0

	_, err = NewPostgresMemoStore(db, nil).UpdateReviewState(context.Background(), uuid.New(), state, 1)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement may reach the database")
}

func TestCreateMultipleRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	user := uuid.New()
	now := time.Now().UTC()
	first, err := domain.NewMemo(user, domain.MemoContent{OriginalText: "uno"}, now)
	require.NoError(t, err)
	second, err := domain.NewMemo(user, domain.MemoContent{OriginalText: "dos"}, now)
	require.NoError(t, err)
	second.Review.Interval = -1

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO memos").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err = NewPostgresMemoStore(db, nil).CreateMultiple(context.Background(), []*domain.Memo{first, second})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateContent(t *testing.T) {
	user := uuid.New()
	memo, err := domain.NewMemo(user, domain.MemoContent{OriginalText: "uno", TranslatedText: "one"}, time.Now())
	require.NoError(t, err)

	t.Run("writes text fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("UPDATE memos").
			WithArgs("uno", "one", "", "", "", sqlmock.AnyArg(), sqlmock.AnyArg(), memo.Version).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(memo.Version + 1))

		version, err := NewPostgresMemoStore(db, nil).UpdateContent(context.Background(), memo)
		require.NoError(t, err)
		assert.Equal(t, memo.Version+1, version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("UPDATE memos").WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectQuery("SELECT version FROM memos").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(memo.Version + 2))

		_, err = NewPostgresMemoStore(db, nil).UpdateContent(context.Background(), memo)
		assert.ErrorIs(t, err, store.ErrVersionConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blank original never reaches the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		blank := *memo
		blank.OriginalText = " "
		_, err = NewPostgresMemoStore(db, nil).UpdateContent(context.Background(), &blank)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStoreErrorsCarryOperation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := NewPostgresMemoStore(db, nil)
	ctx := context.Background()
	reset := errors.New("connection reset by peer")

	mock.ExpectQuery("SELECT").WillReturnError(reset)
	_, err = s.GetByID(ctx, uuid.New())

	var storeErr *store.StoreError
	require.True(t, errors.As(err, &storeErr), "got %v", err)
	assert.Equal(t, "memo", storeErr.Entity)
	assert.Equal(t, "get", storeErr.Operation)
	assert.ErrorIs(t, err, reset)

	mock.ExpectQuery("SELECT").WillReturnError(&pgconn.PgError{Code: checkViolationCode, ConstraintName: "memos_ease_factor_check"})
	_, err = s.ListByUser(ctx, uuid.New(), 10, 0)
	require.True(t, errors.As(err, &storeErr), "got %v", err)
	assert.Equal(t, "list_by_user", storeErr.Operation)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	mock.ExpectExec("DELETE FROM memos").WillReturnError(reset)
	err = s.Delete(ctx, uuid.New())
	require.True(t, errors.As(err, &storeErr), "got %v", err)
	assert.Equal(t, "delete", storeErr.Operation)

	assert.NoError(t, mock.ExpectationsWereMet())
}
