package memo_review_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/domain/srs"
	"github.com/shabelingo/shabelingo-api/internal/platform/memory"
	"github.com/shabelingo/shabelingo-api/internal/service/memo_review"
	"github.com/shabelingo/shabelingo-api/internal/store"
	"github.com/shabelingo/shabelingo-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = storetest.Base

func fixedClock() time.Time { return now }

func newService(t *testing.T, s store.MemoStore, limits memo_review.Limits) memo_review.Service {
	t.Helper()
	return memo_review.NewService(s, srs.NewDefaultService(), limits, nil,
		memo_review.WithClock(fixedClock),
		memo_review.WithShuffle(func(int, func(i, j int)) {}))
}

func seed(t *testing.T, s store.MemoStore, memos ...*domain.Memo) {
	t.Helper()
	require.NoError(t, s.CreateMultiple(context.Background(), memos))
}

func ids(memos []domain.Memo) []uuid.UUID {
	out := make([]uuid.UUID, len(memos))
	for i, m := range memos {
		out[i] = m.ID
	}
	return out
}

func TestNewServicePanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() {
		memo_review.NewService(nil, srs.NewDefaultService(), memo_review.DefaultLimits(), nil)
	})
	assert.Panics(t, func() {
		memo_review.NewService(memory.NewMemoStore(nil), nil, memo_review.DefaultLimits(), nil)
	})
}

func TestDailySession(t *testing.T) {
	user := uuid.New()
	memos := memory.NewMemoStore(nil)

	overdue := storetest.NewMemo(t, user, -10*time.Hour, domain.StatusReview, -5*time.Hour)
	mostOverdue := storetest.NewMemo(t, user, -9*time.Hour, domain.StatusReview, -48*time.Hour)
	notYet := storetest.NewMemo(t, user, -8*time.Hour, domain.StatusReview, time.Hour)
	older := storetest.NewMemo(t, user, -3*time.Hour, "", 0)
	newer := storetest.NewMemo(t, user, -2*time.Hour, "", 0)
	newer.EvaluationText = ""
	foreign := storetest.NewMemo(t, uuid.New(), -1*time.Hour, domain.StatusReview, -time.Hour)
	seed(t, memos, overdue, mostOverdue, notYet, older, newer, foreign)

	limits := memo_review.DefaultLimits()
	limits.MaxLimit = 3
	svc := newService(t, memos, limits)
	ctx := context.Background()

	tests := []struct {
		name string
		req  memo_review.DailyRequest
		want []uuid.UUID
	}{
		{
			name: "due first then new",
			req:  memo_review.DailyRequest{DueLimit: 10, NewLimit: 10},
			want: []uuid.UUID{mostOverdue.ID, overdue.ID, older.ID, newer.ID},
		},
		{
			name: "caps apply per list",
			req:  memo_review.DailyRequest{DueLimit: 1, NewLimit: 1},
			want: []uuid.UUID{mostOverdue.ID, older.ID},
		},
		{
			name: "zero due cap skips due memos",
			req:  memo_review.DailyRequest{DueLimit: 0, NewLimit: 5},
			want: []uuid.UUID{older.ID, newer.ID},
		},
		{
			name: "both caps zero",
			req:  memo_review.DailyRequest{},
			want: []uuid.UUID{},
		},
		{
			name: "pronunciation drops memos without evaluation text",
			req:  memo_review.DailyRequest{DueLimit: 10, NewLimit: 10, Mode: memo_review.ModePronunciation},
			want: []uuid.UUID{mostOverdue.ID, overdue.ID, older.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.DailySession(ctx, user, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(session.Memos))
			assert.True(t, session.GeneratedAt.Equal(now))
		})
	}

	t.Run("empty mode defaults to text", func(t *testing.T) {
		session, err := svc.DailySession(ctx, user, memo_review.DailyRequest{DueLimit: 1})
		require.NoError(t, err)
		assert.Equal(t, memo_review.ModeText, session.Mode)
	})

	t.Run("caps above the maximum are clamped", func(t *testing.T) {
		crowded := memory.NewMemoStore(nil)
		for i := 0; i < 5; i++ {
			seed(t, crowded, storetest.NewMemo(t, user, time.Duration(i)*time.Minute, "", 0))
		}
		session, err := newService(t, crowded, limits).DailySession(ctx, user, memo_review.DailyRequest{NewLimit: 50})
		require.NoError(t, err)
		assert.Len(t, session.Memos, 3)
	})

	t.Run("negative cap is rejected", func(t *testing.T) {
		session, err := svc.DailySession(ctx, user, memo_review.DailyRequest{DueLimit: -1})
		assert.ErrorIs(t, err, memo_review.ErrInvalidArgument)
		assert.Empty(t, session.Memos)
	})

	t.Run("unknown mode is rejected", func(t *testing.T) {
		_, err := svc.DailySession(ctx, user, memo_review.DailyRequest{Mode: "audio"})
		assert.ErrorIs(t, err, memo_review.ErrInvalidArgument)
	})
}

// failingStore fails one query and answers the rest from memory.
type failingStore struct {
	*memory.MemoStore
	err error
}

func (s *failingStore) FindNew(context.Context, uuid.UUID, int) ([]*domain.Memo, error) {
	return nil, s.err
}

func (s *failingStore) SampleReviewed(context.Context, uuid.UUID, int) ([]*domain.Memo, error) {
	return nil, s.err
}

// blockingStore never answers FindDue before its context ends.
type blockingStore struct {
	*memory.MemoStore
}

func (s *blockingStore) FindDue(ctx context.Context, _ uuid.UUID, _ time.Time, _ int) ([]*domain.Memo, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDailySessionNeverReturnsPartialResults(t *testing.T) {
	user := uuid.New()
	backing := memory.NewMemoStore(nil)
	seed(t, backing, storetest.NewMemo(t, user, 0, domain.StatusReview, -time.Hour))

	cause := errors.New("connection reset")
	svc := newService(t, &failingStore{MemoStore: backing, err: cause}, memo_review.DefaultLimits())

	session, err := svc.DailySession(context.Background(), user, memo_review.DailyRequest{DueLimit: 5, NewLimit: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, memo_review.ErrRetrievalFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotNil(t, session.Memos)
	assert.Empty(t, session.Memos)

	var serviceErr *memo_review.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "daily_session", serviceErr.Operation)
}

func TestDailySessionTimeout(t *testing.T) {
	limits := memo_review.DefaultLimits()
	limits.QueryTimeout = 20 * time.Millisecond
	svc := newService(t, &blockingStore{MemoStore: memory.NewMemoStore(nil)}, limits)

	session, err := svc.DailySession(context.Background(), uuid.New(), memo_review.DailyRequest{DueLimit: 5, NewLimit: 5})
	assert.ErrorIs(t, err, memo_review.ErrRetrievalFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, session.Memos)
}

func TestDailySessionCanceledContext(t *testing.T) {
	svc := newService(t, memory.NewMemoStore(nil), memo_review.DefaultLimits())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DailySession(ctx, uuid.New(), memo_review.DailyRequest{DueLimit: 5, NewLimit: 5})
	assert.ErrorIs(t, err, memo_review.ErrRetrievalFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRandomSession(t *testing.T) {
	user := uuid.New()
	memos := memory.NewMemoStore(nil)

	reviewed := map[uuid.UUID]bool{}
	for i := 0; i < 12; i++ {
		m := storetest.NewMemo(t, user, time.Duration(i)*time.Minute, domain.StatusReview, 72*time.Hour)
		if i%2 == 0 {
			m.EvaluationText = ""
		}
		reviewed[m.ID] = true
		seed(t, memos, m)
	}
	seed(t, memos, storetest.NewMemo(t, user, time.Hour, "", 0))

	svc := newService(t, memos, memo_review.DefaultLimits())
	ctx := context.Background()

	t.Run("samples without replacement", func(t *testing.T) {
		session, err := svc.RandomSession(ctx, user, memo_review.RandomRequest{Limit: 5})
		require.NoError(t, err)
		require.Len(t, session.Memos, 5)

		seen := map[uuid.UUID]bool{}
		for _, m := range session.Memos {
			assert.True(t, reviewed[m.ID], "random session may only contain reviewed memos")
			assert.False(t, seen[m.ID])
			seen[m.ID] = true
		}
	})

	t.Run("limit larger than pool", func(t *testing.T) {
		session, err := svc.RandomSession(ctx, user, memo_review.RandomRequest{Limit: 40})
		require.NoError(t, err)
		assert.Len(t, session.Memos, 12)
	})

	t.Run("pronunciation keeps evaluable memos", func(t *testing.T) {
		session, err := svc.RandomSession(ctx, user, memo_review.RandomRequest{Limit: 40, Mode: memo_review.ModePronunciation})
		require.NoError(t, err)
		assert.Len(t, session.Memos, 6)
		for _, m := range session.Memos {
			assert.True(t, m.Evaluable())
		}
	})

	t.Run("zero limit", func(t *testing.T) {
		session, err := svc.RandomSession(ctx, user, memo_review.RandomRequest{})
		require.NoError(t, err)
		assert.Empty(t, session.Memos)
	})

	t.Run("store failure", func(t *testing.T) {
		broken := newService(t, &failingStore{MemoStore: memos, err: errors.New("boom")}, memo_review.DefaultLimits())
		session, err := broken.RandomSession(ctx, user, memo_review.RandomRequest{Limit: 5})
		assert.ErrorIs(t, err, memo_review.ErrRetrievalFailed)
		assert.Empty(t, session.Memos)
	})
}
