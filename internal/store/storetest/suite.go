// Package storetest holds the behavioural contract every store.MemoStore
// implementation must satisfy. Backend packages call RunMemoStoreTests from
// their own tests with a factory that yields an empty store.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty MemoStore. Cleanup should be registered on t.
type Factory func(t *testing.T) store.MemoStore

// Base is the reference instant used by fixtures. It has millisecond
// precision so every backend can round-trip it exactly.
var Base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// NewMemo builds a valid memo for userID created at Base+created. A zero
// status yields a new memo; otherwise the memo is reviewed and scheduled at
// Base+next.
func NewMemo(t *testing.T, userID uuid.UUID, created time.Duration, status domain.ReviewStatus, next time.Duration) *domain.Memo {
	t.Helper()
	m, err := domain.NewMemo(userID, domain.MemoContent{
		OriginalText:   "original " + uuid.NewString()[:8],
		TranslatedText: "translation",
		EvaluationText: "reference",
		Language:       "ja",
	}, Base.Add(created))
	require.NoError(t, err)

	if status != "" && status != domain.StatusNew {
		m.Review = domain.ReviewState{
			Status:         status,
			Interval:       3,
			EaseFactor:     2.36,
			ReviewCount:    2,
			NextReviewDate: Base.Add(next),
			LastReviewDate: Base.Add(next - 72*time.Hour),
		}
	}
	return m
}

func ids(memos []*domain.Memo) []uuid.UUID {
	out := make([]uuid.UUID, len(memos))
	for i, m := range memos {
		out[i] = m.ID
	}
	return out
}

// AssertMemoEqual compares memos field by field using time.Equal for instants.
func AssertMemoEqual(t *testing.T, want, got *domain.Memo) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.OriginalText, got.OriginalText)
	assert.Equal(t, want.TranslatedText, got.TranslatedText)
	assert.Equal(t, want.Note, got.Note)
	assert.Equal(t, want.EvaluationText, got.EvaluationText)
	assert.Equal(t, want.Language, got.Language)
	assert.Equal(t, want.Version, got.Version)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
	AssertStateEqual(t, want.Review, got.Review)
}

// AssertStateEqual compares two review states.
func AssertStateEqual(t *testing.T, want, got domain.ReviewState) {
	t.Helper()
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Interval, got.Interval)
	assert.InDelta(t, want.EaseFactor, got.EaseFactor, 1e-9)
	assert.Equal(t, want.ReviewCount, got.ReviewCount)
	assert.True(t, want.NextReviewDate.Equal(got.NextReviewDate),
		"next_review_date %v != %v", want.NextReviewDate, got.NextReviewDate)
	assert.True(t, want.LastReviewDate.Equal(got.LastReviewDate),
		"last_review_date %v != %v", want.LastReviewDate, got.LastReviewDate)
}

// RunMemoStoreTests exercises the full MemoStore contract.
func RunMemoStoreTests(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m := NewMemo(t, uuid.New(), 0, "", 0)
		m.Note = "polite form"

		require.NoError(t, s.Create(ctx, m))

		got, err := s.GetByID(ctx, m.ID)
		require.NoError(t, err)
		AssertMemoEqual(t, m, got)
		assert.True(t, got.Review.LastReviewDate.IsZero())
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrMemoNotFound)
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m := NewMemo(t, uuid.New(), 0, "", 0)
		require.NoError(t, s.Create(ctx, m))

		err := s.Create(ctx, m)
		assert.True(t, store.IsDuplicateError(err), "got %v", err)
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		s := newStore(t)
		m := NewMemo(t, uuid.New(), 0, "", 0)
		m.OriginalText = ""

		err := s.Create(context.Background(), m)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrEmptyOriginalText)
	})

	t.Run("CreateMultipleIsAtomic", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := uuid.New()

		good := NewMemo(t, user, 0, "", 0)
		bad := NewMemo(t, user, time.Minute, "", 0)
		bad.Review.EaseFactor = 0.5

		err := s.CreateMultiple(ctx, []*domain.Memo{good, bad})
		require.Error(t, err)

		_, err = s.GetByID(ctx, good.ID)
		assert.ErrorIs(t, err, store.ErrMemoNotFound, "no memo from a failed batch may be stored")

		other := NewMemo(t, user, 2*time.Minute, "", 0)
		require.NoError(t, s.CreateMultiple(ctx, []*domain.Memo{good, other}))
		fresh, err := s.FindNew(ctx, user, 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{good.ID, other.ID}, ids(fresh))
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m := NewMemo(t, uuid.New(), 0, "", 0)
		require.NoError(t, s.Create(ctx, m))

		require.NoError(t, s.Delete(ctx, m.ID))
		_, err := s.GetByID(ctx, m.ID)
		assert.ErrorIs(t, err, store.ErrMemoNotFound)

		assert.ErrorIs(t, s.Delete(ctx, m.ID), store.ErrMemoNotFound)
	})

	t.Run("UpdateContent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m := NewMemo(t, uuid.New(), 0, domain.StatusReview, 24*time.Hour)
		require.NoError(t, s.Create(ctx, m))

		edited := *m
		original := "edited original"
		note := "new note"
		require.NoError(t, edited.ApplyPatch(domain.MemoPatch{OriginalText: &original, Note: &note}, Base.Add(time.Hour)))

		version, err := s.UpdateContent(ctx, &edited)
		require.NoError(t, err)
		assert.Equal(t, m.Version+1, version)

		got, err := s.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited original", got.OriginalText)
		assert.Equal(t, "new note", got.Note)
		assert.Equal(t, m.TranslatedText, got.TranslatedText)
		assert.Equal(t, version, got.Version)
		AssertStateEqual(t, m.Review, got.Review)

		_, err = s.UpdateContent(ctx, &edited)
		assert.ErrorIs(t, err, store.ErrVersionConflict, "stale version must be rejected")

		missing := NewMemo(t, uuid.New(), 0, "", 0)
		_, err = s.UpdateContent(ctx, missing)
		assert.ErrorIs(t, err, store.ErrMemoNotFound)

		got.OriginalText = "  "
		_, err = s.UpdateContent(ctx, got)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("ListByUser", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := uuid.New()

		a := NewMemo(t, user, -3*time.Hour, "", 0)
		b := NewMemo(t, user, -1*time.Hour, domain.StatusReview, time.Hour)
		c := NewMemo(t, user, -2*time.Hour, "", 0)
		other := NewMemo(t, uuid.New(), 0, "", 0)
		require.NoError(t, s.CreateMultiple(ctx, []*domain.Memo{a, b, c, other}))

		all, err := s.ListByUser(ctx, user, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID, c.ID, a.ID}, ids(all))

		page, err := s.ListByUser(ctx, user, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{c.ID}, ids(page))

		past, err := s.ListByUser(ctx, user, 10, 3)
		require.NoError(t, err)
		assert.NotNil(t, past)
		assert.Empty(t, past)
	})

	t.Run("FindDue", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user, other := uuid.New(), uuid.New()

		overdue := NewMemo(t, user, -10*time.Hour, domain.StatusReview, -5*time.Hour)
		exactlyNow := NewMemo(t, user, -9*time.Hour, domain.StatusReview, 0)
		mostOverdue := NewMemo(t, user, -8*time.Hour, domain.StatusReview, -48*time.Hour)
		future := NewMemo(t, user, -7*time.Hour, domain.StatusReview, time.Millisecond)
		fresh := NewMemo(t, user, -96*time.Hour, "", 0)
		foreign := NewMemo(t, other, -6*time.Hour, domain.StatusReview, -100*time.Hour)

		require.NoError(t, s.CreateMultiple(ctx, []*domain.Memo{overdue, exactlyNow, mostOverdue, future, fresh, foreign}))

		due, err := s.FindDue(ctx, user, Base, 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{mostOverdue.ID, overdue.ID, exactlyNow.ID}, ids(due))

		due, err = s.FindDue(ctx, user, Base, 2)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{mostOverdue.ID, overdue.ID}, ids(due))

		due, err = s.FindDue(ctx, uuid.New(), Base, 10)
		require.NoError(t, err)
		assert.NotNil(t, due)
		assert.Empty(t, due)
	})

	t.Run("FindNew", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := uuid.New()

		b := NewMemo(t, user, -1*time.Hour, "", 0)
		a := NewMemo(t, user, -3*time.Hour, "", 0)
		c := NewMemo(t, user, -2*time.Hour, "", 0)
		reviewed := NewMemo(t, user, -4*time.Hour, domain.StatusReview, -time.Hour)
		require.NoError(t, s.CreateMultiple(ctx, []*domain.Memo{b, a, c, reviewed}))

		fresh, err := s.FindNew(ctx, user, 2)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, c.ID}, ids(fresh))
	})

	t.Run("SampleReviewed", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := uuid.New()

		reviewed := map[uuid.UUID]bool{}
		var batch []*domain.Memo
		for i := 0; i < 12; i++ {
			m := NewMemo(t, user, time.Duration(i)*time.Minute, domain.StatusReview, 24*time.Hour)
			reviewed[m.ID] = true
			batch = append(batch, m)
		}
		batch = append(batch,
			NewMemo(t, user, time.Hour, "", 0),
			NewMemo(t, uuid.New(), time.Hour, domain.StatusReview, 0),
		)
		require.NoError(t, s.CreateMultiple(ctx, batch))

		sample, err := s.SampleReviewed(ctx, user, 5)
		require.NoError(t, err)
		require.Len(t, sample, 5)

		seen := map[uuid.UUID]bool{}
		for _, m := range sample {
			assert.True(t, reviewed[m.ID], "sample contains a memo outside the reviewed pool")
			assert.False(t, seen[m.ID], "sample repeats a memo")
			seen[m.ID] = true
		}

		all, err := s.SampleReviewed(ctx, user, 50)
		require.NoError(t, err)
		assert.Len(t, all, 12)
	})

	t.Run("UpdateReviewState", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m := NewMemo(t, uuid.New(), 0, "", 0)
		require.NoError(t, s.Create(ctx, m))

		next := domain.ReviewState{
			Status:         domain.StatusReview,
			Interval:       1,
			EaseFactor:     2.6,
			ReviewCount:    1,
			NextReviewDate: Base.Add(24 * time.Hour),
			LastReviewDate: Base,
		}

		version, err := s.UpdateReviewState(ctx, m.ID, next, m.Version)
		require.NoError(t, err)
		assert.Equal(t, m.Version+1, version)

		got, err := s.GetByID(ctx, m.ID)
		require.NoError(t, err)
		AssertStateEqual(t, next, got.Review)
		assert.Equal(t, version, got.Version)

		_, err = s.UpdateReviewState(ctx, m.ID, next, m.Version)
		assert.ErrorIs(t, err, store.ErrVersionConflict, "stale version must be rejected")

		_, err = s.UpdateReviewState(ctx, uuid.New(), next, 1)
		assert.ErrorIs(t, err, store.ErrMemoNotFound)
	})

	t.Run("ConcurrentUpdatesOnlyOneWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		m := NewMemo(t, uuid.New(), 0, "", 0)
		require.NoError(t, s.Create(ctx, m))

		state := domain.ReviewState{
			Status:         domain.StatusReview,
			Interval:       1,
			EaseFactor:     2.5,
			ReviewCount:    1,
			NextReviewDate: Base.Add(24 * time.Hour),
			LastReviewDate: Base,
		}

		const writers = 8
		var wg sync.WaitGroup
		results := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.UpdateReviewState(ctx, m.ID, state, m.Version)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		wins, conflicts := 0, 0
		for err := range results {
			switch {
			case err == nil:
				wins++
			case store.IsConflictError(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, writers-1, conflicts)
	})

	t.Run("CountDueByUser", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		alice, bob := uuid.New(), uuid.New()

		require.NoError(t, s.CreateMultiple(ctx, []*domain.Memo{
			NewMemo(t, alice, 0, domain.StatusReview, -time.Hour),
			NewMemo(t, alice, time.Minute, domain.StatusReview, -2*time.Hour),
			NewMemo(t, alice, 2*time.Minute, domain.StatusReview, time.Hour),
			NewMemo(t, bob, 0, domain.StatusReview, 0),
			NewMemo(t, bob, time.Minute, "", 0),
		}))

		counts, err := s.CountDueByUser(ctx, Base)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int{alice: 2, bob: 1}, counts)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.FindDue(ctx, uuid.New(), Base, 10)
		assert.Error(t, err)
	})
}
