// Package memory provides an in-process MemoStore. It backs local runs without
// a database and the service-level tests, and applies the same selection
// rules the SQL stores express in their queries.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/domain/selection"
	"github.com/shabelingo/shabelingo-api/internal/store"
)

// MemoStore implements store.MemoStore in memory.
type MemoStore struct {
	mu      sync.RWMutex
	memos   map[uuid.UUID]domain.Memo
	shuffle selection.ShuffleFunc
	logger  *slog.Logger
}

// Option configures a MemoStore.
type Option func(*MemoStore)

// WithShuffle replaces the random permutation used by SampleReviewed.
func WithShuffle(fn selection.ShuffleFunc) Option {
	return func(s *MemoStore) { s.shuffle = fn }
}

// NewMemoStore creates an empty store.
// If logger is nil, slog.Default() is used.
func NewMemoStore(logger *slog.Logger, opts ...Option) *MemoStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &MemoStore{
		memos:   make(map[uuid.UUID]domain.Memo),
		shuffle: rand.Shuffle,
		logger:  logger.With(slog.String("component", "memo_store_memory")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.MemoStore = (*MemoStore)(nil)

// Create implements store.MemoStore.
func (s *MemoStore) Create(ctx context.Context, memo *domain.Memo) error {
	return s.CreateMultiple(ctx, []*domain.Memo{memo})
}

// CreateMultiple implements store.MemoStore. Validation runs over the whole
// batch before anything is written.
func (s *MemoStore) CreateMultiple(ctx context.Context, memos []*domain.Memo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[uuid.UUID]struct{}, len(memos))
	for _, m := range memos {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
		if _, ok := s.memos[m.ID]; ok {
			return store.ErrMemoExists
		}
		if _, ok := batch[m.ID]; ok {
			return store.ErrMemoExists
		}
		batch[m.ID] = struct{}{}
	}

	for _, m := range memos {
		s.memos[m.ID] = *m
	}

	s.logger.Debug("memos created", slog.Int("count", len(memos)))
	return nil
}

// GetByID implements store.MemoStore.
func (s *MemoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Memo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memos[id]
	if !ok {
		return nil, store.ErrMemoNotFound
	}
	return &m, nil
}

// Delete implements store.MemoStore.
func (s *MemoStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memos[id]; !ok {
		return store.ErrMemoNotFound
	}
	delete(s.memos, id)
	return nil
}

// UpdateContent implements store.MemoStore.
func (s *MemoStore) UpdateContent(ctx context.Context, memo *domain.Memo) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := memo.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memos[memo.ID]
	if !ok {
		return 0, store.ErrMemoNotFound
	}
	if m.Version != memo.Version {
		return 0, store.ErrVersionConflict
	}

	m.OriginalText = memo.OriginalText
	m.TranslatedText = memo.TranslatedText
	m.Note = memo.Note
	m.EvaluationText = memo.EvaluationText
	m.Language = memo.Language
	m.UpdatedAt = memo.UpdatedAt.UTC()
	m.Version++
	s.memos[m.ID] = m

	return m.Version, nil
}

// ListByUser implements store.MemoStore.
func (s *MemoStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Memo, error) {
	owned, err := s.ownedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pointers(selection.Newest(owned, limit, offset)), nil
}

// FindDue implements store.MemoStore.
func (s *MemoStore) FindDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.Memo, error) {
	owned, err := s.ownedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pointers(selection.Due(owned, now, limit)), nil
}

// FindNew implements store.MemoStore.
func (s *MemoStore) FindNew(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Memo, error) {
	owned, err := s.ownedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pointers(selection.New(owned, limit)), nil
}

// SampleReviewed implements store.MemoStore. Every reviewed memo of the user
// is a candidate, so the sample is uniform regardless of collection size.
func (s *MemoStore) SampleReviewed(ctx context.Context, userID uuid.UUID, window int) ([]*domain.Memo, error) {
	owned, err := s.ownedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pointers(selection.Sample(owned, window, s.shuffle)), nil
}

// UpdateReviewState implements store.MemoStore.
func (s *MemoStore) UpdateReviewState(
	ctx context.Context,
	id uuid.UUID,
	state domain.ReviewState,
	expectedVersion int64,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := state.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memos[id]
	if !ok {
		return 0, store.ErrMemoNotFound
	}
	if m.Version != expectedVersion {
		return 0, store.ErrVersionConflict
	}

	m.Review = state
	m.Version++
	m.UpdatedAt = time.Now().UTC()
	s.memos[id] = m

	return m.Version, nil
}

// CountDueByUser implements store.MemoStore.
func (s *MemoStore) CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[uuid.UUID]int)
	for _, m := range s.memos {
		if m.Review.IsDue(now) {
			counts[m.UserID]++
		}
	}
	return counts, nil
}

func (s *MemoStore) ownedBy(ctx context.Context, userID uuid.UUID) ([]domain.Memo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []domain.Memo
	for _, m := range s.memos {
		if m.UserID == userID {
			owned = append(owned, m)
		}
	}
	return owned, nil
}

func pointers(memos []domain.Memo) []*domain.Memo {
	out := make([]*domain.Memo, len(memos))
	for i := range memos {
		out[i] = &memos[i]
	}
	return out
}
