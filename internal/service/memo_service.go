package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/platform/logger"
	"github.com/shabelingo/shabelingo-api/internal/store"
)

// MemoService provides memo-related operations
type MemoService interface {
	// CreateMemo creates a memo for userID with creation defaults applied.
	// Returns an error wrapping domain validation errors if content is invalid.
	CreateMemo(ctx context.Context, userID uuid.UUID, content domain.MemoContent) (*domain.Memo, error)

	// GetMemo retrieves a memo owned by userID.
	// Returns ErrMemoNotFound or ErrNotOwned.
	GetMemo(ctx context.Context, userID, memoID uuid.UUID) (*domain.Memo, error)

	// UpdateMemo applies patch to the content of a memo owned by userID and
	// leaves its review state alone.
	// Returns ErrMemoNotFound or ErrNotOwned, or an error wrapping a domain
	// validation error or store.ErrVersionConflict.
	UpdateMemo(ctx context.Context, userID, memoID uuid.UUID, patch domain.MemoPatch) (*domain.Memo, error)

	// DeleteMemo removes a memo owned by userID.
	// Returns ErrMemoNotFound or ErrNotOwned.
	DeleteMemo(ctx context.Context, userID, memoID uuid.UUID) error

	// ListMemos returns a page of the memos owned by userID, newest first.
	// A non-positive limit means DefaultListLimit; larger limits are capped at
	// MaxListLimit.
	ListMemos(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Memo, error)
}

// Page sizes for ListMemos.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// memoServiceImpl implements the MemoService interface
type memoServiceImpl struct {
	memoStore store.MemoStore
	now       func() time.Time
	logger    *slog.Logger
}

var _ MemoService = (*memoServiceImpl)(nil)

// NewMemoService creates a new MemoService
// It returns an error if the memo store is nil.
func NewMemoService(memoStore store.MemoStore, logger *slog.Logger) (MemoService, error) {
	if memoStore == nil {
		return nil, NewServiceError("memo", "create_service", errors.New("memoStore cannot be nil"))
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &memoServiceImpl{
		memoStore: memoStore,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "memo_service")),
	}, nil
}

// CreateMemo implements MemoService.
func (s *memoServiceImpl) CreateMemo(
	ctx context.Context,
	userID uuid.UUID,
	content domain.MemoContent,
) (*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	memo, err := domain.NewMemo(userID, content, s.now())
	if err != nil {
		log.Warn("invalid memo content",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("memo", "create", err)
	}

	if err := s.memoStore.Create(ctx, memo); err != nil {
		log.Error("failed to save memo",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("memo_id", memo.ID.String()))
		return nil, NewServiceError("memo", "create", err)
	}

	log.Info("memo created",
		slog.String("user_id", userID.String()),
		slog.String("memo_id", memo.ID.String()))
	return memo, nil
}

// GetMemo implements MemoService.
func (s *memoServiceImpl) GetMemo(ctx context.Context, userID, memoID uuid.UUID) (*domain.Memo, error) {
	return s.owned(ctx, "get", userID, memoID)
}

// UpdateMemo implements MemoService.
func (s *memoServiceImpl) UpdateMemo(
	ctx context.Context,
	userID, memoID uuid.UUID,
	patch domain.MemoPatch,
) (*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	memo, err := s.owned(ctx, "update", userID, memoID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return memo, nil
	}

	if err := memo.ApplyPatch(patch, s.now()); err != nil {
		log.Warn("invalid memo update",
			slog.String("error", err.Error()),
			slog.String("memo_id", memoID.String()))
		return nil, NewServiceError("memo", "update", err)
	}

	version, err := s.memoStore.UpdateContent(ctx, memo)
	if err != nil {
		if errors.Is(err, store.ErrMemoNotFound) {
			return nil, ErrMemoNotFound
		}
		log.Error("failed to update memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", memoID.String()))
		return nil, NewServiceError("memo", "update", err)
	}
	memo.Version = version

	log.Info("memo updated",
		slog.String("user_id", userID.String()),
		slog.String("memo_id", memoID.String()),
		slog.Int64("version", version))
	return memo, nil
}

// ListMemos implements MemoService.
func (s *memoServiceImpl) ListMemos(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Memo, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	offset = max(offset, 0)

	memos, err := s.memoStore.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list memos",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("memo", "list", err)
	}
	return memos, nil
}

// DeleteMemo implements MemoService.
func (s *memoServiceImpl) DeleteMemo(ctx context.Context, userID, memoID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.owned(ctx, "delete", userID, memoID); err != nil {
		return err
	}

	if err := s.memoStore.Delete(ctx, memoID); err != nil {
		if store.IsNotFoundError(err) {
			return ErrMemoNotFound
		}
		log.Error("failed to delete memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", memoID.String()))
		return NewServiceError("memo", "delete", err)
	}

	log.Info("memo deleted",
		slog.String("user_id", userID.String()),
		slog.String("memo_id", memoID.String()))
	return nil
}

// owned loads a memo and checks that userID owns it.
func (s *memoServiceImpl) owned(ctx context.Context, op string, userID, memoID uuid.UUID) (*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	memo, err := s.memoStore.GetByID(ctx, memoID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrMemoNotFound
		}
		log.Error("failed to load memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", memoID.String()))
		return nil, NewServiceError("memo", op, err)
	}

	if memo.UserID != userID {
		log.Warn("user does not own memo",
			slog.String("user_id", userID.String()),
			slog.String("memo_id", memoID.String()),
			slog.String("owner_id", memo.UserID.String()))
		return nil, ErrNotOwned
	}
	return memo, nil
}
