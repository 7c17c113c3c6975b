package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
)

// MemoStore defines the interface for memo data persistence.
//
// Implementations own the durable copy of each memo's ReviewState. They never
// compute scheduling values themselves; they filter, order and persist what
// the SRS calculator produced.
type MemoStore interface {
	// Create saves a new memo to the store.
	// It handles domain validation internally.
	// Returns ErrInvalidEntity wrapping the domain error if data is invalid.
	Create(ctx context.Context, memo *domain.Memo) error

	// CreateMultiple saves several memos atomically: either all of them are
	// stored or none are.
	CreateMultiple(ctx context.Context, memos []*domain.Memo) error

	// GetByID retrieves a memo by its unique ID.
	// Returns ErrMemoNotFound if the memo does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Memo, error)

	// Delete removes a memo.
	// Returns ErrMemoNotFound if the memo does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateContent writes the user-editable text fields and update time of
	// memo if and only if its stored version equals memo.Version, then
	// increments the version. Scheduling fields are left untouched.
	// It returns the new version.
	// Returns ErrMemoNotFound if the memo does not exist and
	// ErrVersionConflict if another write got there first.
	UpdateContent(ctx context.Context, memo *domain.Memo) (int64, error)

	// ListByUser returns a page of the user's memos, newest first (ties by ID
	// descending), skipping offset memos and capped at limit.
	// Returns an empty slice past the end of the collection.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Memo, error)

	// FindDue returns the user's memos whose status is not new and whose next
	// review date is at or before now, ordered by next review date ascending
	// (ties by creation time then ID) and capped at limit.
	// Returns an empty slice if nothing is due.
	FindDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.Memo, error)

	// FindNew returns the user's memos with status new, oldest first, capped at limit.
	// Returns an empty slice if there are none.
	FindNew(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Memo, error)

	// SampleReviewed returns up to window memos with a status other than new,
	// chosen uniformly at random by the store. The order of the result carries
	// no meaning.
	SampleReviewed(ctx context.Context, userID uuid.UUID, window int) ([]*domain.Memo, error)

	// UpdateReviewState writes the scheduling fields of a single memo if and
	// only if its stored version equals expectedVersion, then increments the
	// version. It returns the new version.
	// Returns ErrMemoNotFound if the memo does not exist and
	// ErrVersionConflict if another write got there first.
	UpdateReviewState(
		ctx context.Context,
		id uuid.UUID,
		state domain.ReviewState,
		expectedVersion int64,
	) (int64, error)

	// CountDueByUser returns, for every user with at least one due memo, the
	// number of memos due at now.
	CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error)
}
