package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrMemoNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrVersionConflict is returned by conditional writes when the stored
	// version no longer matches the version the caller read.
	ErrVersionConflict = errors.New("version conflict")

	// ErrMemoNotFound indicates that the requested memo does not exist in the store.
	ErrMemoNotFound = fmt.Errorf("%w: memo", ErrNotFound)

	// ErrMemoExists indicates that a memo with the same ID is already stored.
	ErrMemoExists = fmt.Errorf("%w: memo", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsConflictError checks if the error is an optimistic concurrency conflict.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// StoreError records which entity and operation an unexpected backend failure
// came from. SQL backends return it for driver errors; sentinel outcomes such
// as ErrMemoNotFound are returned bare.
type StoreError struct {
	Entity    string // The entity type (e.g., "memo")
	Operation string // The operation that failed (e.g., "create", "list_by_user")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
