package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the services in this package. The API layer
// maps them to status codes.
var (
	// ErrNotOwned is returned when the caller does not own the memo.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrMemoNotFound is returned when the memo does not exist.
	ErrMemoNotFound = errors.New("memo not found")
)

// ServiceError records which service operation failed and why.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op string, err error) error {
	return &ServiceError{
		Service: service,
		Op:      op,
		Err:     err,
	}
}
