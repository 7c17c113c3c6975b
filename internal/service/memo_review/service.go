// Package memo_review selects review sessions for a user and records graded
// attempts against the SM-2 scheduler.
package memo_review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/domain/srs"
)

// Mode controls which memos a session may contain.
type Mode string

const (
	// ModeText is plain recall: every selected memo is kept.
	ModeText Mode = "text"
	// ModePronunciation keeps only memos that carry evaluation text.
	ModePronunciation Mode = "pronunciation"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeText || m == ModePronunciation
}

// Limits holds the default and maximum session sizes and the per-query timeout.
type Limits struct {
	DueLimit     int
	NewLimit     int
	RandomLimit  int
	RandomWindow int
	MaxLimit     int
	QueryTimeout time.Duration
}

// DailyRequest asks for the due memos followed by not-yet-studied ones.
type DailyRequest struct {
	DueLimit int
	NewLimit int
	Mode     Mode
}

// RandomRequest asks for a random selection of previously reviewed memos.
type RandomRequest struct {
	Limit int
	Mode  Mode
}

// Session is an ordered list of memos to study.
type Session struct {
	Mode        Mode          `json:"mode"`
	Memos       []domain.Memo `json:"memos"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GradeSubmission is a self-assessed recall grade from 0 to 5.
// ExpectedVersion, when set, must match the stored memo version.
type GradeSubmission struct {
	Grade           domain.Grade
	ExpectedVersion *int64
}

// PronunciationSubmission is a pronunciation score from 0 to 100.
type PronunciationSubmission struct {
	Score           float64
	ExpectedVersion *int64
}

// ReviewResult is the memo as stored after a graded attempt.
type ReviewResult struct {
	Memo  domain.Memo  `json:"memo"`
	Grade domain.Grade `json:"grade"`
}

// Service provides review session selection and grading.
type Service interface {
	// DailySession returns the user's due memos (most overdue first) followed
	// by new memos (oldest first), without duplicates.
	//
	// Errors:
	//   - ErrInvalidArgument for negative caps or an unknown mode
	//   - ErrRetrievalFailed if any query fails, times out or is canceled; the
	//     session is then empty, never partial
	DailySession(ctx context.Context, userID uuid.UUID, req DailyRequest) (Session, error)

	// RandomSession returns up to req.Limit previously reviewed memos in
	// random order. Errors as for DailySession.
	RandomSession(ctx context.Context, userID uuid.UUID, req RandomRequest) (Session, error)

	// SubmitGrade schedules the memo's next review from a 0-5 grade.
	//
	// Errors:
	//   - ErrInvalidArgument if the grade is out of range
	//   - ErrMemoNotFound, ErrMemoNotOwned
	//   - ErrConcurrentUpdate if another attempt was stored first or
	//     ExpectedVersion is stale
	SubmitGrade(ctx context.Context, userID, memoID uuid.UUID, sub GradeSubmission) (*ReviewResult, error)

	// SubmitPronunciation maps a 0-100 score to a grade and submits it.
	// Returns ErrNotEvaluable if the memo has no evaluation text, otherwise
	// errors as for SubmitGrade.
	SubmitPronunciation(ctx context.Context, userID, memoID uuid.UUID, sub PronunciationSubmission) (*ReviewResult, error)

	// Limits returns the configured default caps.
	Limits() Limits
}

// Common error types for Service
var (
	// ErrInvalidArgument is shared with the SRS calculator so a bad grade or a
	// bad cap match the same sentinel.
	ErrInvalidArgument = srs.ErrInvalidArgument

	// ErrRetrievalFailed indicates the store could not produce a session.
	ErrRetrievalFailed = errors.New("review session retrieval failed")

	// ErrMemoNotFound indicates that the memo does not exist.
	ErrMemoNotFound = errors.New("memo not found")

	// ErrMemoNotOwned indicates that the user does not own the memo.
	ErrMemoNotOwned = errors.New("unauthorized access: memo not owned by user")

	// ErrNotEvaluable indicates a pronunciation score for a memo without evaluation text.
	ErrNotEvaluable = errors.New("memo has no evaluation text")

	// ErrConcurrentUpdate indicates the memo changed since it was read.
	ErrConcurrentUpdate = errors.New("memo was updated concurrently")
)

// ServiceError wraps errors from the memo review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "daily_session", "submit_grade")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewRetrievalError returns a ServiceError that matches ErrRetrievalFailed as
// well as the underlying cause.
func NewRetrievalError(operation string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   "failed to retrieve memos",
		Err:       errors.Join(ErrRetrievalFailed, err),
	}
}

// NewSubmitError returns a new ServiceError for a submission operation.
func NewSubmitError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
