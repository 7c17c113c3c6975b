package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shabelingo/shabelingo-api/internal/api/shared"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/service"
	"github.com/shabelingo/shabelingo-api/internal/service/memo_review"
	"github.com/shabelingo/shabelingo-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, memo_review.ErrMemoNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, service.ErrMemoNotFound),
		errors.Is(err, memo_review.ErrMemoNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, memo_review.ErrConcurrentUpdate),
		errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, memo_review.ErrNotEvaluable):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, memo_review.ErrInvalidArgument),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyOriginalText),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, memo_review.ErrRetrievalFailed):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "User ID not found or invalid"

	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, memo_review.ErrMemoNotOwned):
		return "You do not own this memo"

	case errors.Is(err, service.ErrMemoNotFound),
		errors.Is(err, memo_review.ErrMemoNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Memo not found"

	case errors.Is(err, memo_review.ErrConcurrentUpdate),
		errors.Is(err, store.ErrVersionConflict):
		return "Memo was updated by another request; reload and retry"

	case errors.Is(err, store.ErrDuplicate):
		return "Memo already exists"

	case errors.Is(err, memo_review.ErrNotEvaluable):
		return "Memo has no evaluation text for pronunciation scoring"

	case errors.Is(err, domain.ErrInvalidGrade):
		return "Grade must be between 0 and 5"

	case errors.Is(err, domain.ErrEmptyOriginalText):
		return "Original text is required"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, memo_review.ErrInvalidArgument),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, memo_review.ErrRetrievalFailed):
		return "Review session is temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status code and safe message for err. A non-empty
// message overrides the mapped one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if status == http.StatusConflict || status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// HandleValidationError writes a 400 response describing the first failed
// validation rule without echoing the submitted value.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", toSnake(fe.Field()), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// toSnake converts a Go field name to the snake_case JSON name used by the DTOs.
func toSnake(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
