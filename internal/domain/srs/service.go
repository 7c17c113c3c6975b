package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shabelingo/shabelingo-api/internal/domain"
)

// Common errors
var (
	// ErrInvalidArgument is returned when the calculator is handed a grade,
	// interval, ease factor, review count or score outside its domain.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Service defines the interface for SRS algorithm operations
type Service interface {
	// CalculateNextReview validates the current state and grade and returns the
	// state to persist after the attempt. The returned state always has status
	// review and LastReviewDate equal to now.
	CalculateNextReview(
		state domain.ReviewState,
		grade domain.Grade,
		now time.Time,
	) (domain.ReviewState, error)

	// Params returns a copy of the parameters the service schedules with.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params cannot be nil", ErrInvalidParams)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := *params
	return &defaultService{params: &p}, nil
}

// CalculateNextReview implements the Service interface for calculating the next state
func (s *defaultService) CalculateNextReview(
	state domain.ReviewState,
	grade domain.Grade,
	now time.Time,
) (domain.ReviewState, error) {
	if err := s.validate(state, grade); err != nil {
		return domain.ReviewState{}, err
	}

	return calculateNextState(state, grade, now, s.params), nil
}

// Params implements the Service interface
func (s *defaultService) Params() Params {
	return *s.params
}

func (s *defaultService) validate(state domain.ReviewState, grade domain.Grade) error {
	if !grade.Valid() {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidArgument, domain.ErrInvalidGrade, grade)
	}
	if state.Interval < 0 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidArgument, domain.ErrInvalidInterval, state.Interval)
	}
	if state.ReviewCount < 0 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidArgument, domain.ErrInvalidReviewCount, state.ReviewCount)
	}
	ef := state.EaseFactor
	if math.IsNaN(ef) || math.IsInf(ef, 0) || ef < domain.FloorEaseFactor {
		return fmt.Errorf("%w: %w (got %v)", ErrInvalidArgument, domain.ErrInvalidEaseFactor, ef)
	}
	return nil
}
