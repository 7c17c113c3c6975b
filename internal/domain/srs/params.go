package srs

import (
	"errors"
	"fmt"

	"github.com/shabelingo/shabelingo-api/internal/domain"
)

// ErrInvalidParams is returned when a parameter set cannot drive the algorithm.
var ErrInvalidParams = errors.New("invalid SRS parameters")

// Params defines all configurable parameters for the SRS algorithm
type Params struct {
	// Ease factor floor. It may be raised above domain.FloorEaseFactor but
	// never lowered, and there is no ceiling.
	MinEaseFactor float64

	// Bootstrap intervals (days) for the first and second successful reviews
	FirstInterval  int
	SecondInterval int

	// Interval (days) scheduled after a failed review
	FailureInterval int

	// Decimal places kept when storing the ease factor
	EasePrecision int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values leave the corresponding default untouched.
type ParamsConfig struct {
	MinEaseFactor   float64
	FirstInterval   int
	SecondInterval  int
	FailureInterval int
	EasePrecision   int
}

// NewDefaultParams creates a new Params instance with the SM-2 defaults
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:   domain.FloorEaseFactor,
		FirstInterval:   1,
		SecondInterval:  6,
		FailureInterval: 1,
		EasePrecision:   2,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.FailureInterval > 0 {
		params.FailureInterval = config.FailureInterval
	}
	if config.EasePrecision > 0 {
		params.EasePrecision = config.EasePrecision
	}

	return params
}

// Validate checks that the parameters keep the scheduling invariants intact.
func (p *Params) Validate() error {
	switch {
	case p.MinEaseFactor < domain.FloorEaseFactor:
		return fmt.Errorf("%w: min ease factor must be at least %.1f", ErrInvalidParams, domain.FloorEaseFactor)
	case p.MinEaseFactor > domain.DefaultEaseFactor:
		// New memos start at DefaultEaseFactor and must already satisfy the floor.
		return fmt.Errorf("%w: min ease factor must not exceed %.1f", ErrInvalidParams, domain.DefaultEaseFactor)
	case p.FirstInterval < 1 || p.SecondInterval < 1 || p.FailureInterval < 1:
		return fmt.Errorf("%w: intervals must be at least 1 day", ErrInvalidParams)
	case p.EasePrecision < 0 || p.EasePrecision > 6:
		return fmt.Errorf("%w: ease precision must be between 0 and 6", ErrInvalidParams)
	}
	return nil
}
