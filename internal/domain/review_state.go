package domain

import (
	"errors"
	"math"
	"time"
)

// ReviewStatus represents where an item sits in its review lifecycle.
type ReviewStatus string

// Possible review status values. StatusLearning and StatusRemembered are part
// of the persisted vocabulary but are never produced by the scheduler.
const (
	StatusNew        ReviewStatus = "new"
	StatusLearning   ReviewStatus = "learning"
	StatusReview     ReviewStatus = "review"
	StatusRemembered ReviewStatus = "remembered"
)

// Grade is a recall quality score in the range 0..5. Grades of 3 and above
// count as a successful recall.
type Grade int

// Grade bounds.
const (
	MinGrade Grade = 0
	MaxGrade Grade = 5

	// PassingGrade is the lowest grade that keeps the success streak going.
	PassingGrade Grade = 3
)

// Creation defaults for a fresh review state.
const (
	DefaultEaseFactor = 2.5
	FloorEaseFactor   = 1.3
)

// Common validation errors for ReviewState
var (
	ErrInvalidReviewStatus = errors.New("invalid review status")
	ErrInvalidInterval     = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEaseFactor   = errors.New("ease factor must be a finite number not below 1.3")
	ErrInvalidReviewCount  = errors.New("review count must be greater than or equal to 0")
	ErrInvalidGrade        = errors.New("grade must be between 0 and 5")
)

// ReviewState is the per-item scheduling record maintained by the SRS calculator.
type ReviewState struct {
	Status         ReviewStatus `json:"status"`
	Interval       int          `json:"interval"`         // days until next review
	EaseFactor     float64      `json:"ease_factor"`      // growth multiplier, floor 1.3
	ReviewCount    int          `json:"review_count"`     // consecutive successful reviews
	NextReviewDate time.Time    `json:"next_review_date"` // when the item becomes due
	LastReviewDate time.Time    `json:"last_review_date"` // zero until the first graded attempt
}

// NewReviewState returns the state of a freshly created item. The item is
// immediately eligible for the new-item queue.
func NewReviewState(now time.Time) ReviewState {
	return ReviewState{
		Status:         StatusNew,
		Interval:       0,
		EaseFactor:     DefaultEaseFactor,
		ReviewCount:    0,
		NextReviewDate: now,
	}
}

// Validate checks the stored invariants of a review state.
func (s ReviewState) Validate() error {
	if !s.Status.Valid() {
		return ErrInvalidReviewStatus
	}
	if s.Interval < 0 {
		return ErrInvalidInterval
	}
	if math.IsNaN(s.EaseFactor) || math.IsInf(s.EaseFactor, 0) || s.EaseFactor < FloorEaseFactor {
		return ErrInvalidEaseFactor
	}
	if s.ReviewCount < 0 {
		return ErrInvalidReviewCount
	}
	return nil
}

// IsNew reports whether the item has never been graded.
func (s ReviewState) IsNew() bool {
	return s.Status == StatusNew
}

// IsDue reports whether a previously graded item is scheduled at or before now.
func (s ReviewState) IsDue(now time.Time) bool {
	return s.Status != StatusNew && !s.NextReviewDate.After(now)
}

// Valid reports whether the status is one of the known values.
func (st ReviewStatus) Valid() bool {
	switch st {
	case StatusNew, StatusLearning, StatusReview, StatusRemembered:
		return true
	default:
		return false
	}
}

// Valid reports whether the grade lies in 0..5.
func (g Grade) Valid() bool {
	return g >= MinGrade && g <= MaxGrade
}

// Passed reports whether the grade counts as a successful recall.
func (g Grade) Passed() bool {
	return g >= PassingGrade
}
