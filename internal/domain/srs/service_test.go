package srs

import (
	"math"
	"testing"
	"time"

	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultService(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	require.NotNil(t, service)

	params := service.Params()
	assert.Equal(t, 1.3, params.MinEaseFactor)
	assert.Equal(t, 6, params.SecondInterval)
}

func TestNewServiceWithParams(t *testing.T) {
	t.Parallel() // Enable parallel execution

	_, err := NewServiceWithParams(nil)
	assert.ErrorIs(t, err, ErrInvalidParams)

	bad := NewDefaultParams()
	bad.MinEaseFactor = 1.1
	_, err = NewServiceWithParams(bad)
	assert.ErrorIs(t, err, ErrInvalidParams)

	custom := NewParams(ParamsConfig{SecondInterval: 4})
	service, err := NewServiceWithParams(custom)
	require.NoError(t, err)

	// Mutating the caller's params afterwards must not leak into the service
	custom.SecondInterval = 99
	assert.Equal(t, 4, service.Params().SecondInterval)
}

func TestCalculateNextReview(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Date(2024, 4, 1, 7, 0, 0, 0, time.UTC)

	state := domain.NewReviewState(now.Add(-24 * time.Hour))

	// Three successful reviews in a row
	grades := []domain.Grade{5, 4, 3}
	wantIntervals := []int{1, 6, 16}
	wantEase := []float64{2.6, 2.6, 2.46}

	for i, g := range grades {
		next, err := service.CalculateNextReview(state, g, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReview, next.Status)
		assert.Equal(t, wantIntervals[i], next.Interval)
		assert.InDelta(t, wantEase[i], next.EaseFactor, epsilon)
		assert.Equal(t, i+1, next.ReviewCount)
		assert.True(t, next.LastReviewDate.Equal(now))
		state = next
	}

	// A lapse resets the streak but keeps status review
	next, err := service.CalculateNextReview(state, 0, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReview, next.Status)
	assert.Equal(t, 0, next.ReviewCount)
	assert.Equal(t, 1, next.Interval)
}

func TestCalculateNextReviewValidation(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Now().UTC()

	testCases := []struct {
		name    string
		mutate  func(*domain.ReviewState)
		grade   domain.Grade
		wantErr error
	}{
		{name: "grade above range", grade: 6, wantErr: domain.ErrInvalidGrade},
		{name: "grade below range", grade: -1, wantErr: domain.ErrInvalidGrade},
		{
			name:    "negative interval",
			grade:   4,
			mutate:  func(s *domain.ReviewState) { s.Interval = -3 },
			wantErr: domain.ErrInvalidInterval,
		},
		{
			name:    "negative review count",
			grade:   4,
			mutate:  func(s *domain.ReviewState) { s.ReviewCount = -1 },
			wantErr: domain.ErrInvalidReviewCount,
		},
		{
			name:    "ease below floor",
			grade:   4,
			mutate:  func(s *domain.ReviewState) { s.EaseFactor = 1.1 },
			wantErr: domain.ErrInvalidEaseFactor,
		},
		{
			name:    "ease NaN",
			grade:   4,
			mutate:  func(s *domain.ReviewState) { s.EaseFactor = math.NaN() },
			wantErr: domain.ErrInvalidEaseFactor,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			state := domain.NewReviewState(now)
			if tc.mutate != nil {
				tc.mutate(&state)
			}

			_, err := service.CalculateNextReview(state, tc.grade, now)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
