package srs

import (
	"math"
	"testing"

	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeFromScore(t *testing.T) {
	t.Parallel() // Enable parallel execution

	testCases := []struct {
		score    float64
		expected domain.Grade
	}{
		{100, 5},
		{90, 5},
		{89.99, 4},
		{89, 4},
		{80, 4},
		{79, 3},
		{70, 3},
		{69.5, 2},
		{60, 2},
		{59, 1},
		{0, 1},
	}

	for _, tc := range testCases {
		got, err := GradeFromScore(tc.score)
		require.NoError(t, err, "score %v", tc.score)
		assert.Equal(t, tc.expected, got, "score %v", tc.score)
	}
}

func TestGradeFromScoreRejectsOutOfRange(t *testing.T) {
	t.Parallel() // Enable parallel execution

	for _, score := range []float64{-0.1, 100.5, math.NaN(), math.Inf(1)} {
		_, err := GradeFromScore(score)
		assert.ErrorIs(t, err, ErrInvalidArgument, "score %v", score)
	}
}
