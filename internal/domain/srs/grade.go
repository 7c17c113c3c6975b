package srs

import (
	"fmt"
	"math"

	"github.com/shabelingo/shabelingo-api/internal/domain"
)

// scoreBuckets maps a minimum pronunciation score to the grade it earns.
// Buckets are checked in order; anything below the last one earns grade 1.
var scoreBuckets = []struct {
	min   float64
	grade domain.Grade
}{
	{90, 5},
	{80, 4},
	{70, 3},
	{60, 2},
}

// GradeFromScore converts a 0-100 pronunciation assessment score into a
// review grade. A score can never produce grade 0.
func GradeFromScore(score float64) (domain.Grade, error) {
	if math.IsNaN(score) || score < 0 || score > 100 {
		return 0, fmt.Errorf("%w: score must be between 0 and 100 (got %v)", ErrInvalidArgument, score)
	}

	for _, b := range scoreBuckets {
		if score >= b.min {
			return b.grade, nil
		}
	}
	return 1, nil
}
