package srs

import (
	"math"
	"time"

	"github.com/shabelingo/shabelingo-api/internal/domain"
)

// Day is the length of one scheduling interval unit. Review dates are
// computed by adding whole multiples of it, not by calendar arithmetic, so
// daylight-saving transitions never shift a schedule.
const Day = 24 * time.Hour

// Result is the scheduling tuple produced for a single graded attempt.
type Result struct {
	Interval       int
	EaseFactor     float64
	ReviewCount    int
	NextReviewDate time.Time
}

// calculateNewEaseFactor applies the SM-2 ease update.
//
// The adjustment is driven by the grade alone, so it runs on both the success
// and the failure branch: a grade of 5 adds 0.1, a grade of 4 leaves the
// factor unchanged and lower grades pull it down progressively harder.
//
// The result is clamped to params.MinEaseFactor (there is no ceiling) and then
// rounded to params.EasePrecision decimal places so repeated reviews do not
// accumulate float drift.
func calculateNewEaseFactor(currentEF float64, grade domain.Grade, params *Params) float64 {
	q := float64(5 - grade)
	newEF := currentEF + (0.1 - q*(0.08+q*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return roundTo(newEF, params.EasePrecision)
}

// calculateNewInterval determines the next interval in days.
//
// Successful reviews bootstrap through two fixed tiers keyed by the current
// review count (FirstInterval, then SecondInterval) before growing by the
// current ease factor. The multiplication uses the ease factor from before
// this review is applied. Failures always schedule FailureInterval.
//
// The result is never below FirstInterval, which also covers stored states
// whose interval was left at 0 while the review count had advanced.
func calculateNewInterval(
	currentInterval int,
	reviewCount int,
	currentEF float64,
	grade domain.Grade,
	params *Params,
) int {
	if !grade.Passed() {
		return params.FailureInterval
	}

	var interval int
	switch reviewCount {
	case 0:
		interval = params.FirstInterval
	case 1:
		interval = params.SecondInterval
	default:
		interval = int(math.Round(float64(currentInterval) * currentEF))
	}

	if interval < params.FirstInterval {
		interval = params.FirstInterval
	}
	return interval
}

// calculateNewReviewCount extends the success streak or resets it on failure.
func calculateNewReviewCount(reviewCount int, grade domain.Grade) int {
	if !grade.Passed() {
		return 0
	}
	return reviewCount + 1
}

// calculateNextReviewDate returns now plus interval whole days.
func calculateNextReviewDate(interval int, now time.Time) time.Time {
	return now.Add(time.Duration(interval) * Day)
}

// Calculate is the SRS calculator: a pure function from a grade and the prior
// scheduling tuple to the next one. It performs no validation; callers that
// accept untrusted input should go through Service.CalculateNextReview.
func Calculate(
	grade domain.Grade,
	currentInterval int,
	currentEaseFactor float64,
	currentReviewCount int,
	now time.Time,
	params *Params,
) Result {
	interval := calculateNewInterval(currentInterval, currentReviewCount, currentEaseFactor, grade, params)

	return Result{
		Interval:       interval,
		EaseFactor:     calculateNewEaseFactor(currentEaseFactor, grade, params),
		ReviewCount:    calculateNewReviewCount(currentReviewCount, grade),
		NextReviewDate: calculateNextReviewDate(interval, now),
	}
}

// calculateNextState creates a new ReviewState from the current one and a grade.
// The input is never modified. Status always becomes review: the learning and
// remembered statuses are not produced by this scheduler.
func calculateNextState(
	state domain.ReviewState,
	grade domain.Grade,
	now time.Time,
	params *Params,
) domain.ReviewState {
	result := Calculate(grade, state.Interval, state.EaseFactor, state.ReviewCount, now, params)

	return domain.ReviewState{
		Status:         domain.StatusReview,
		Interval:       result.Interval,
		EaseFactor:     result.EaseFactor,
		ReviewCount:    result.ReviewCount,
		NextReviewDate: result.NextReviewDate,
		LastReviewDate: now,
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
