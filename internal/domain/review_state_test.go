package domain

import (
	"math"
	"testing"
	"time"
)

func TestReviewStateValidate(t *testing.T) {
	t.Parallel() // Enable parallel execution
	now := time.Now().UTC()

	testCases := []struct {
		name    string
		mutate  func(*ReviewState)
		wantErr error
	}{
		{name: "fresh state", mutate: func(*ReviewState) {}, wantErr: nil},
		{name: "unknown status", mutate: func(s *ReviewState) { s.Status = "lapsed" }, wantErr: ErrInvalidReviewStatus},
		{name: "negative interval", mutate: func(s *ReviewState) { s.Interval = -1 }, wantErr: ErrInvalidInterval},
		{name: "ease below floor", mutate: func(s *ReviewState) { s.EaseFactor = 1.29 }, wantErr: ErrInvalidEaseFactor},
		{name: "ease NaN", mutate: func(s *ReviewState) { s.EaseFactor = math.NaN() }, wantErr: ErrInvalidEaseFactor},
		{name: "ease infinite", mutate: func(s *ReviewState) { s.EaseFactor = math.Inf(1) }, wantErr: ErrInvalidEaseFactor},
		{name: "negative review count", mutate: func(s *ReviewState) { s.ReviewCount = -2 }, wantErr: ErrInvalidReviewCount},
		{name: "ease at floor", mutate: func(s *ReviewState) { s.EaseFactor = 1.3 }, wantErr: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			state := NewReviewState(now)
			tc.mutate(&state)
			if err := state.Validate(); err != tc.wantErr {
				t.Errorf("Expected error %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestReviewStateIsDue(t *testing.T) {
	t.Parallel() // Enable parallel execution
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	state := NewReviewState(now.Add(-time.Hour))
	if state.IsDue(now) {
		t.Error("New items must never be due")
	}
	if !state.IsNew() {
		t.Error("Expected fresh state to be new")
	}

	state.Status = StatusReview
	if !state.IsDue(now) {
		t.Error("Expected past review date to be due")
	}

	state.NextReviewDate = now
	if !state.IsDue(now) {
		t.Error("Expected review date equal to now to be due")
	}

	state.NextReviewDate = now.Add(time.Millisecond)
	if state.IsDue(now) {
		t.Error("Expected future review date to be not due")
	}
}

func TestGrade(t *testing.T) {
	t.Parallel() // Enable parallel execution
	for g := Grade(-1); g <= 6; g++ {
		wantValid := g >= 0 && g <= 5
		if g.Valid() != wantValid {
			t.Errorf("Grade(%d).Valid() = %v, want %v", g, g.Valid(), wantValid)
		}
	}
	if Grade(2).Passed() {
		t.Error("Grade 2 must not pass")
	}
	if !Grade(3).Passed() {
		t.Error("Grade 3 must pass")
	}
}
