package memo_review

import (
	"context"

	"github.com/google/uuid"
)

// MockService is a func-field implementation of Service for handler tests.
// Unset funcs return zero values.
type MockService struct {
	DailySessionFunc        func(ctx context.Context, userID uuid.UUID, req DailyRequest) (Session, error)
	RandomSessionFunc       func(ctx context.Context, userID uuid.UUID, req RandomRequest) (Session, error)
	SubmitGradeFunc         func(ctx context.Context, userID, memoID uuid.UUID, sub GradeSubmission) (*ReviewResult, error)
	SubmitPronunciationFunc func(ctx context.Context, userID, memoID uuid.UUID, sub PronunciationSubmission) (*ReviewResult, error)
	LimitsValue             Limits
}

var _ Service = (*MockService)(nil)

// DailySession calls DailySessionFunc.
func (m *MockService) DailySession(ctx context.Context, userID uuid.UUID, req DailyRequest) (Session, error) {
	if m.DailySessionFunc != nil {
		return m.DailySessionFunc(ctx, userID, req)
	}
	return Session{}, nil
}

// RandomSession calls RandomSessionFunc.
func (m *MockService) RandomSession(ctx context.Context, userID uuid.UUID, req RandomRequest) (Session, error) {
	if m.RandomSessionFunc != nil {
		return m.RandomSessionFunc(ctx, userID, req)
	}
	return Session{}, nil
}

// SubmitGrade calls SubmitGradeFunc.
func (m *MockService) SubmitGrade(
	ctx context.Context,
	userID, memoID uuid.UUID,
	sub GradeSubmission,
) (*ReviewResult, error) {
	if m.SubmitGradeFunc != nil {
		return m.SubmitGradeFunc(ctx, userID, memoID, sub)
	}
	return nil, nil
}

// SubmitPronunciation calls SubmitPronunciationFunc.
func (m *MockService) SubmitPronunciation(
	ctx context.Context,
	userID, memoID uuid.UUID,
	sub PronunciationSubmission,
) (*ReviewResult, error) {
	if m.SubmitPronunciationFunc != nil {
		return m.SubmitPronunciationFunc(ctx, userID, memoID, sub)
	}
	return nil, nil
}

// Limits returns LimitsValue.
func (m *MockService) Limits() Limits {
	return m.LimitsValue
}
