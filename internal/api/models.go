package api

import (
	"time"

	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/service/memo_review"
)

// CreateMemoRequest is the payload for POST /api/memos.
type CreateMemoRequest struct {
	OriginalText   string `json:"original_text"   validate:"required,max=2000"`
	TranslatedText string `json:"translated_text" validate:"max=2000"`
	Note           string `json:"note"            validate:"max=4000"`
	EvaluationText string `json:"evaluation_text" validate:"max=2000"`
	Language       string `json:"language"        validate:"max=35"`
}

// UpdateMemoRequest is the payload for PATCH /api/memos/{id}. Omitted fields
// keep their stored values.
type UpdateMemoRequest struct {
	OriginalText   *string `json:"original_text"   validate:"omitempty,max=2000"`
	TranslatedText *string `json:"translated_text" validate:"omitempty,max=2000"`
	Note           *string `json:"note"            validate:"omitempty,max=4000"`
	EvaluationText *string `json:"evaluation_text" validate:"omitempty,max=2000"`
	Language       *string `json:"language"        validate:"omitempty,max=35"`
}

func (r UpdateMemoRequest) patch() domain.MemoPatch {
	return domain.MemoPatch{
		OriginalText:   r.OriginalText,
		TranslatedText: r.TranslatedText,
		Note:           r.Note,
		EvaluationText: r.EvaluationText,
		Language:       r.Language,
	}
}

// SubmitGradeRequest is the payload for POST /api/memos/{id}/review.
// ExpectedVersion, when present, makes a retried submission fail with 409
// instead of being applied twice.
type SubmitGradeRequest struct {
	Grade           *int   `json:"grade"            validate:"required,min=0,max=5"`
	ExpectedVersion *int64 `json:"expected_version" validate:"omitempty,min=1"`
}

// SubmitPronunciationRequest is the payload for POST /api/memos/{id}/pronunciation.
type SubmitPronunciationRequest struct {
	Score           *float64 `json:"score"            validate:"required,min=0,max=100"`
	ExpectedVersion *int64   `json:"expected_version" validate:"omitempty,min=1"`
}

// ReviewStateResponse is the scheduling state of a memo.
type ReviewStateResponse struct {
	Status         string     `json:"status"`
	Interval       int        `json:"interval"`
	EaseFactor     float64    `json:"ease_factor"`
	ReviewCount    int        `json:"review_count"`
	NextReviewDate time.Time  `json:"next_review_date"`
	LastReviewDate *time.Time `json:"last_review_date,omitempty"`
}

// MemoResponse represents the response data for a memo
type MemoResponse struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	OriginalText   string              `json:"original_text"`
	TranslatedText string              `json:"translated_text"`
	Note           string              `json:"note,omitempty"`
	EvaluationText string              `json:"evaluation_text,omitempty"`
	Language       string              `json:"language,omitempty"`
	Review         ReviewStateResponse `json:"review"`
	Version        int64               `json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// SessionResponse is a review session.
type SessionResponse struct {
	Mode        string         `json:"mode"`
	Count       int            `json:"count"`
	Memos       []MemoResponse `json:"memos"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// MemoListResponse is a page of a user's memos, newest first.
type MemoListResponse struct {
	Memos  []MemoResponse `json:"memos"`
	Count  int            `json:"count"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ReviewResponse is the outcome of a graded attempt.
type ReviewResponse struct {
	Grade int          `json:"grade"`
	Memo  MemoResponse `json:"memo"`
}

func memoToResponse(memo *domain.Memo) MemoResponse {
	resp := MemoResponse{
		ID:             memo.ID.String(),
		UserID:         memo.UserID.String(),
		OriginalText:   memo.OriginalText,
		TranslatedText: memo.TranslatedText,
		Note:           memo.Note,
		EvaluationText: memo.EvaluationText,
		Language:       memo.Language,
		Review: ReviewStateResponse{
			Status:         string(memo.Review.Status),
			Interval:       memo.Review.Interval,
			EaseFactor:     memo.Review.EaseFactor,
			ReviewCount:    memo.Review.ReviewCount,
			NextReviewDate: memo.Review.NextReviewDate,
		},
		Version:   memo.Version,
		CreatedAt: memo.CreatedAt,
		UpdatedAt: memo.UpdatedAt,
	}
	if !memo.Review.LastReviewDate.IsZero() {
		last := memo.Review.LastReviewDate
		resp.Review.LastReviewDate = &last
	}
	return resp
}

func memosToListResponse(memos []*domain.Memo, limit, offset int) MemoListResponse {
	out := make([]MemoResponse, 0, len(memos))
	for _, m := range memos {
		out = append(out, memoToResponse(m))
	}
	return MemoListResponse{Memos: out, Count: len(out), Limit: limit, Offset: offset}
}

func sessionToResponse(session memo_review.Session) SessionResponse {
	memos := make([]MemoResponse, 0, len(session.Memos))
	for i := range session.Memos {
		memos = append(memos, memoToResponse(&session.Memos[i]))
	}
	return SessionResponse{
		Mode:        string(session.Mode),
		Count:       len(memos),
		Memos:       memos,
		GeneratedAt: session.GeneratedAt,
	}
}
