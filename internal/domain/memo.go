package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Memo
var (
	ErrEmptyMemoID       = errors.New("memo ID cannot be empty")
	ErrEmptyMemoUserID   = errors.New("memo user ID cannot be empty")
	ErrEmptyOriginalText = errors.New("memo original text cannot be empty")
)

// Memo is a single study item: a phrase in the target language together with
// its translation, optional notes and the scheduling state used for review.
type Memo struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"user_id"`
	OriginalText   string      `json:"original_text"`
	TranslatedText string      `json:"translated_text"`
	Note           string      `json:"note,omitempty"`
	EvaluationText string      `json:"evaluation_text,omitempty"` // reference text for pronunciation scoring
	Language       string      `json:"language,omitempty"`
	Review         ReviewState `json:"review"`
	Version        int64       `json:"version"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// MemoContent holds the user-supplied fields of a memo.
type MemoContent struct {
	OriginalText   string
	TranslatedText string
	Note           string
	EvaluationText string
	Language       string
}

// MemoPatch holds replacement values for a memo's content. Nil fields are
// left as they are.
type MemoPatch struct {
	OriginalText   *string
	TranslatedText *string
	Note           *string
	EvaluationText *string
	Language       *string
}

// Empty reports whether the patch changes nothing.
func (p MemoPatch) Empty() bool {
	return p.OriginalText == nil && p.TranslatedText == nil && p.Note == nil &&
		p.EvaluationText == nil && p.Language == nil
}

// NewMemo creates a new Memo owned by userID with creation defaults applied:
// status new, interval 0, ease factor 2.5, review count 0 and a next review
// date of now.
// Returns an error if validation fails.
func NewMemo(userID uuid.UUID, content MemoContent, now time.Time) (*Memo, error) {
	now = now.UTC()
	memo := &Memo{
		ID:             uuid.New(),
		UserID:         userID,
		OriginalText:   strings.TrimSpace(content.OriginalText),
		TranslatedText: strings.TrimSpace(content.TranslatedText),
		Note:           content.Note,
		EvaluationText: strings.TrimSpace(content.EvaluationText),
		Language:       content.Language,
		Review:         NewReviewState(now),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := memo.Validate(); err != nil {
		return nil, err
	}

	return memo, nil
}

// Validate checks if the Memo has valid data.
// Returns an error if any field fails validation.
func (m *Memo) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyMemoID
	}

	if m.UserID == uuid.Nil {
		return ErrEmptyMemoUserID
	}

	if strings.TrimSpace(m.OriginalText) == "" {
		return ErrEmptyOriginalText
	}

	return m.Review.Validate()
}

// Evaluable reports whether the memo carries reference text that a
// pronunciation attempt can be scored against.
func (m *Memo) Evaluable() bool {
	return strings.TrimSpace(m.EvaluationText) != ""
}

// ApplyReview replaces the scheduling state and bumps the update timestamp.
func (m *Memo) ApplyReview(state ReviewState, now time.Time) {
	m.Review = state
	m.UpdatedAt = now.UTC()
}

// ApplyPatch replaces the content fields set in p and bumps the update
// timestamp. Text is trimmed the same way NewMemo trims it. The memo is left
// unchanged when the result would be invalid.
func (m *Memo) ApplyPatch(p MemoPatch, now time.Time) error {
	next := *m
	if p.OriginalText != nil {
		next.OriginalText = strings.TrimSpace(*p.OriginalText)
	}
	if p.TranslatedText != nil {
		next.TranslatedText = strings.TrimSpace(*p.TranslatedText)
	}
	if p.Note != nil {
		next.Note = *p.Note
	}
	if p.EvaluationText != nil {
		next.EvaluationText = strings.TrimSpace(*p.EvaluationText)
	}
	if p.Language != nil {
		next.Language = *p.Language
	}

	if err := next.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = now.UTC()
	*m = next
	return nil
}
