package api

import (
	"log/slog"
	"net/http"

	"github.com/shabelingo/shabelingo-api/internal/api/shared"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/platform/logger"
	"github.com/shabelingo/shabelingo-api/internal/service/memo_review"
)

// ReviewHandler serves review sessions and records graded attempts.
type ReviewHandler struct {
	reviewService memo_review.Service
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService memo_review.Service, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		panic("reviewService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// DailySession handles GET /api/review/daily?due_limit=&new_limit=&mode=
// Absent limits fall back to the configured defaults.
func (h *ReviewHandler) DailySession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	limits := h.reviewService.Limits()
	dueLimit, err := queryInt(r, "due_limit", limits.DueLimit)
	if err != nil {
		HandleAPIError(w, r, err, "due_limit must be an integer")
		return
	}
	newLimit, err := queryInt(r, "new_limit", limits.NewLimit)
	if err != nil {
		HandleAPIError(w, r, err, "new_limit must be an integer")
		return
	}

	session, err := h.reviewService.DailySession(r.Context(), userID, memo_review.DailyRequest{
		DueLimit: dueLimit,
		NewLimit: newLimit,
		Mode:     memo_review.Mode(r.URL.Query().Get("mode")),
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// RandomSession handles GET /api/review/random?limit=&mode=
func (h *ReviewHandler) RandomSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", h.reviewService.Limits().RandomLimit)
	if err != nil {
		HandleAPIError(w, r, err, "limit must be an integer")
		return
	}

	session, err := h.reviewService.RandomSession(r.Context(), userID, memo_review.RandomRequest{
		Limit: limit,
		Mode:  memo_review.Mode(r.URL.Query().Get("mode")),
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// SubmitGrade handles POST /api/memos/{id}/review
func (h *ReviewHandler) SubmitGrade(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, memoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SubmitGradeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	result, err := h.reviewService.SubmitGrade(r.Context(), userID, memoID, memo_review.GradeSubmission{
		Grade:           domain.Grade(*req.Grade),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(result))
}

// SubmitPronunciation handles POST /api/memos/{id}/pronunciation
func (h *ReviewHandler) SubmitPronunciation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, memoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SubmitPronunciationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	result, err := h.reviewService.SubmitPronunciation(r.Context(), userID, memoID, memo_review.PronunciationSubmission{
		Score:           *req.Score,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(result))
}

func reviewToResponse(result *memo_review.ReviewResult) ReviewResponse {
	return ReviewResponse{
		Grade: int(result.Grade),
		Memo:  memoToResponse(&result.Memo),
	}
}
