package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shabelingo/shabelingo-api/internal/api/shared"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/platform/logger"
	"github.com/shabelingo/shabelingo-api/internal/service"
)

// MemoHandler handles memo-related HTTP requests
type MemoHandler struct {
	memoService service.MemoService
	logger      *slog.Logger
}

// NewMemoHandler creates a new MemoHandler
func NewMemoHandler(memoService service.MemoService, logger *slog.Logger) *MemoHandler {
	if memoService == nil {
		panic("memoService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoHandler{
		memoService: memoService,
		logger:      logger.With(slog.String("component", "memo_handler")),
	}
}

// CreateMemo handles POST /api/memos requests
func (h *MemoHandler) CreateMemo(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	var req CreateMemoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	memo, err := h.memoService.CreateMemo(r.Context(), userID, domain.MemoContent{
		OriginalText:   req.OriginalText,
		TranslatedText: req.TranslatedText,
		Note:           req.Note,
		EvaluationText: req.EvaluationText,
		Language:       req.Language,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, memoToResponse(memo))
}

// GetMemo handles GET /api/memos/{id} requests
func (h *MemoHandler) GetMemo(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, memoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	memo, err := h.memoService.GetMemo(r.Context(), userID, memoID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, memoToResponse(memo))
}

// ListMemos handles GET /api/memos requests. limit and offset page through
// the caller's memos, newest first.
func (h *MemoHandler) ListMemos(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", service.DefaultListLimit)
	if err == nil && (limit < 1 || limit > service.MaxListLimit) {
		err = fmt.Errorf("%w: limit out of range", domain.ErrValidation)
	}
	if err != nil {
		HandleAPIError(w, r, err, fmt.Sprintf("limit must be an integer between 1 and %d", service.MaxListLimit))
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err == nil && offset < 0 {
		err = fmt.Errorf("%w: negative offset", domain.ErrValidation)
	}
	if err != nil {
		HandleAPIError(w, r, err, "offset must be a non-negative integer")
		return
	}

	memos, err := h.memoService.ListMemos(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, memosToListResponse(memos, limit, offset))
}

// UpdateMemo handles PATCH /api/memos/{id} requests
func (h *MemoHandler) UpdateMemo(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, memoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateMemoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	memo, err := h.memoService.UpdateMemo(r.Context(), userID, memoID, req.patch())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, memoToResponse(memo))
}

// DeleteMemo handles DELETE /api/memos/{id} requests
func (h *MemoHandler) DeleteMemo(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, memoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.memoService.DeleteMemo(r.Context(), userID, memoID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
