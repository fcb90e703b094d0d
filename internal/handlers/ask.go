package handlers

import (
	"encoding/json"
	"net/http"

	"docqa/internal/contextutil"
	"docqa/internal/service"
)

// AskHandler handles question answering requests.
type AskHandler struct {
	qa *service.QAService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(qa *service.QAService) *AskHandler {
	return &AskHandler{qa: qa}
}

// AskRequest represents the HTTP request payload for questions.
type AskRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
}

// AskResponse represents the HTTP response payload.
type AskResponse struct {
	Answer string `json:"answer"`
	Mode   string `json:"mode"`
}

// Ask answers a question against the user's project documents.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.qa.AnswerQuestion(ctx, req.UserID, req.Question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer: result.Text,
		Mode:   string(result.Mode),
	})
}
