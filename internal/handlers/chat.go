package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"nbweb-backend/internal/models"
	"nbweb-backend/internal/services"
)

type chatService interface {
	Handle(ctx context.Context, req models.ChatRequest) (models.AssistantReply, error)
}

type ChatHandler struct {
	chat chatService
}

func NewChatHandler(chat chatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat answers a document-grounded question. Structural validation
// failures are the only 4xx here; model failures surface in-band as
// assistant text with HTTP 200.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	reply, err := h.chat.Handle(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyConversation):
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Conversation transcript is empty", r))
		case errors.Is(err, services.ErrNoUserTurn):
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No user message found", r))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Chat pipeline failed", r))
		}
		return
	}

	writeJSON(w, http.StatusOK, reply)
}
