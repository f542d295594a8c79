package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nbweb-backend/internal/models"
	"nbweb-backend/internal/store"
)

type ChatStoreHandler struct {
	chats *store.ChatStore
}

func NewChatStoreHandler(chats *store.ChatStore) *ChatStoreHandler {
	return &ChatStoreHandler{chats: chats}
}

func (h *ChatStoreHandler) List(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")

	chats, err := h.chats.List(documentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// Save creates the session or replaces the one with the same id.
func (h *ChatStoreHandler) Save(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")

	var chat models.ChatSession
	if err := json.NewDecoder(r.Body).Decode(&chat); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if chat.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "id is required", r))
		return
	}

	if err := h.chats.Save(documentID, chat); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save chat", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "id": chat.ID})
}

func (h *ChatStoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	chatID := chi.URLParam(r, "chat_id")

	if err := h.chats.Delete(documentID, chatID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete chat", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
