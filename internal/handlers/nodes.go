package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nbweb-backend/internal/models"
	"nbweb-backend/internal/store"
)

type NodeHandler struct {
	nodes *store.NodeStore
}

func NewNodeHandler(nodes *store.NodeStore) *NodeHandler {
	return &NodeHandler{nodes: nodes}
}

func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")

	nodes, err := h.nodes.List(documentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

// Upsert creates the node or replaces the one with the same node_id.
func (h *NodeHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")

	var node models.KnowledgeNode
	if err := json.NewDecoder(r.Body).Decode(&node); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if node.NodeID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "node_id is required", r))
		return
	}

	if err := h.nodes.Upsert(documentID, node); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save node", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "node_id": node.NodeID})
}

func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	nodeID := chi.URLParam(r, "node_id")

	if err := h.nodes.Delete(documentID, nodeID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete node", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
