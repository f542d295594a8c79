package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"nbweb-backend/internal/models"
	"nbweb-backend/internal/services"
	"nbweb-backend/internal/store"
)

const maxUploadBytes = 100 * 1024 * 1024 // 100MB

type DocumentHandler struct {
	docs      *store.DocumentStore
	converter *services.Converter
	post      *services.PostProcessor
	maxPages  int
	language  string
}

func NewDocumentHandler(docs *store.DocumentStore, converter *services.Converter, maxPages int, language string) *DocumentHandler {
	return &DocumentHandler{
		docs:      docs,
		converter: converter,
		post:      services.NewPostProcessor(),
		maxPages:  maxPages,
		language:  language,
	}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list documents", r))
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Get serves the document's stored HTML body.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")

	html, err := h.docs.HTML(documentID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Document not found", r))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// Upload accepts a plain HTML document; the filename becomes the
// document id.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	lower := strings.ToLower(header.Filename)
	if !strings.HasSuffix(lower, ".html") && !strings.HasSuffix(lower, ".htm") {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Only HTML documents are supported", r))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to read upload", r))
		return
	}

	documentID, err := h.docs.SaveHTMLUpload(filepath.Base(header.Filename), data)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store document", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "document_id": documentID})
}

// UploadPDF converts a PDF through the conversion pipeline and lays
// down the document folder: markdown with relative asset paths, HTML
// with server-addressable ones, and the extracted images.
func (h *DocumentHandler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Only PDF is supported", r))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to read upload", r))
		return
	}

	result, err := h.converter.Convert(r.Context(), data, services.ConvertOptions{
		MaxPages:      h.maxPages,
		Language:      h.language,
		EnableFormula: true,
		EnableTable:   true,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("CONVERSION_FAILED", fmt.Sprintf("PDF conversion failed: %v", err), r))
		return
	}

	documentID := documentIDFor(header.Filename)

	markdown := result.Markdown
	if len(result.AssetsZip) > 0 {
		archiveMd, _, archiveErr := h.docs.ImportArchive(documentID, result.AssetsZip)
		if archiveErr != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to extract document assets", r))
			return
		}
		if archiveMd != "" {
			markdown = archiveMd
		}
	}

	// The stored HTML gets absolute asset URLs; the stored markdown
	// keeps relative images/ paths, which is what the chat context and
	// the asset mount both expect.
	_, html := h.post.Process(markdown, documentID)
	if err := h.docs.Create(documentID, markdown, html); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store document", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "document_id": documentID})
}

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)

// documentIDFor derives a folder name from the upload's filename stem
// plus a timestamp, so repeated uploads of the same file stay distinct.
func documentIDFor(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = unsafeIDChars.ReplaceAllString(stem, "_")
	if stem == "" || stem == "_" {
		stem = uuid.New().String()[:8]
	}
	return fmt.Sprintf("%s_%d", stem, time.Now().Unix())
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}
