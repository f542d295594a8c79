package router

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"nbweb-backend/internal/handlers"
	"nbweb-backend/internal/middleware"
)

func New(
	chatHandler *handlers.ChatHandler,
	documentHandler *handlers.DocumentHandler,
	nodeHandler *handlers.NodeHandler,
	chatStoreHandler *handlers.ChatStoreHandler,
	docsDir string,
	webDir string,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Frontend index + static assets
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		indexPath := filepath.Join(webDir, "index.html")
		if _, err := os.Stat(indexPath); err != nil {
			http.Error(w, "index.html missing", http.StatusInternalServerError)
			return
		}
		http.ServeFile(w, r, indexPath)
	})
	r.Handle("/web/*", http.StripPrefix("/web/", http.FileServer(http.Dir(webDir))))

	r.Route("/api", func(r chi.Router) {
		// Per-document asset folders (extracted images)
		r.Handle("/documents_assets/*", http.StripPrefix("/api/documents_assets/", http.FileServer(http.Dir(docsDir))))

		// ──── Documents ────
		r.Get("/documents", documentHandler.List)
		r.Get("/document/{document_id}", documentHandler.Get)
		r.Post("/upload", documentHandler.Upload)
		r.Post("/upload-pdf", documentHandler.UploadPDF)

		// ──── Chat ────
		r.Post("/chat", chatHandler.Chat)

		// ──── Knowledge nodes ────
		r.Route("/nodes", func(r chi.Router) {
			r.Get("/{document_id}", nodeHandler.List)
			r.Post("/{document_id}", nodeHandler.Upsert)
			r.Delete("/{document_id}/{node_id}", nodeHandler.Delete)
		})

		// ──── Saved chat sessions ────
		r.Route("/chats", func(r chi.Router) {
			r.Get("/{document_id}", chatStoreHandler.List)
			r.Post("/{document_id}", chatStoreHandler.Save)
			r.Delete("/{document_id}/{chat_id}", chatStoreHandler.Delete)
		})
	})

	return r
}
