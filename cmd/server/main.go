package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nbweb-backend/internal/config"
	"nbweb-backend/internal/handlers"
	"nbweb-backend/internal/router"
	"nbweb-backend/internal/services"
	"nbweb-backend/internal/store"
)

func main() {
	log.Println("🚀 Starting nbweb backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Stores ────
	documentStore, err := store.NewDocumentStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("✗ Document store initialization failed: %v", err)
	}
	nodeStore, err := store.NewNodeStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("✗ Node store initialization failed: %v", err)
	}
	chatStore, err := store.NewChatStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("✗ Chat store initialization failed: %v", err)
	}
	log.Println("✓ JSON stores ready")

	// ──── Step 3: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	if geminiService.Configured() {
		log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)
	} else {
		log.Println("! GEMINI_API_KEY not set, chat runs in stub mode")
	}

	// ──── Step 4: Initialize Services ────
	describer := services.NewImageDescriber(geminiService, documentStore, os.ReadFile)
	chatService := services.NewChatService(geminiService, documentStore, describer, cfg.MaxReplayMessages)
	converter := services.NewConverter(cfg.ConverterURL)
	if cfg.ConverterURL == "" {
		log.Println("! CONVERTER_URL not set, PDF uploads use local text extraction")
	}

	// ──── Step 5: Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(chatService)
	documentHandler := handlers.NewDocumentHandler(documentStore, converter, cfg.ConverterMaxPages, cfg.ConverterLanguage)
	nodeHandler := handlers.NewNodeHandler(nodeStore)
	chatStoreHandler := handlers.NewChatStoreHandler(chatStore)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		chatHandler,
		documentHandler,
		nodeHandler,
		chatStoreHandler,
		documentStore.Dir(),
		cfg.WebDir,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ nbweb backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
