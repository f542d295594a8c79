package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Data layout
	DataDir string
	WebDir  string

	// Gemini AI. An empty key is a supported configuration: the chat
	// endpoint answers with a deterministic stub instead of calling out.
	GeminiAPIKey string
	GeminiModel  string

	// PDF conversion service. Empty means local text extraction only.
	ConverterURL      string
	ConverterMaxPages int
	ConverterLanguage string

	// Chat replay bound: follow-up turns replay at most this many
	// prior messages to the model.
	MaxReplayMessages int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		DataDir:           getEnvOrDefault("DATA_DIR", "./data"),
		WebDir:            getEnvOrDefault("WEB_DIR", "./web"),
		GeminiAPIKey:      getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		ConverterURL:      getEnvOrDefault("CONVERTER_URL", ""),
		ConverterMaxPages: getEnvAsIntOrDefault("CONVERTER_MAX_PAGES", 200),
		ConverterLanguage: getEnvOrDefault("CONVERTER_LANGUAGE", "en"),
		MaxReplayMessages: getEnvAsIntOrDefault("MAX_REPLAY_MESSAGES", 40),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "*"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
