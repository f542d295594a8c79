package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ModelClient is the slice of the language-model API the chat pipeline
// consumes: a configuration probe, single-shot text generation, a
// vision call, and a stateful multi-turn call.
type ModelClient interface {
	Configured() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
	DescribeImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error)
	Chat(ctx context.Context, history []Turn, prompt string) (string, error)
}

// GeminiService wraps the Gemini client. With no API key it stays in a
// detectable unconfigured state instead of failing startup; callers
// check Configured and fall back to stub replies.
type GeminiService struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiService(ctx context.Context, apiKey, modelName string) (*GeminiService, error) {
	if apiKey == "" {
		return &GeminiService{}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	return &GeminiService{client: client, model: model}, nil
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *GeminiService) Configured() bool {
	return s.client != nil
}

func (s *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("gemini client is not configured")
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return extractText(resp), nil
}

// DescribeImage sends image bytes plus an analysis instruction in a
// single vision call.
func (s *GeminiService) DescribeImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("gemini client is not configured")
	}

	format := strings.TrimPrefix(mimeType, "image/")
	resp, err := s.model.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return extractText(resp), nil
}

// Chat replays a reconstructed history into a fresh session and sends
// the active prompt.
func (s *GeminiService) Chat(ctx context.Context, history []Turn, prompt string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("gemini client is not configured")
	}

	cs := s.model.StartChat()
	for _, t := range history {
		cs.History = append(cs.History, &genai.Content{
			Role:  t.Role,
			Parts: []genai.Part{genai.Text(t.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return extractText(resp), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
