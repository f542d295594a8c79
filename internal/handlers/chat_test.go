package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nbweb-backend/internal/models"
	"nbweb-backend/internal/services"
)

type fakeChatService struct {
	reply models.AssistantReply
	err   error
	seen  *models.ChatRequest
}

func (f *fakeChatService) Handle(ctx context.Context, req models.ChatRequest) (models.AssistantReply, error) {
	f.seen = &req
	return f.reply, f.err
}

func postChat(t *testing.T, svc chatService, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewChatHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "test-req-1")
	w := httptest.NewRecorder()
	h.Chat(w, req)
	return w
}

func TestChat_InvalidJSON(t *testing.T) {
	w := postChat(t, &fakeChatService{}, "{not json")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid error envelope: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR, got %q", resp.Error.Code)
	}
	if resp.Error.RequestID != "test-req-1" {
		t.Errorf("Expected the request id echoed, got %q", resp.Error.RequestID)
	}
}

func TestChat_ValidationErrorsMapTo400(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"empty transcript", services.ErrEmptyConversation},
		{"no user turn", services.ErrNoUserTurn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(t, &fakeChatService{err: tt.err}, `{"document_id":"doc1","messages":[]}`)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", w.Code)
			}
			var resp models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Invalid error envelope: %v", err)
			}
			if resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("Expected VALIDATION_ERROR, got %q", resp.Error.Code)
			}
		})
	}
}

func TestChat_PipelineFailureMapsTo500(t *testing.T) {
	w := postChat(t, &fakeChatService{err: errors.New("disk on fire")}, `{"document_id":"doc1","messages":[{"role":"user","text":"q"}]}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid error envelope: %v", err)
	}
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("Expected INTERNAL_ERROR, got %q", resp.Error.Code)
	}
	// No internal detail leaks to the client.
	if strings.Contains(resp.Error.Message, "disk on fire") {
		t.Errorf("Expected internal detail hidden, got %q", resp.Error.Message)
	}
}

func TestChat_Success(t *testing.T) {
	svc := &fakeChatService{reply: models.AssistantReply{
		Role:      "assistant",
		Text:      "the answer",
		HTMLText:  "<p>the answer</p>",
		Timestamp: 1234.5,
	}}
	w := postChat(t, svc, `{"document_id":"doc1","messages":[{"role":"user","text":"what is it?"}],"image_url":"https://example.com/a.png"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var reply models.AssistantReply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("Invalid reply body: %v", err)
	}
	if reply.Text != "the answer" || reply.HTMLText != "<p>the answer</p>" {
		t.Errorf("Reply mismatch: %+v", reply)
	}

	if svc.seen == nil {
		t.Fatal("Expected the request forwarded to the service")
	}
	if svc.seen.DocumentID != "doc1" || svc.seen.ImageURL != "https://example.com/a.png" {
		t.Errorf("Request decode mismatch: %+v", svc.seen)
	}
	if len(svc.seen.Messages) != 1 || svc.seen.Messages[0].Text != "what is it?" {
		t.Errorf("Messages decode mismatch: %+v", svc.seen.Messages)
	}
}
