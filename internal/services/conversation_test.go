package services

import (
	"errors"
	"strings"
	"testing"

	"nbweb-backend/internal/models"
)

func TestReconstruct_EmptyTranscript(t *testing.T) {
	_, _, err := Reconstruct(nil, ReplayOptions{})
	if !errors.Is(err, ErrEmptyConversation) {
		t.Fatalf("Expected ErrEmptyConversation, got %v", err)
	}
}

func TestReconstruct_NoUserTurn(t *testing.T) {
	messages := []models.Message{
		{Role: "assistant", Text: "hello"},
		{Role: "assistant", Text: "still here"},
	}

	_, _, err := Reconstruct(messages, ReplayOptions{})
	if !errors.Is(err, ErrNoUserTurn) {
		t.Fatalf("Expected ErrNoUserTurn, got %v", err)
	}
}

func TestReconstruct_FirstTurn(t *testing.T) {
	grounding := "SYSTEM INSTRUCTIONS\n[Full Document]\nThe quick brown fox."
	messages := []models.Message{{Role: "user", Text: "What animal appears?"}}

	history, prompt, err := Reconstruct(messages, ReplayOptions{Grounding: grounding})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(history) != 0 {
		t.Errorf("Expected empty history on first turn, got %d entries", len(history))
	}
	if !strings.Contains(prompt, grounding) {
		t.Error("Expected the full grounding context verbatim in the active prompt")
	}
	if !strings.Contains(prompt, "What animal appears?") {
		t.Error("Expected the user question in the active prompt")
	}
}

func TestReconstruct_FollowUp(t *testing.T) {
	messages := []models.Message{
		{Role: "user", Text: "first question"},
		{Role: "assistant", Text: "first answer"},
		{Role: "user", Text: "second question"},
	}

	history, prompt, err := Reconstruct(messages, ReplayOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(history) != len(messages)-1 {
		t.Fatalf("Expected history length %d, got %d", len(messages)-1, len(history))
	}
	if history[0].Role != RoleUser || history[1].Role != RoleModel {
		t.Errorf("Expected roles [user model], got [%s %s]", history[0].Role, history[1].Role)
	}
	if prompt != "second question" {
		t.Errorf("Expected active prompt to be the last message, got %q", prompt)
	}
	for _, turn := range history {
		if turn.Text == "second question" {
			t.Error("The active prompt must not be duplicated in the replay history")
		}
	}
}

func TestReconstruct_FreshFocusPrefix(t *testing.T) {
	messages := []models.Message{
		{Role: "user", Text: "first"},
		{Role: "assistant", Text: "answer"},
		{Role: "user", Text: "and this part?"},
	}

	_, prompt, err := Reconstruct(messages, ReplayOptions{FreshFocus: "--- Selected excerpt 1 ---\nnew excerpt"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(prompt, "new excerpt") {
		t.Error("Expected fresh focus text in the active prompt")
	}
	if !strings.HasSuffix(prompt, "and this part?") {
		t.Errorf("Expected the user question at the end of the prompt, got %q", prompt)
	}
}

func TestReconstruct_BoundedReplay(t *testing.T) {
	var messages []models.Message
	for i := 0; i < 11; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		messages = append(messages, models.Message{Role: role, Text: "turn"})
	}

	history, _, err := Reconstruct(messages, ReplayOptions{MaxReplay: 4})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(history) > 4 {
		t.Fatalf("Expected at most 4 replayed turns, got %d", len(history))
	}
	if history[0].Role != RoleUser {
		t.Errorf("Expected truncated replay to open on a user turn, got %q", history[0].Role)
	}
	if !strings.HasPrefix(history[0].Text, truncationNote) {
		t.Error("Expected the omission note at the head of a truncated replay")
	}
}
