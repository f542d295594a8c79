package services

import (
	"errors"
	"fmt"

	"nbweb-backend/internal/models"
)

// Model-side conversation roles. Client transcripts say "assistant";
// the model API says "model"; any other client role is treated as
// "user".
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one replayed history entry in model terms.
type Turn struct {
	Role string
	Text string
}

var (
	ErrEmptyConversation = errors.New("conversation transcript is empty")
	ErrNoUserTurn        = errors.New("no user message in conversation")
)

// ReplayOptions carries the incremental context injected while
// reconstructing a transcript.
type ReplayOptions struct {
	// Grounding is the full grounding context, consumed only on the
	// first turn.
	Grounding string

	// FreshFocus is newly focused excerpt text (plus any fresh image
	// description) for a follow-up turn; it is prepended to the active
	// prompt so the user can redirect attention without resending the
	// document.
	FreshFocus string

	// MaxReplay bounds how many prior messages a follow-up turn
	// replays; zero means unbounded.
	MaxReplay int
}

const truncationNote = "(Earlier turns of this conversation were omitted to keep the replay bounded.)"

// Reconstruct rebuilds model-ready conversation state from a
// client-supplied transcript. A single-message transcript is a first
// turn: empty history, full grounding folded into the prompt. Longer
// transcripts replay everything but the final message as history and
// use the final message as the active prompt.
func Reconstruct(messages []models.Message, opts ReplayOptions) (history []Turn, prompt string, err error) {
	if len(messages) == 0 {
		return nil, "", ErrEmptyConversation
	}

	hasUser := false
	for _, m := range messages {
		if m.Role == "user" {
			hasUser = true
			break
		}
	}
	if !hasUser {
		return nil, "", ErrNoUserTurn
	}

	if len(messages) == 1 {
		prompt = fmt.Sprintf("%s\n\nGiven the material above, answer this question: %s", opts.Grounding, messages[0].Text)
		return nil, prompt, nil
	}

	for _, m := range messages[:len(messages)-1] {
		role := RoleUser
		if m.Role == "assistant" {
			role = RoleModel
		}
		history = append(history, Turn{Role: role, Text: m.Text})
	}

	if opts.MaxReplay > 0 && len(history) > opts.MaxReplay {
		history = history[len(history)-opts.MaxReplay:]
		// Replay must open on a user turn for the session API, so the
		// cut lands on a user/model boundary.
		for len(history) > 0 && history[0].Role == RoleModel {
			history = history[1:]
		}
		if len(history) > 0 {
			history[0].Text = truncationNote + "\n\n" + history[0].Text
		}
	}

	prompt = messages[len(messages)-1].Text
	if opts.FreshFocus != "" {
		prompt = fmt.Sprintf("The user is now focusing on the following content:\n%s\n\n%s", opts.FreshFocus, prompt)
	}

	return history, prompt, nil
}
