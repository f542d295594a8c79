package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"nbweb-backend/internal/models"
)

// DocumentSource exposes the stored markdown the orchestrator grounds
// answers in.
type DocumentSource interface {
	Markdown(documentID string) (string, error)
}

// ChatService runs the chat pipeline for one request: validate, enrich
// with an image description, build grounding, reconstruct conversation
// state, call the model, post-process. Stateless between requests.
type ChatService struct {
	model     ModelClient
	docs      DocumentSource
	describer *ImageDescriber
	builder   *ContextBuilder
	post      *PostProcessor
	maxReplay int
}

func NewChatService(model ModelClient, docs DocumentSource, describer *ImageDescriber, maxReplay int) *ChatService {
	return &ChatService{
		model:     model,
		docs:      docs,
		describer: describer,
		builder:   NewContextBuilder(),
		post:      NewPostProcessor(),
		maxReplay: maxReplay,
	}
}

// Handle answers one chat request. Client input errors (empty
// transcript, no user turn) come back as errors for the handler to map
// to 4xx; a failed model call comes back as a normal reply whose text
// reports the failure, so the client UI needs no second rendering path.
func (s *ChatService) Handle(ctx context.Context, req models.ChatRequest) (models.AssistantReply, error) {
	if len(req.Messages) == 0 {
		return models.AssistantReply{}, ErrEmptyConversation
	}

	var lastUser *models.Message
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = &req.Messages[i]
			break
		}
	}
	if lastUser == nil {
		return models.AssistantReply{}, ErrNoUserTurn
	}

	// Degraded mode: no credential, deterministic stub, no outbound
	// calls.
	if !s.model.Configured() {
		stub := fmt.Sprintf("[stub] I understand your question is: '%s'. Set GEMINI_API_KEY to enable AI answers.", lastUser.Text)
		return s.reply(stub, req.DocumentID), nil
	}

	var image Source
	if req.ImageURL != "" {
		image = s.describer.Describe(ctx, req.ImageURL)
	}

	excerpts := req.SelectedElementsHTML
	if len(excerpts) == 0 && req.SourceElementHTML != "" {
		excerpts = []string{req.SourceElementHTML}
	}

	opts := ReplayOptions{MaxReplay: s.maxReplay}
	if len(req.Messages) == 1 {
		opts.Grounding = s.builder.Build(s.loadDocument(req.DocumentID), excerpts, image)
	} else {
		opts.FreshFocus = s.freshFocus(excerpts, image)
	}

	history, prompt, err := Reconstruct(req.Messages, opts)
	if err != nil {
		return models.AssistantReply{}, err
	}

	var answer string
	if len(history) == 0 {
		answer, err = s.model.GenerateText(ctx, prompt)
	} else {
		answer, err = s.model.Chat(ctx, history, prompt)
	}
	if err != nil {
		log.Printf("ERROR: model call failed for document %q: %v", req.DocumentID, err)
		answer = fmt.Sprintf("The AI service call failed: %v", err)
	}

	return s.reply(answer, req.DocumentID), nil
}

func (s *ChatService) loadDocument(documentID string) Source {
	text, err := s.docs.Markdown(documentID)
	if err != nil {
		log.Printf("WARNING: no markdown context for document %q: %v", documentID, err)
		return UnavailableSource("document markdown not found")
	}
	return TextSource(text)
}

// freshFocus assembles the incremental context for a follow-up turn:
// newly selected excerpts plus, when the turn carries an image, its
// fresh description. Grounding itself is never re-sent after turn one.
func (s *ChatService) freshFocus(excerpts []string, image Source) string {
	var parts []string
	if !image.Empty() {
		parts = append(parts, "[Image Analysis]\n"+renderSource(image, "image analysis"))
	}
	if focused := s.builder.ConvertExcerpts(excerpts); focused != "" {
		parts = append(parts, focused)
	}
	return strings.Join(parts, "\n")
}

func (s *ChatService) reply(raw, documentID string) models.AssistantReply {
	text, htmlText := s.post.Process(raw, documentID)
	return models.AssistantReply{
		Role:      "assistant",
		Text:      text,
		HTMLText:  htmlText,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	}
}
