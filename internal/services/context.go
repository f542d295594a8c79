package services

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Source is one piece of grounding material. Reason is set when the
// material could not be fetched; prompt assembly then renders a
// placeholder line instead of the text, so a missing document or image
// degrades the answer without aborting the request.
type Source struct {
	Text   string
	Reason string
}

func TextSource(text string) Source {
	return Source{Text: text}
}

func UnavailableSource(reason string) Source {
	return Source{Reason: reason}
}

func (s Source) Available() bool {
	return s.Reason == ""
}

// Empty reports a zero Source, meaning the material was never requested.
func (s Source) Empty() bool {
	return s.Text == "" && s.Reason == ""
}

const contextInstructions = "You are an education and knowledge assistant, skilled at parsing document content and answering questions in context.\n" +
	"I will provide the document's full markdown under [Full Document] as background material, and possibly one or more excerpts the user is currently looking at under [Focused Content].\n" +
	"Answer primarily from the [Focused Content] when it is present, drawing on [Full Document] for surrounding context. If the question involves several excerpts, combine them. When an [Image Analysis] section is present, treat it as the authoritative description of the image under discussion. Show your reasoning step by step when a question needs derivation or analysis."

// ContextBuilder assembles the grounding context injected into a
// conversation's first turn. Pure with respect to its inputs: fetching
// the document and describing the image happen upstream.
type ContextBuilder struct {
	conv *md.Converter
}

func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{conv: newExcerptConverter()}
}

// ConvertExcerpts converts each focused HTML fragment independently
// and joins them under numbered separators, preserving order so
// questions like "compare excerpt 2 and 3" stay answerable.
func (b *ContextBuilder) ConvertExcerpts(fragments []string) string {
	if len(fragments) == 0 {
		return ""
	}

	parts := make([]string, 0, len(fragments))
	for i, fragment := range fragments {
		parts = append(parts, fmt.Sprintf("--- Selected excerpt %d ---\n%s", i+1, htmlToMarkdown(b.conv, fragment)))
	}
	return strings.Join(parts, "\n")
}

// Build produces the grounding context string. Section order is fixed:
// instructions, then image analysis when an image was supplied, then
// the full document, then focused excerpts. An unavailable source
// keeps its section with a placeholder line.
func (b *ContextBuilder) Build(document Source, excerptsHTML []string, image Source) string {
	parts := []string{contextInstructions, "---"}

	if !image.Empty() {
		parts = append(parts, "[Image Analysis]", renderSource(image, "image analysis"))
	}

	parts = append(parts, "[Full Document]", renderSource(document, "full document context"))

	if focused := b.ConvertExcerpts(excerptsHTML); focused != "" {
		parts = append(parts, "---", "[Focused Content]", focused)
	}

	return strings.Join(parts, "\n")
}

func renderSource(s Source, what string) string {
	if !s.Available() {
		return fmt.Sprintf("[%s unavailable: %s]", what, s.Reason)
	}
	return s.Text
}
