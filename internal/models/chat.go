package models

// Message is a single turn in a conversation transcript. Messages are
// immutable once created; the client appends, never edits.
type Message struct {
	Role        string  `json:"role"` // "user" or "assistant"
	Text        string  `json:"text"`
	Timestamp   float64 `json:"timestamp"`
	DisplayText string  `json:"displayText,omitempty"`
}

// ChatRequest is the payload sent to the chat endpoint. The transcript
// in Messages is the full conversation so far; the server keeps no
// session state between calls.
type ChatRequest struct {
	DocumentID           string    `json:"document_id"`
	Messages             []Message `json:"messages"`
	SourceElementID      string    `json:"source_element_id,omitempty"`
	SourceElementHTML    string    `json:"source_element_html,omitempty"`
	SelectedElementsHTML []string  `json:"selected_elements_html,omitempty"`
	ImageURL             string    `json:"image_url,omitempty"`
}

// AssistantReply is the chat endpoint's response. HTMLText is the
// rendered form of Text with asset paths rewritten.
type AssistantReply struct {
	Role      string  `json:"role"`
	Text      string  `json:"text"`
	HTMLText  string  `json:"htmlText"`
	Timestamp float64 `json:"timestamp"`
}
