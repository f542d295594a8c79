package models

// CanvasPosition locates a node on the annotation canvas.
type CanvasPosition struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ZoomLevel float64 `json:"zoom_level"`
}

// KnowledgeNode is an annotation thread anchored to a document element.
type KnowledgeNode struct {
	NodeID            string         `json:"node_id"`
	DocumentID        string         `json:"document_id"`
	SourceElementID   string         `json:"source_element_id"`
	CanvasPosition    CanvasPosition `json:"canvas_position"`
	ConversationLog   []Message      `json:"conversation_log"`
	UserAnnotations   *string        `json:"user_annotations,omitempty"`
	SourceElementHTML *string        `json:"source_element_html,omitempty"`
}

// ChatSession is a named, persisted conversation for a document.
type ChatSession struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
}

// DocumentInfo describes one uploaded document.
type DocumentInfo struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
}
