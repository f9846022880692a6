package store

// Passage represents a retrieved evidence passage for the agent runtime
type Passage struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	Title      string                 `json:"title"`
	Content    string                 `json:"content"`
	Score      float32                `json:"score"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// Source is a citation attached to answers and stream events so clients can
// trace a statement back to its evidence.
type Source struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Kind      string  `json:"kind"` // "document" | "graph" | "analysis"
	Reference string  `json:"reference,omitempty"`
	Score     float32 `json:"score,omitempty"`
}

const (
	SourceKindDocument = "document"
	SourceKindGraph    = "graph"
	SourceKindAnalysis = "analysis"
)

// Workflow modes carried in the first ThreadId segment. Each maps to one of
// the platform's chat-driven authoring surfaces.
const (
	ModeChat         = "chat"
	ModeChecklist    = "checklist"
	ModeQuestions    = "questions"
	ModePresentation = "presentation"
)
