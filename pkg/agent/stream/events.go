package stream

import (
	"time"

	"diligence-ai-be/pkg/agent/agenterr"
	"diligence-ai-be/pkg/store"
)

// EventType discriminates the wire shape of a stream event.
type EventType string

const (
	EventToken       EventType = "token"
	EventToolStart   EventType = "toolStart"
	EventToolEnd     EventType = "toolEnd"
	EventSourceAdded EventType = "sourceAdded"
	EventError       EventType = "error"
	EventDone        EventType = "done"
)

// Event is one frame of a turn's output stream. Every frame carries the
// conversation id and timestamp so clients can correlate frames with a
// resumable thread; the remaining fields are populated per type.
type Event struct {
	Type           EventType      `json:"type"`
	ConversationID string         `json:"conversationId"`
	Timestamp      time.Time      `json:"timestamp"`
	Content        string         `json:"content,omitempty"`
	Node           string         `json:"node,omitempty"`
	Tool           string         `json:"tool,omitempty"`
	Input          any            `json:"input,omitempty"`
	Output         any            `json:"output,omitempty"`
	Source         *store.Source  `json:"source,omitempty"`
	Error          *ErrorBody     `json:"error,omitempty"`
	MessageID      string         `json:"messageId,omitempty"`
	Sources        []store.Source `json:"sources,omitempty"`
}

// ErrorBody is the user-presentable error payload of a terminal error frame.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IsTerminal reports whether the event closes the stream.
func (e Event) IsTerminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

func base(t EventType, conversationID string) Event {
	return Event{Type: t, ConversationID: conversationID, Timestamp: time.Now()}
}

// Token frames one model-generated text fragment. Node names the producing
// pipeline stage ("supervisor" for direct generation, the specialist name
// while a delegated answer streams back).
func Token(conversationID, content, node string) Event {
	e := base(EventToken, conversationID)
	e.Content = content
	e.Node = node
	return e
}

func ToolStart(conversationID, tool string, input any) Event {
	e := base(EventToolStart, conversationID)
	e.Tool = tool
	e.Input = input
	return e
}

func ToolEnd(conversationID, tool string, output any) Event {
	e := base(EventToolEnd, conversationID)
	e.Tool = tool
	e.Output = output
	return e
}

func SourceAdded(conversationID string, src store.Source) Event {
	e := base(EventSourceAdded, conversationID)
	e.Source = &src
	return e
}

// Done closes a successful turn with the accumulated answer and citations.
func Done(conversationID, messageID, content string, sources []store.Source) Event {
	e := base(EventDone, conversationID)
	e.MessageID = messageID
	e.Content = content
	e.Sources = sources
	return e
}

// ErrorEvent closes a failed turn. The code comes from the runtime error
// taxonomy so clients can branch on it without parsing messages.
func ErrorEvent(conversationID string, err error) Event {
	e := base(EventError, conversationID)
	classified := agenterr.Classify(err)
	e.Error = &ErrorBody{Code: string(classified.Code), Message: classified.Message}
	return e
}
