package llm

import (
	"context"
	"time"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system", "tool"
	Content string

	// ToolCalls is set on assistant messages that requested tool execution.
	ToolCalls []ToolCall
	// ToolCallID links a "tool" role message back to the call it answers.
	ToolCallID string
	// Name is the tool name on "tool" role messages.
	Name string
}

// ToolDefinition describes a callable tool in JSON-schema form.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolCall is a model's request to run a named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// Completion is the terminal result of one model invocation.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// TokenHandler receives partial output tokens the moment they arrive.
type TokenHandler func(token string)

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	Timeout     time.Duration
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(max int) Option {
	return func(o *Options) {
		o.MaxTokens = max
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Name returns the provider identifier ("anthropic", "openai", "ollama")
	Name() string

	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history with optional tool definitions and
	// streams partial tokens through onToken as they arrive. The returned
	// Completion carries the full content plus any tool calls the model made.
	ChatStream(ctx context.Context, history []Message, tools []ToolDefinition, onToken TokenHandler, options ...Option) (*Completion, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

func BuildOptions(opts []Option) *Options {
	options := &Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
