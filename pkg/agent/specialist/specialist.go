package specialist

import (
	"context"

	"diligence-ai-be/pkg/store"
)

// Result is the uniform return shape of every specialist so the supervisor
// can merge results without knowing which capability produced them.
type Result struct {
	Answer     string                 `json:"answer"`
	Sources    []store.Source         `json:"sources"`
	Confidence float64                `json:"confidence,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Specialist is a named capability the supervisor model can delegate to.
// The catalog exposes each one as a callable tool; the model decides when
// to invoke it and with what arguments.
type Specialist interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) (*Result, error)
}

// ArgScopeID is injected into every invocation's arguments by the caller;
// specialists read it to stay inside the conversation's data room.
const ArgScopeID = "scopeId"

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
