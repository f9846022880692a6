package specialist

import (
	"context"

	"diligence-ai-be/pkg/agent/agenterr"
	"diligence-ai-be/pkg/llm"
)

// Catalog is the fixed set of capabilities offered to the supervisor model.
// Dispatch is purely mechanical name lookup; the catalog holds no opinion
// about when a capability is appropriate.
type Catalog struct {
	byName map[string]Specialist
	order  []string
}

func NewCatalog(specialists ...Specialist) *Catalog {
	c := &Catalog{byName: make(map[string]Specialist, len(specialists))}
	for _, s := range specialists {
		if _, exists := c.byName[s.Name()]; exists {
			continue
		}
		c.byName[s.Name()] = s
		c.order = append(c.order, s.Name())
	}
	return c
}

// Dispatch executes the named capability. An unknown name fails the turn.
func (c *Catalog) Dispatch(ctx context.Context, name string, args map[string]interface{}) (*Result, error) {
	s, ok := c.byName[name]
	if !ok {
		return nil, agenterr.UnknownCapability(name)
	}
	return s.Execute(ctx, args)
}

// ToolDefinitions renders the catalog in the shape model providers expect.
func (c *Catalog) ToolDefinitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(c.order))
	for _, name := range c.order {
		s := c.byName[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        s.Name(),
			Description: s.Description(),
			Parameters:  s.InputSchema(),
		})
	}
	return defs
}

// Names returns the capability names in registration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
