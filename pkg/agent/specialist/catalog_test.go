package specialist

import (
	"context"
	"testing"

	"diligence-ai-be/pkg/agent/agenterr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSpecialist struct {
	name   string
	result *Result
}

func (s *stubSpecialist) Name() string        { return s.name }
func (s *stubSpecialist) Description() string { return "stub" }
func (s *stubSpecialist) InputSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
func (s *stubSpecialist) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	return s.result, nil
}

func TestDispatchByName(t *testing.T) {
	want := &Result{Answer: "42"}
	catalog := NewCatalog(&stubSpecialist{name: "alpha", result: want})

	got, err := catalog.Dispatch(context.Background(), "alpha", nil)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDispatchUnknownCapabilityFailsTheTurn(t *testing.T) {
	catalog := NewCatalog(&stubSpecialist{name: "alpha"})

	got, err := catalog.Dispatch(context.Background(), "nonexistent", nil)

	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, agenterr.IsCode(err, agenterr.CodeUnknownCapability))
}

func TestToolDefinitionsPreserveRegistrationOrder(t *testing.T) {
	catalog := NewCatalog(
		&stubSpecialist{name: "beta"},
		&stubSpecialist{name: "alpha"},
		&stubSpecialist{name: "gamma"},
	)

	defs := catalog.ToolDefinitions()

	require.Len(t, defs, 3)
	assert.Equal(t, "beta", defs[0].Name)
	assert.Equal(t, "alpha", defs[1].Name)
	assert.Equal(t, "gamma", defs[2].Name)
}

func TestDuplicateRegistrationKeepsFirst(t *testing.T) {
	first := &Result{Answer: "first"}
	catalog := NewCatalog(
		&stubSpecialist{name: "alpha", result: first},
		&stubSpecialist{name: "alpha", result: &Result{Answer: "second"}},
	)

	got, err := catalog.Dispatch(context.Background(), "alpha", nil)

	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Len(t, catalog.Names(), 1)
}
