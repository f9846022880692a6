package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"diligence-ai-be/pkg/agent/agenterr"
	"diligence-ai-be/pkg/agent/checkpoint"
	"diligence-ai-be/pkg/agent/router"
	"diligence-ai-be/pkg/agent/specialist"
	"diligence-ai-be/pkg/agent/stream"
	"diligence-ai-be/pkg/cache"
	"diligence-ai-be/pkg/llm"
	"diligence-ai-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted fake provider: each ChatStream call consumes the next step.

type step struct {
	tokens     []string
	completion *llm.Completion
	err        error
}

type fakeProvider struct {
	name  string
	steps []step
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeProvider) ChatStream(ctx context.Context, history []llm.Message, tools []llm.ToolDefinition, onToken llm.TokenHandler, options ...llm.Option) (*llm.Completion, error) {
	if f.calls >= len(f.steps) {
		return nil, fmt.Errorf("no scripted step for call %d", f.calls)
	}
	s := f.steps[f.calls]
	f.calls++
	if s.err != nil {
		return nil, s.err
	}
	for _, tok := range s.tokens {
		onToken(tok)
	}
	return s.completion, nil
}

type namedSpecialist struct {
	name    string
	result  *specialist.Result
	invoked int
}

func (s *namedSpecialist) Name() string        { return s.name }
func (s *namedSpecialist) Description() string { return "test capability" }
func (s *namedSpecialist) InputSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
func (s *namedSpecialist) Execute(ctx context.Context, args map[string]interface{}) (*specialist.Result, error) {
	s.invoked++
	return s.result, nil
}

type fixture struct {
	orch         *Orchestrator
	checkpointer *checkpoint.Checkpointer
	providers    map[string]*fakeProvider
}

func newFixture(t *testing.T, catalog *specialist.Catalog, providers map[string]*fakeProvider) *fixture {
	t.Helper()
	modelRouter := router.NewRouter(map[string]bool{"openai": true, "anthropic": true}, nil, nil)
	cp := checkpoint.NewCheckpointer(nil, nil)
	toolCache := cache.New[specialist.Result](cache.NewStore("", false, nil), cache.NamespaceToolResult, nil)
	factory := func(cfg router.ModelConfig) (llm.LLMProvider, error) {
		p, ok := providers[cfg.Provider]
		if !ok {
			return nil, fmt.Errorf("no fake for provider %s", cfg.Provider)
		}
		return p, nil
	}
	orch := NewOrchestrator(modelRouter, cp, catalog, toolCache, factory, 5, nil).
		WithClassifier(func(message, workflowMode string) router.Tier { return router.TierSimple })
	return &fixture{orch: orch, checkpointer: cp, providers: providers}
}

func threadID() checkpoint.ThreadID {
	return checkpoint.Mint(store.ModeChat, "deal-1", "user-1")
}

func collectTurn(t *testing.T, f *fixture, id checkpoint.ThreadID, message string) []stream.Event {
	t.Helper()
	var events []stream.Event
	_ = f.orch.RunTurn(context.Background(), id, message, func(ev stream.Event) {
		events = append(events, ev)
	})
	return events
}

func terminals(events []stream.Event) []stream.Event {
	var out []stream.Event
	for _, ev := range events {
		if ev.IsTerminal() {
			out = append(out, ev)
		}
	}
	return out
}

func TestSuccessfulTurnStreamsTokensThenDone(t *testing.T) {
	providers := map[string]*fakeProvider{
		"openai": {name: "openai", steps: []step{
			{tokens: []string{"The ", "answer ", "is 42."}, completion: &llm.Completion{Content: "The answer is 42."}},
		}},
	}
	f := newFixture(t, specialist.NewCatalog(), providers)

	events := collectTurn(t, f, threadID(), "what is the answer?")

	require.Len(t, terminals(events), 1)
	last := events[len(events)-1]
	assert.Equal(t, stream.EventDone, last.Type)
	assert.Equal(t, "The answer is 42.", last.Content)
	assert.NotEmpty(t, last.MessageID)

	var tokens []string
	for _, ev := range events {
		if ev.Type == stream.EventToken {
			tokens = append(tokens, ev.Content)
		}
	}
	assert.Equal(t, []string{"The ", "answer ", "is 42."}, tokens, "tokens must arrive in emission order")
}

func TestEveryEventCarriesConversationID(t *testing.T) {
	providers := map[string]*fakeProvider{
		"openai": {name: "openai", steps: []step{
			{tokens: []string{"hi"}, completion: &llm.Completion{Content: "hi"}},
		}},
	}
	f := newFixture(t, specialist.NewCatalog(), providers)
	id := threadID()

	events := collectTurn(t, f, id, "hello")

	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, id.ConversationID, ev.ConversationID)
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestProviderFailureRetriesOnFallbackTier(t *testing.T) {
	providers := map[string]*fakeProvider{
		"openai": {name: "openai", steps: []step{
			{err: fmt.Errorf("upstream 500")},
		}},
		// simple falls back to the medium tier, which runs on anthropic
		"anthropic": {name: "anthropic", steps: []step{
			{tokens: []string{"ok"}, completion: &llm.Completion{Content: "ok"}},
		}},
	}
	f := newFixture(t, specialist.NewCatalog(), providers)

	events := collectTurn(t, f, threadID(), "hello")

	require.Len(t, terminals(events), 1)
	assert.Equal(t, stream.EventDone, events[len(events)-1].Type)
	assert.Equal(t, 1, providers["anthropic"].calls)
}

func TestBothProvidersFailingEmitsSingleErrorEvent(t *testing.T) {
	providers := map[string]*fakeProvider{
		"openai":    {name: "openai", steps: []step{{err: fmt.Errorf("down")}}},
		"anthropic": {name: "anthropic", steps: []step{{err: fmt.Errorf("also down")}}},
	}
	f := newFixture(t, specialist.NewCatalog(), providers)

	events := collectTurn(t, f, threadID(), "hello")

	term := terminals(events)
	require.Len(t, term, 1)
	require.Equal(t, stream.EventError, term[0].Type)
	require.NotNil(t, term[0].Error)
	assert.Equal(t, string(agenterr.CodeProvider), term[0].Error.Code)
}

func TestToolInvocationEmitsLifecycleEvents(t *testing.T) {
	research := &namedSpecialist{
		name: "document_research",
		result: &specialist.Result{
			Answer: "found it",
			Sources: []store.Source{
				{ID: "s1", Title: "Contract A", Kind: store.SourceKindDocument},
			},
		},
	}
	providers := map[string]*fakeProvider{
		"openai": {name: "openai", steps: []step{
			{completion: &llm.Completion{ToolCalls: []llm.ToolCall{
				{ID: "t1", Name: "document_research", Arguments: map[string]interface{}{"query": "contract"}},
			}}},
			{tokens: []string{"Based on the contract..."}, completion: &llm.Completion{Content: "Based on the contract..."}},
		}},
	}
	f := newFixture(t, specialist.NewCatalog(research), providers)

	events := collectTurn(t, f, threadID(), "find the contract")

	var types []stream.EventType
	for _, ev := range events {
		if ev.Type != stream.EventToken {
			types = append(types, ev.Type)
		}
	}
	assert.Equal(t, []stream.EventType{
		stream.EventToolStart,
		stream.EventToolEnd,
		stream.EventSourceAdded,
		stream.EventDone,
	}, types)
	assert.Equal(t, 1, research.invoked)

	done := events[len(events)-1]
	require.Len(t, done.Sources, 1)
	assert.Equal(t, "Contract A", done.Sources[0].Title)
}

func TestUnknownCapabilityFailsTurnAfterResolvableSpecialistRan(t *testing.T) {
	known := &namedSpecialist{
		name:   "graph_lookup",
		result: &specialist.Result{Answer: "acme owns beta"},
	}
	providers := map[string]*fakeProvider{
		"openai": {name: "openai", steps: []step{
			{completion: &llm.Completion{ToolCalls: []llm.ToolCall{
				{ID: "t1", Name: "graph_lookup", Arguments: map[string]interface{}{"entity": "acme"}},
				{ID: "t2", Name: "crystal_ball", Arguments: map[string]interface{}{}},
			}}},
		}},
	}
	f := newFixture(t, specialist.NewCatalog(known), providers)

	events := collectTurn(t, f, threadID(), "who owns beta and what is next year's revenue?")

	term := terminals(events)
	require.Len(t, term, 1)
	require.Equal(t, stream.EventError, term[0].Type)
	assert.Equal(t, string(agenterr.CodeUnknownCapability), term[0].Error.Code)

	var sawStart, sawEnd bool
	for _, ev := range events {
		if ev.Tool == "graph_lookup" {
			sawStart = sawStart || ev.Type == stream.EventToolStart
			sawEnd = sawEnd || ev.Type == stream.EventToolEnd
		}
	}
	assert.True(t, sawStart, "resolvable specialist still emits toolStart")
	assert.True(t, sawEnd, "resolvable specialist still emits toolEnd")
}

func TestRepeatedToolCallServedFromCache(t *testing.T) {
	research := &namedSpecialist{
		name:   "document_research",
		result: &specialist.Result{Answer: "cached answer"},
	}
	toolCall := llm.ToolCall{ID: "t1", Name: "document_research", Arguments: map[string]interface{}{"query": "revenue"}}
	providers := map[string]*fakeProvider{
		"openai": {name: "openai", steps: []step{
			{completion: &llm.Completion{ToolCalls: []llm.ToolCall{toolCall}}},
			{completion: &llm.Completion{Content: "first"}},
			{completion: &llm.Completion{ToolCalls: []llm.ToolCall{toolCall}}},
			{completion: &llm.Completion{Content: "second"}},
		}},
	}
	f := newFixture(t, specialist.NewCatalog(research), providers)
	id := threadID()

	collectTurn(t, f, id, "revenue?")
	events := collectTurn(t, f, id, "revenue again?")

	assert.Equal(t, 1, research.invoked, "second identical call must hit the tool-result cache")
	require.NotEmpty(t, events)
	assert.Equal(t, stream.EventDone, events[len(events)-1].Type)
}

func TestSuccessfulTurnPersistsCheckpoint(t *testing.T) {
	providers := map[string]*fakeProvider{
		"openai": {name: "openai", steps: []step{
			{completion: &llm.Completion{Content: "persisted"}},
		}},
	}
	f := newFixture(t, specialist.NewCatalog(), providers)
	id := threadID()

	collectTurn(t, f, id, "remember this")

	cp, err := f.checkpointer.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, cp)
	require.Len(t, cp.Messages, 2)
	assert.Equal(t, "user", cp.Messages[0].Role)
	assert.Equal(t, "remember this", cp.Messages[0].Content)
	assert.Equal(t, "assistant", cp.Messages[1].Role)
	assert.Equal(t, "persisted", cp.Messages[1].Content)
}

func TestInvalidThreadIDIsConfigurationError(t *testing.T) {
	providers := map[string]*fakeProvider{"openai": {name: "openai"}}
	f := newFixture(t, specialist.NewCatalog(), providers)
	bad := checkpoint.New(store.ModeChat, "deal-1", "user-1", "not-a-uuid")

	var events []stream.Event
	err := f.orch.RunTurn(context.Background(), bad, "hi", func(ev stream.Event) {
		events = append(events, ev)
	})

	require.Error(t, err)
	assert.True(t, agenterr.IsCode(err, agenterr.CodeConfiguration))
	require.Len(t, events, 1)
	assert.Equal(t, stream.EventError, events[0].Type)
}

func TestAbandonedStreamStillGetsExactlyOneTerminal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	providers := map[string]*fakeProvider{
		"openai": {name: "openai", steps: []step{
			{tokens: []string{"a", "b", "c"}, completion: &llm.Completion{Content: "abc"}},
		}},
	}
	f := newFixture(t, specialist.NewCatalog(), providers)

	var events []stream.Event
	first := true
	_ = f.orch.RunTurn(ctx, threadID(), "hello", func(ev stream.Event) {
		if first {
			first = false
			cancel() // caller walks away after the first frame
		}
		events = append(events, ev)
	})

	term := terminals(events)
	assert.Len(t, term, 1, "abandoned streams still close with one terminal event")
	var tokenCount int
	for _, ev := range events {
		if ev.Type == stream.EventToken {
			tokenCount++
		}
	}
	assert.Equal(t, 1, tokenCount, "forwarding stops once the caller cancels")
}
