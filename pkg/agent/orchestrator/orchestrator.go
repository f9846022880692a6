package orchestrator

import (
	"context"
	"fmt"
	"time"

	"diligence-ai-be/internal/pkg/logger"
	"diligence-ai-be/pkg/agent/agenterr"
	"diligence-ai-be/pkg/agent/checkpoint"
	"diligence-ai-be/pkg/agent/classifier"
	"diligence-ai-be/pkg/agent/router"
	"diligence-ai-be/pkg/agent/specialist"
	"diligence-ai-be/pkg/agent/stream"
	"diligence-ai-be/pkg/cache"
	"diligence-ai-be/pkg/llm"
	"diligence-ai-be/pkg/store"

	"github.com/google/uuid"
)

const supervisorNode = "supervisor"

const supervisorSystemPrompt = `You are a due-diligence assistant for deal teams.
Answer from the data room via your tools; cite sources. Delegate document
questions, financial analysis, graph lookups and risk reviews to the matching
tool instead of answering from memory. Be precise and concise.`

// ProviderFactory builds a model client for a resolved configuration.
// Injected so tests can substitute deterministic fakes.
type ProviderFactory func(cfg router.ModelConfig) (llm.LLMProvider, error)

// Classifier maps an inbound message to a complexity tier.
type Classifier func(message, workflowMode string) router.Tier

// Orchestrator executes one conversational turn end to end: tier selection,
// model invocation with delegation tools, streaming, checkpoint persistence.
// Exactly one terminal event (done or error) closes every invocation.
type Orchestrator struct {
	router        *router.Router
	checkpointer  *checkpoint.Checkpointer
	catalog       *specialist.Catalog
	toolCache     *cache.DomainCache[specialist.Result]
	providers     ProviderFactory
	classify      Classifier
	maxToolRounds int
	logger        logger.ILogger
}

func NewOrchestrator(
	modelRouter *router.Router,
	checkpointer *checkpoint.Checkpointer,
	catalog *specialist.Catalog,
	toolCache *cache.DomainCache[specialist.Result],
	providers ProviderFactory,
	maxToolRounds int,
	log logger.ILogger,
) *Orchestrator {
	if maxToolRounds <= 0 {
		maxToolRounds = 5
	}
	return &Orchestrator{
		router:        modelRouter,
		checkpointer:  checkpointer,
		catalog:       catalog,
		toolCache:     toolCache,
		providers:     providers,
		classify:      classifier.Classify,
		maxToolRounds: maxToolRounds,
		logger:        log,
	}
}

// WithClassifier overrides the tier classifier.
func (o *Orchestrator) WithClassifier(c Classifier) *Orchestrator {
	o.classify = c
	return o
}

// emitter serializes terminal-event bookkeeping for one turn. After the
// caller abandons the stream, non-terminal events are dropped; the single
// terminal event is still produced so the invocation always closes.
type emitter struct {
	ctx      context.Context
	send     func(stream.Event)
	terminal bool
}

func (e *emitter) event(ev stream.Event) {
	if e.terminal {
		return
	}
	if ev.IsTerminal() {
		e.terminal = true
		e.send(ev)
		return
	}
	if e.ctx.Err() != nil {
		return
	}
	e.send(ev)
}

// RunTurn executes one turn and pushes its events to send. It never returns
// an error after streaming starts; every failure becomes the terminal error
// event. Only a configuration problem detected before the first model call
// is also returned to the caller.
func (o *Orchestrator) RunTurn(ctx context.Context, id checkpoint.ThreadID, userMessage string, send func(stream.Event)) error {
	em := &emitter{ctx: ctx, send: send}
	conversationID := id.ConversationID

	defer func() {
		if r := recover(); r != nil {
			o.logError("Orchestrator", "panic during turn", map[string]interface{}{
				"thread": id.String(),
				"panic":  fmt.Sprint(r),
			})
			em.event(stream.ErrorEvent(conversationID, agenterr.Streaming(fmt.Errorf("panic: %v", r))))
		} else if !em.terminal {
			// A turn must never end without a terminal frame.
			em.event(stream.ErrorEvent(conversationID, agenterr.Streaming(fmt.Errorf("turn ended without terminal event"))))
		}
	}()

	if err := id.Validate(); err != nil {
		cfgErr := agenterr.Configuration(err.Error())
		em.event(stream.ErrorEvent(conversationID, cfgErr))
		return cfgErr
	}

	tier := o.classify(userMessage, id.WorkflowMode)
	cfg, err := o.router.Resolve(tier)
	if err != nil {
		em.event(stream.ErrorEvent(conversationID, err))
		return err
	}

	// A failed checkpoint load degrades to a fresh thread; the turn proceeds.
	prior, err := o.checkpointer.Get(ctx, id)
	if err != nil {
		o.logWarn("Orchestrator", "checkpoint load failed, starting fresh", map[string]interface{}{
			"thread": id.String(),
			"error":  err.Error(),
		})
		prior = nil
	}

	history := []llm.Message{{Role: "system", Content: supervisorSystemPrompt}}
	var toolRecords []checkpoint.ToolRecord
	if prior != nil {
		history = append(history, prior.Messages...)
		toolRecords = append(toolRecords, prior.ToolResults...)
	}
	history = append(history, llm.Message{Role: "user", Content: userMessage})

	content, sources, newRecords, err := o.generate(ctx, em, conversationID, id, tier, cfg, history)
	if err != nil {
		em.event(stream.ErrorEvent(conversationID, err))
		return nil
	}
	toolRecords = append(toolRecords, newRecords...)

	messageID := uuid.NewString()
	snapshot := &checkpoint.Checkpoint{
		Messages:    append(historyWithoutSystem(history), llm.Message{Role: "assistant", Content: content}),
		ToolResults: toolRecords,
	}
	// Persistence failures degrade; the answer already streamed.
	if err := o.checkpointer.Put(ctx, id, snapshot); err != nil {
		o.logWarn("Orchestrator", "checkpoint persist failed", map[string]interface{}{
			"thread": id.String(),
			"error":  err.Error(),
		})
	}

	em.event(stream.Done(conversationID, messageID, content, sources))
	return nil
}

func historyWithoutSystem(history []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.Role == "system" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// generate runs the model/tool loop for one turn, retrying once on the
// tier's fallback config when the primary provider fails.
func (o *Orchestrator) generate(
	ctx context.Context,
	em *emitter,
	conversationID string,
	id checkpoint.ThreadID,
	tier router.Tier,
	cfg router.ModelConfig,
	history []llm.Message,
) (string, []store.Source, []checkpoint.ToolRecord, error) {
	content, sources, records, err := o.generateWith(ctx, em, conversationID, id, cfg, history)
	if err == nil || !agenterr.IsCode(err, agenterr.CodeProvider) {
		return content, sources, records, err
	}

	fallbackCfg, fbErr := o.router.FallbackFor(tier)
	if fbErr != nil {
		return "", nil, nil, err
	}
	o.logWarn("Orchestrator", "provider failed, retrying on fallback", map[string]interface{}{
		"thread":   id.String(),
		"primary":  cfg.ModelID,
		"fallback": fallbackCfg.ModelID,
		"error":    err.Error(),
	})
	return o.generateWith(ctx, em, conversationID, id, fallbackCfg, history)
}

func (o *Orchestrator) generateWith(
	ctx context.Context,
	em *emitter,
	conversationID string,
	id checkpoint.ThreadID,
	cfg router.ModelConfig,
	history []llm.Message,
) (string, []store.Source, []checkpoint.ToolRecord, error) {
	provider, err := o.providers(cfg)
	if err != nil {
		return "", nil, nil, agenterr.Configuration(err.Error())
	}

	tools := o.catalog.ToolDefinitions()
	onToken := func(token string) {
		em.event(stream.Token(conversationID, token, supervisorNode))
	}
	opts := []llm.Option{
		llm.WithModel(cfg.ModelID),
		llm.WithTemperature(cfg.Temperature),
		llm.WithMaxTokens(cfg.MaxOutputTokens),
		llm.WithTimeout(cfg.Timeout),
	}

	working := make([]llm.Message, len(history))
	copy(working, history)

	var answer string
	var sources []store.Source
	var records []checkpoint.ToolRecord

	for round := 0; ; round++ {
		completion, err := provider.ChatStream(ctx, working, tools, onToken, opts...)
		if err != nil {
			return "", nil, nil, agenterr.Provider(err)
		}
		answer += completion.Content

		if len(completion.ToolCalls) == 0 {
			return answer, sources, records, nil
		}
		if round >= o.maxToolRounds {
			return "", nil, nil, agenterr.Streaming(fmt.Errorf("tool round limit exceeded (%d)", o.maxToolRounds))
		}

		working = append(working, llm.Message{
			Role:      "assistant",
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		for _, call := range completion.ToolCalls {
			result, err := o.invokeSpecialist(ctx, em, conversationID, id, call)
			if err != nil {
				return "", nil, nil, err
			}
			sources = append(sources, result.Sources...)
			records = append(records, checkpoint.ToolRecord{
				Tool:    call.Name,
				Input:   call.Arguments,
				Output:  result.Answer,
				Sources: result.Sources,
				At:      time.Now(),
			})
			working = append(working, llm.Message{
				Role:       "tool",
				Content:    result.Answer,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}
}

func (o *Orchestrator) invokeSpecialist(
	ctx context.Context,
	em *emitter,
	conversationID string,
	id checkpoint.ThreadID,
	call llm.ToolCall,
) (*specialist.Result, error) {
	args := make(map[string]interface{}, len(call.Arguments)+1)
	for k, v := range call.Arguments {
		args[k] = v
	}
	args[specialist.ArgScopeID] = id.ScopeID

	em.event(stream.ToolStart(conversationID, call.Name, call.Arguments))

	key := cache.ToolCallKey(call.Name, args)
	if hit := o.toolCache.Get(ctx, key); hit.Found {
		result := hit.Value
		em.event(stream.ToolEnd(conversationID, call.Name, result.Answer))
		for _, src := range result.Sources {
			em.event(stream.SourceAdded(conversationID, src))
		}
		return &result, nil
	}

	result, err := o.catalog.Dispatch(ctx, call.Name, args)
	if err != nil {
		if agenterr.IsCode(err, agenterr.CodeUnknownCapability) {
			return nil, err
		}
		return nil, agenterr.Streaming(err)
	}

	o.toolCache.Set(ctx, key, *result)
	em.event(stream.ToolEnd(conversationID, call.Name, result.Answer))
	for _, src := range result.Sources {
		em.event(stream.SourceAdded(conversationID, src))
	}
	return result, nil
}

func (o *Orchestrator) logWarn(module, message string, details map[string]interface{}) {
	if o.logger != nil {
		o.logger.Warn(module, message, details)
	}
}

func (o *Orchestrator) logError(module, message string, details map[string]interface{}) {
	if o.logger != nil {
		o.logger.Error(module, message, details)
	}
}
