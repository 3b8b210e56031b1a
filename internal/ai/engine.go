// Package ai aggregates the user's tasks, messages, contacts and events
// into a prompt, asks a model provider for an answer or a single action,
// and turns the result into a typed AIResponse.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/assistant-engine/internal/metrics"
	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/provider"
)

// Engine is the assistant service. It reads context, calls the model and
// parses the reply; executing the returned action is the caller's job.
type Engine struct {
	client        provider.Client
	aggregator    *Aggregator
	resolver      ChatResolver
	conversations *ConversationStore

	loc      *time.Location
	now      func() time.Time
	timeouts SourceTimeouts
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the time zone used for prompts, parsing and
// confirmations.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the engine's Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithSourceTimeouts bounds each context read.
func WithSourceTimeouts(t SourceTimeouts) Option {
	return func(e *Engine) {
		e.timeouts = t
	}
}

// New creates an engine. client may be nil when no API key is configured;
// every call then fails with a configuration error. A nil conversations
// store gets a fresh one.
func New(
	client provider.Client,
	sources Sources,
	resolver ChatResolver,
	conversations *ConversationStore,
	opts ...Option,
) *Engine {
	if conversations == nil {
		conversations = NewConversationStore()
	}

	e := &Engine{
		client:        client,
		resolver:      resolver,
		conversations: conversations,
		loc:           time.Local,
		now:           time.Now,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.aggregator = NewAggregator(sources, e.logger, e.metrics).WithTimeouts(e.timeouts)

	if client == nil {
		e.logger.Warn().Msg("no model provider configured; assistant requests will fail")
	}

	return e
}

// Conversations returns the engine's conversation store.
func (e *Engine) Conversations() *ConversationStore {
	return e.conversations
}

// Configured reports whether a model client is available.
func (e *Engine) Configured() bool {
	return e.client != nil
}

// InputOption sets per-call context for ProcessInput.
type InputOption func(*inputOptions)

type inputOptions struct {
	currentChatID  string
	currentContact *model.Contact
	key            string
}

// WithCurrentChat designates the chat the user has open. It always wins
// as the destination of a send_message action.
func WithCurrentChat(chatID string) InputOption {
	return func(o *inputOptions) {
		o.currentChatID = chatID
	}
}

// WithCurrentContact designates the contact the user is looking at.
func WithCurrentContact(c model.Contact) InputOption {
	return func(o *inputOptions) {
		o.currentContact = &c
	}
}

// WithConversationKey scopes stale-response detection. Requests with the
// same key supersede each other. Defaults to the user ID.
func WithConversationKey(key string) InputOption {
	return func(o *inputOptions) {
		o.key = key
	}
}

// ProcessInput answers one user utterance. On success the response
// becomes the active response. When a newer request for the same
// conversation started meanwhile, or ctx was cancelled, the response is
// returned together with ErrStaleResponse and nothing is stored. A
// malformed function call returns the text-only response with a
// *ParseError.
func (e *Engine) ProcessInput(
	ctx context.Context,
	userID, utterance string,
	history []AIMessage,
	opts ...InputOption,
) (*AIResponse, error) {
	o := inputOptions{key: userID}
	for _, opt := range opts {
		opt(&o)
	}

	resp, gen, err := e.process(ctx, userID, utterance, history, o)
	if err != nil {
		return resp, err
	}

	if err := e.commit(ctx, gen, func() error {
		return e.conversations.SetActive(gen, *resp)
	}); err != nil {
		return resp, err
	}

	return resp, nil
}

// ProcessTaskInput is ProcessInput scoped to a task: the response is also
// appended to the task's thread. An empty taskTitle is filled from a
// create_task action, naming the subtask the response proposes.
func (e *Engine) ProcessTaskInput(
	ctx context.Context,
	userID, taskID, parentTaskTitle, taskTitle, utterance string,
	history []AIMessage,
	opts ...InputOption,
) (*AIResponse, error) {
	o := inputOptions{key: userID}
	for _, opt := range opts {
		opt(&o)
	}
	o.key = "task:" + taskID

	resp, gen, err := e.process(ctx, userID, utterance, history, o)
	if err != nil {
		return resp, err
	}

	if taskTitle == "" {
		if create, ok := resp.Action.(*CreateTaskAction); ok {
			taskTitle = create.Title
		}
	}

	if err := e.commit(ctx, gen, func() error {
		if err := e.conversations.RecordCurrent(gen, *resp, taskID, parentTaskTitle, taskTitle); err != nil {
			return err
		}
		return e.conversations.SetActive(gen, *resp)
	}); err != nil {
		return resp, err
	}

	return resp, nil
}

// GetTaskConversation returns the thread for taskID, or nil.
func (e *Engine) GetTaskConversation(taskID string) *TaskConversation {
	return e.conversations.TaskConversation(taskID)
}

// RecordResponse appends resp to the thread of taskID.
func (e *Engine) RecordResponse(resp AIResponse, taskID, parentTaskTitle, taskTitle string) {
	e.conversations.RecordResponse(resp, taskID, parentTaskTitle, taskTitle)
}

// ClearActiveResponse drops the active response.
func (e *Engine) ClearActiveResponse() {
	e.conversations.ClearActive()
}

func (e *Engine) commit(ctx context.Context, gen Generation, write func() error) error {
	if ctx.Err() != nil || !e.conversations.IsCurrent(gen) {
		e.staleResponse(gen)
		return ErrStaleResponse
	}
	if err := write(); err != nil {
		if errors.Is(err, ErrStaleResponse) {
			e.staleResponse(gen)
		}
		return err
	}
	return nil
}

func (e *Engine) staleResponse(gen Generation) {
	e.metrics.RecordStale()
	e.logger.Debug().Str("conversation", gen.Key()).Msg("discarding stale response")
}

func (e *Engine) process(
	ctx context.Context,
	userID, utterance string,
	history []AIMessage,
	o inputOptions,
) (*AIResponse, Generation, error) {
	if e.client == nil {
		return nil, Generation{}, provider.NewConfigurationError("assistant", "no model provider configured", ErrNotConfigured)
	}

	gen := e.conversations.Begin(o.key)

	rc := e.aggregator.Aggregate(ctx, userID)
	rc.CurrentChatID = o.currentChatID
	rc.CurrentContact = o.currentContact
	rc.History = history

	composer := NewComposer(e.loc, e.now)
	system, turns := composer.Compose(rc)

	req := &provider.Request{
		SystemPrompt: system,
		Turns:        turns,
		Input:        utterance,
		Functions:    Functions(),
	}

	start := time.Now()
	reply, err := e.client.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		outcome := string(provider.KindOf(err))
		if outcome == "" {
			outcome = string(provider.KindUpstream)
		}
		e.metrics.RecordInvocation(e.client.Name(), outcome, elapsed)
		e.logger.Error().
			Str("provider", e.client.Name()).
			Str("user_id", userID).
			Dur("duration", elapsed).
			Err(err).
			Msg("model invocation failed")
		return nil, gen, fmt.Errorf("invoking %s: %w", e.client.Name(), err)
	}
	e.metrics.RecordInvocation(e.client.Name(), "ok", elapsed)

	resp := &AIResponse{Text: reply.Text}

	if reply.FunctionCall != nil {
		parser := NewParser(e.resolver, e.loc, e.now, e.logger)
		action, err := parser.Parse(ctx, reply.FunctionCall, ParseInput{
			UserID:        userID,
			Utterance:     utterance,
			CurrentChatID: o.currentChatID,
		})
		if err != nil {
			e.logger.Error().
				Str("provider", e.client.Name()).
				Str("function", reply.FunctionCall.Name).
				Err(err).
				Msg("dropping unparseable action")
			return resp, gen, err
		}
		resp.Action = action
		resp.Confirmation = Confirmation(action, e.loc)
		e.metrics.RecordAction(string(action.Kind()))
	}

	action := ""
	if resp.Action != nil {
		action = string(resp.Action.Kind())
	}
	e.logger.Debug().
		Str("provider", e.client.Name()).
		Str("action", action).
		Dur("duration", elapsed).
		Msg("model invocation completed")

	return resp, gen, nil
}
