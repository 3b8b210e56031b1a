package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/assistant-engine/internal/metrics"
	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/provider"
)

func newTestEngine(client provider.Client, sources Sources, resolver ChatResolver, opts ...Option) *Engine {
	opts = append([]Option{WithLocation(time.UTC), WithClock(fixedClock)}, opts...)
	return New(client, sources, resolver, NewConversationStore(), opts...)
}

func TestEngine_CreateTaskScenario(t *testing.T) {
	client := &fakeClient{resp: functionCall("create_task", `{"title":"Buy milk"}`)}
	e := newTestEngine(client, Sources{}, nil)

	resp, err := e.ProcessInput(context.Background(), "user-1", "remind me to buy milk", nil)
	require.NoError(t, err)

	assert.Equal(t, &CreateTaskAction{Title: "Buy milk", Priority: model.PriorityMedium}, resp.Action)
	assert.Equal(t, `I've created a task: "Buy milk"`, resp.Confirmation)

	active, ok := e.Conversations().Active()
	require.True(t, ok)
	assert.Equal(t, *resp, active)
}

func TestEngine_SendMessageScenario(t *testing.T) {
	resolver := &fakeResolver{chatID: "chat123"}
	client := &fakeClient{resp: functionCall("send_message", `{"content":"hi","chatId":"unknown"}`)}
	e := newTestEngine(client, Sources{}, resolver)

	resp, err := e.ProcessInput(context.Background(), "user-1", "send a message to alice@example.com saying hi", nil)
	require.NoError(t, err)

	assert.Equal(t, ActionSendMessage, resp.Action.Kind())
	msg := resp.Action.(*SendMessageAction)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "chat123", msg.ChatID)
	assert.Equal(t, `I've sent your message: "hi"`, resp.Confirmation)
}

func TestEngine_CurrentChatOption(t *testing.T) {
	resolver := &fakeResolver{chatID: "chat123"}
	client := &fakeClient{resp: functionCall("send_message", `{"content":"hi","chatId":"x"}`)}
	e := newTestEngine(client, Sources{}, resolver)

	resp, err := e.ProcessInput(context.Background(), "user-1", "send a message to alice@example.com saying hi", nil,
		WithCurrentChat("open-chat"),
		WithCurrentContact(model.Contact{Name: "Alice", Email: "alice@example.com"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "open-chat", resp.Action.(*SendMessageAction).ChatID)
	assert.Empty(t, resolver.calls)

	req := client.lastRequest()
	assert.Contains(t, req.SystemPrompt, `chat "open-chat" open`)
	assert.Contains(t, req.SystemPrompt, "Current Contact:\n- Alice <alice@example.com>")
}

func TestEngine_MalformedFunctionCall(t *testing.T) {
	client := &fakeClient{resp: &provider.Response{
		Text:         "Creating that now.",
		FunctionCall: &provider.FunctionCall{Name: "create_task", ArgumentsJSON: `{"title": "Buy`},
	}}
	e := newTestEngine(client, Sources{}, nil)

	resp, err := e.ProcessInput(context.Background(), "user-1", "remind me", nil)
	require.Error(t, err)
	assert.True(t, IsParseError(err))

	require.NotNil(t, resp)
	assert.Equal(t, "Creating that now.", resp.Text)
	assert.Nil(t, resp.Action)
	assert.Empty(t, resp.Confirmation)

	_, ok := e.Conversations().Active()
	assert.False(t, ok)

	_, err = e.ProcessTaskInput(context.Background(), "user-1", "task-1", "Parent", "Sub", "remind me", nil)
	assert.True(t, IsParseError(err))
	assert.Nil(t, e.GetTaskConversation("task-1"))
}

func TestEngine_TextReply(t *testing.T) {
	client := &fakeClient{resp: &provider.Response{Text: "You have no tasks."}}
	e := newTestEngine(client, Sources{}, nil)

	resp, err := e.ProcessInput(context.Background(), "user-1", "what's on my plate?", nil)
	require.NoError(t, err)

	assert.Equal(t, "You have no tasks.", resp.Text)
	assert.False(t, resp.HasAction())
	assert.Empty(t, resp.Confirmation)
}

func TestEngine_RequestComposition(t *testing.T) {
	client := &fakeClient{resp: &provider.Response{Text: "ok"}}
	e := newTestEngine(client, Sources{
		Tasks: fakeTasks{tasks: []model.Task{{Title: "Water plants"}}},
	}, nil)

	history := []AIMessage{
		{Role: RoleUser, Content: "create a task to water plants"},
		{Role: RoleConfirmation, Content: `I've created a task: "Water plants"`},
	}
	_, err := e.ProcessInput(context.Background(), "user-1", "make it high priority", history)
	require.NoError(t, err)

	req := client.lastRequest()
	require.NotNil(t, req)
	assert.Contains(t, req.SystemPrompt, "- Water plants")
	assert.Equal(t, "make it high priority", req.Input)
	require.Len(t, req.Turns, 2)
	assert.Equal(t, provider.RoleUser, req.Turns[0].Role)
	assert.Equal(t, provider.RoleAssistant, req.Turns[1].Role)

	names := make([]string, len(req.Functions))
	for i, fn := range req.Functions {
		names[i] = fn.Name
	}
	assert.Equal(t, []string{"create_task", "send_message", "create_event"}, names)
}

func TestEngine_NotConfigured(t *testing.T) {
	e := New(nil, Sources{}, nil, nil)

	assert.False(t, e.Configured())
	resp, err := e.ProcessInput(context.Background(), "user-1", "hi", nil)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, provider.IsConfigurationError(err))
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, UserMessage(err), "check your configuration")
}

func TestEngine_ProviderErrorsPropagate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := &fakeClient{err: &provider.Error{Kind: provider.KindRateLimit, Provider: "fake", StatusCode: 429, Message: "quota"}}
	e := newTestEngine(client, Sources{}, nil, WithMetrics(m))

	resp, err := e.ProcessInput(context.Background(), "user-1", "hi", nil)
	assert.Nil(t, resp)
	assert.True(t, provider.IsRateLimitError(err))
	assert.Contains(t, UserMessage(err), "try again later")

	assert.Len(t, client.requests, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvocationsTotal.WithLabelValues("fake", "rate_limit")))
}

func TestEngine_ProcessTaskInputRecordsThread(t *testing.T) {
	client := &fakeClient{resp: &provider.Response{Text: "Break it into steps."}}
	e := newTestEngine(client, Sources{}, nil)

	_, err := e.ProcessTaskInput(context.Background(), "user-1", "task-1", "Launch", "Write docs", "how do I start?", nil)
	require.NoError(t, err)
	_, err = e.ProcessTaskInput(context.Background(), "user-1", "task-1", "Renamed", "", "and then?", nil)
	require.NoError(t, err)

	thread := e.GetTaskConversation("task-1")
	require.NotNil(t, thread)
	assert.Equal(t, "Launch", thread.ParentTaskTitle)
	require.Len(t, thread.Responses, 2)
	assert.Equal(t, "Write docs", thread.Responses[0].TaskTitle)

	e.ClearActiveResponse()
	assert.NotNil(t, e.GetTaskConversation("task-1"))
}

func TestEngine_ProcessTaskInputTitlesSubtask(t *testing.T) {
	client := &fakeClient{resp: functionCall("create_task", `{"title":"Draft outline"}`)}
	e := newTestEngine(client, Sources{}, nil)

	_, err := e.ProcessTaskInput(context.Background(), "user-1", "task-1", "Write report", "", "add a first step", nil)
	require.NoError(t, err)

	thread := e.GetTaskConversation("task-1")
	require.NotNil(t, thread)
	assert.Equal(t, "Write report", thread.ParentTaskTitle)
	require.Len(t, thread.Responses, 1)
	assert.Equal(t, "Draft outline", thread.Responses[0].TaskTitle)
}

func TestEngine_RecordResponse(t *testing.T) {
	e := newTestEngine(&fakeClient{}, Sources{}, nil)

	e.RecordResponse(AIResponse{Text: "a"}, "t", "P", "")
	e.RecordResponse(AIResponse{Text: "b"}, "t", "Q", "")

	thread := e.GetTaskConversation("t")
	require.Len(t, thread.Responses, 2)
	assert.Equal(t, "P", thread.ParentTaskTitle)
}

func TestEngine_SupersededResponseIsStale(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := &fakeClient{
		resp:  &provider.Response{Text: "late answer"},
		block: make(chan struct{}),
	}
	e := newTestEngine(client, Sources{}, nil, WithMetrics(m))

	type result struct {
		resp *AIResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := e.ProcessInput(context.Background(), "user-1", "slow question", nil)
		done <- result{resp, err}
	}()

	require.Eventually(t, func() bool { return client.lastRequest() != nil }, time.Second, 5*time.Millisecond)

	// A newer request for the same conversation starts.
	e.Conversations().Begin("user-1")
	close(client.block)

	res := <-done
	assert.ErrorIs(t, res.err, ErrStaleResponse)
	require.NotNil(t, res.resp)
	assert.Equal(t, "late answer", res.resp.Text)

	_, ok := e.Conversations().Active()
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses))
}

func TestEngine_CancelledContextIsStale(t *testing.T) {
	client := &fakeClient{resp: &provider.Response{Text: "answer"}}
	e := newTestEngine(client, Sources{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := e.ProcessTaskInput(ctx, "user-1", "task-1", "P", "", "hi", nil)
	assert.ErrorIs(t, err, ErrStaleResponse)
	assert.NotNil(t, resp)
	assert.Nil(t, e.GetTaskConversation("task-1"))
}

func TestEngine_OtherConversationsDoNotSupersede(t *testing.T) {
	client := &fakeClient{resp: &provider.Response{Text: "ok"}}
	e := newTestEngine(client, Sources{}, nil)

	e.Conversations().Begin("someone-else")
	_, err := e.ProcessInput(context.Background(), "user-1", "hi", nil, WithConversationKey("screen-a"))
	assert.NoError(t, err)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(&provider.Error{Kind: provider.KindAuthMismatch}), "organization")
	assert.Contains(t, UserMessage(&ParseError{Function: "create_task", Reason: "bad"}), "rephrasing")
	assert.Contains(t, UserMessage(ErrUnresolvedDestination), "which chat")
	assert.Contains(t, UserMessage(errors.New("boom")), "try again")
}
