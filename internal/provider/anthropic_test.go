package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnthropicTestServer(t *testing.T, status int, body string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		if captured != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropic_ToolUse(t *testing.T) {
	var captured map[string]any
	srv := newAnthropicTestServer(t, http.StatusOK, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5-20250929",
		"content": [
			{"type": "text", "text": "Creating it now."},
			{"type": "tool_use", "id": "toolu_1", "name": "create_task", "input": {"title": "Buy milk"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, &captured)

	client := NewAnthropic(Config{APIKey: "test", BaseURL: srv.URL})
	resp, err := client.Complete(context.Background(), &Request{
		SystemPrompt: "system",
		Input:        "remind me to buy milk",
		Functions:    testFunctions,
	})
	require.NoError(t, err)
	assert.Equal(t, "Creating it now.", resp.Text)
	require.NotNil(t, resp.FunctionCall)
	assert.Equal(t, "create_task", resp.FunctionCall.Name)
	assert.JSONEq(t, `{"title":"Buy milk"}`, resp.FunctionCall.ArgumentsJSON)

	tools, ok := captured["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "create_task", tool["name"])
	schema := tool["input_schema"].(map[string]any)
	assert.Equal(t, []any{"title"}, schema["required"])
}

func TestAnthropic_ToolUseKeepsFirstCallInput(t *testing.T) {
	srv := newAnthropicTestServer(t, http.StatusOK, `{
		"id": "msg_2",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5-20250929",
		"content": [
			{"type": "tool_use", "id": "toolu_1", "name": "create_task", "input": {}},
			{"type": "tool_use", "id": "toolu_2", "name": "create_event", "input": {"summary": "Lunch"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, nil)

	client := NewAnthropic(Config{APIKey: "test", BaseURL: srv.URL})
	resp, err := client.Complete(context.Background(), &Request{Input: "hi", Functions: testFunctions})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	require.NotNil(t, resp.FunctionCall)
	assert.Equal(t, "create_task", resp.FunctionCall.Name)
	assert.JSONEq(t, `{}`, resp.FunctionCall.ArgumentsJSON)
}

func TestAnthropic_ErrorMapping(t *testing.T) {
	srv := newAnthropicTestServer(t, http.StatusUnauthorized,
		`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, nil)

	client := NewAnthropic(Config{APIKey: "test", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), &Request{Input: "hi"})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	var pErr *Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, http.StatusUnauthorized, pErr.StatusCode)
}

func TestAnthropic_RateLimit(t *testing.T) {
	srv := newAnthropicTestServer(t, http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"Number of requests has exceeded your rate limit"}}`, nil)

	client := NewAnthropic(Config{APIKey: "test", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), &Request{Input: "hi"})
	assert.True(t, IsRateLimitError(err))
}

func TestBuildAnthropicMessages_MergesSameRole(t *testing.T) {
	msgs := buildAnthropicMessages(&Request{
		Turns: []Turn{
			{Role: RoleUser, Content: "send it"},
			{Role: RoleAssistant, Content: "Sending."},
			{Role: RoleAssistant, Content: "I've sent your message"},
		},
		Input: "thanks",
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
}
