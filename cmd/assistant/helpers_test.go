package main

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/assistant-engine/internal/ai"
	"github.com/nhle/assistant-engine/internal/provider"
	"github.com/nhle/assistant-engine/internal/store"
	"github.com/nhle/assistant-engine/tests/testutil"
)

var testNow = time.Date(2024, time.March, 10, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// scriptedClient replies with one queued response per call.
type scriptedClient struct {
	mu        sync.Mutex
	responses []*provider.Response
	errs      []error
	requests  []*provider.Request
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Complete(_ context.Context, req *provider.Request) (*provider.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return &provider.Response{Text: "ok"}, nil
}

func call(name, args string) *provider.Response {
	return &provider.Response{FunctionCall: &provider.FunctionCall{Name: name, ArgumentsJSON: args}}
}

func newTestSession(t *testing.T, client provider.Client) (*session, *store.SQLiteStore, *bytes.Buffer) {
	t.Helper()

	st := testutil.NewTestStore(t)
	st.SetClock(fixedClock)

	engine := ai.New(
		client,
		ai.Sources{Tasks: st, Chats: st, Contacts: st, Events: st},
		st,
		nil,
		ai.WithLocation(time.UTC),
		ai.WithClock(fixedClock),
	)

	out := &bytes.Buffer{}
	s := &session{
		engine:   engine,
		executor: newExecutor("u1", st),
		store:    st,
		logger:   zerolog.Nop(),
		userID:   "u1",
		history:  ai.NewHistory(fixedClock),
		out:      out,
	}
	return s, st, out
}
