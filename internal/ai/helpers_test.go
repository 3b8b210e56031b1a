package ai

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/provider"
)

var testNow = time.Date(2024, time.March, 10, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeClient struct {
	mu       sync.Mutex
	resp     *provider.Response
	err      error
	requests []*provider.Request

	// block, when set, is waited on before replying.
	block chan struct{}
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeClient) lastRequest() *provider.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

type fakeTasks struct {
	tasks []model.Task
	err   error
}

func (f fakeTasks) GetTasks(context.Context, string) ([]model.Task, error) {
	return f.tasks, f.err
}

type fakeChats struct {
	chats map[string][]model.Message
	err   error
}

func (f fakeChats) GetAllChatsWithMessages(context.Context, string) (map[string][]model.Message, error) {
	return f.chats, f.err
}

type fakeContacts struct {
	contacts []model.Contact
	err      error
}

func (f fakeContacts) GetContacts(context.Context) ([]model.Contact, error) {
	return f.contacts, f.err
}

type fakeEvents struct {
	events []model.CalendarEvent
	err    error
}

func (f fakeEvents) GetUpcomingEvents(context.Context, string) ([]model.CalendarEvent, error) {
	return f.events, f.err
}

type fakeResolver struct {
	mu     sync.Mutex
	chatID string
	err    error
	calls  []string
}

func (f *fakeResolver) FindOrCreateChat(_ context.Context, userID, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+"|"+email)
	return f.chatID, f.err
}

func functionCall(name, args string) *provider.Response {
	return &provider.Response{FunctionCall: &provider.FunctionCall{Name: name, ArgumentsJSON: args}}
}

func timePtr(t time.Time) *time.Time { return &t }
