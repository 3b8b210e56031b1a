package ai

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/provider"
)

func newTestParser(resolver ChatResolver, loc *time.Location) *Parser {
	return NewParser(resolver, loc, fixedClock, zerolog.Nop())
}

func parse(t *testing.T, p *Parser, name, args string, in ParseInput) (AIAction, error) {
	t.Helper()
	return p.Parse(context.Background(), &provider.FunctionCall{Name: name, ArgumentsJSON: args}, in)
}

func TestParse_CreateTaskDefaults(t *testing.T) {
	p := newTestParser(nil, time.UTC)

	action, err := parse(t, p, "create_task", `{"title":"Buy milk"}`, ParseInput{})
	require.NoError(t, err)

	assert.Equal(t, &CreateTaskAction{
		Title:       "Buy milk",
		Description: "",
		Priority:    model.PriorityMedium,
		DueDate:     nil,
	}, action)
	assert.Equal(t, `I've created a task: "Buy milk"`, Confirmation(action, time.UTC))
}

func TestParse_CreateTaskFields(t *testing.T) {
	p := newTestParser(nil, time.UTC)

	action, err := parse(t, p, "create_task",
		`{"title":"File taxes","description":"federal","dueDate":"2024-04-15T17:00:00Z","priority":"HIGH"}`, ParseInput{})
	require.NoError(t, err)

	task := action.(*CreateTaskAction)
	assert.Equal(t, "federal", task.Description)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(time.Date(2024, 4, 15, 17, 0, 0, 0, time.UTC)))
}

func TestParse_CreateTaskDateOnlyInLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	p := newTestParser(nil, loc)

	action, err := parse(t, p, "create_task", `{"title":"x","dueDate":"2024-04-15"}`, ParseInput{})
	require.NoError(t, err)

	due := action.(*CreateTaskAction).DueDate
	require.NotNil(t, due)
	assert.True(t, due.Equal(time.Date(2024, 4, 15, 0, 0, 0, 0, loc)))
}

func TestParse_CreateTaskErrors(t *testing.T) {
	p := newTestParser(nil, time.UTC)

	tests := []struct {
		name string
		args string
	}{
		{"missing title", `{"description":"x"}`},
		{"blank title", `{"title":"   "}`},
		{"bad priority", `{"title":"x","priority":"urgent"}`},
		{"bad due date", `{"title":"x","dueDate":"next tuesday"}`},
		{"malformed json", `{"title":`},
		{"wrong type", `{"title":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := parse(t, p, "create_task", tt.args, ParseInput{})
			assert.Nil(t, action)
			assert.True(t, IsParseError(err), "got %v", err)
		})
	}
}

func TestParse_UnknownFunction(t *testing.T) {
	p := newTestParser(nil, time.UTC)

	_, err := parse(t, p, "delete_everything", `{}`, ParseInput{})

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "delete_everything", pe.Function)
	assert.Equal(t, "unknown function", pe.Reason)
}

func TestParse_NilCall(t *testing.T) {
	p := newTestParser(nil, time.UTC)
	_, err := p.Parse(context.Background(), nil, ParseInput{})
	assert.True(t, IsParseError(err))
}

func TestParse_SendMessageResolvesEmail(t *testing.T) {
	resolver := &fakeResolver{chatID: "chat123"}
	p := newTestParser(resolver, time.UTC)

	action, err := parse(t, p, "send_message", `{"content":"hi","chatId":"model-guess"}`, ParseInput{
		UserID:    "user-1",
		Utterance: "send a message to alice@example.com saying hi",
	})
	require.NoError(t, err)

	msg := action.(*SendMessageAction)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "chat123", msg.ChatID)
	assert.Equal(t, "model-guess", msg.ProposedChatID)
	assert.NoError(t, msg.Validate())
	assert.Equal(t, []string{"user-1|alice@example.com"}, resolver.calls)
}

func TestParse_SendMessageCurrentChatWins(t *testing.T) {
	resolver := &fakeResolver{chatID: "chat123"}
	p := newTestParser(resolver, time.UTC)

	action, err := parse(t, p, "send_message", `{"content":"hi","chatId":"other"}`, ParseInput{
		UserID:        "user-1",
		Utterance:     "send a message to alice@example.com saying hi",
		CurrentChatID: "open-chat",
	})
	require.NoError(t, err)

	assert.Equal(t, "open-chat", action.(*SendMessageAction).ChatID)
	assert.Empty(t, resolver.calls)
}

func TestParse_SendMessageUnresolved(t *testing.T) {
	p := newTestParser(&fakeResolver{chatID: "chat123"}, time.UTC)

	action, err := parse(t, p, "send_message", `{"content":"hi","chatId":"c-42"}`, ParseInput{
		Utterance: "tell bob I'm late",
	})
	require.NoError(t, err)

	msg := action.(*SendMessageAction)
	assert.Empty(t, msg.ChatID)
	assert.Equal(t, "c-42", msg.ProposedChatID)
	assert.ErrorIs(t, msg.Validate(), ErrUnresolvedDestination)
}

func TestParse_SendMessageResolverFailure(t *testing.T) {
	p := newTestParser(&fakeResolver{err: errors.New("chat store offline")}, time.UTC)

	action, err := parse(t, p, "send_message", `{"content":"hi","chatId":""}`, ParseInput{
		Utterance: "send a message to alice@example.com saying hi",
	})
	require.NoError(t, err)
	assert.ErrorIs(t, action.(*SendMessageAction).Validate(), ErrUnresolvedDestination)
}

func TestParse_SendMessageRequiresContent(t *testing.T) {
	p := newTestParser(nil, time.UTC)
	_, err := parse(t, p, "send_message", `{"chatId":"c"}`, ParseInput{CurrentChatID: "c"})
	assert.True(t, IsParseError(err))
}

func TestParse_CreateEventFillsTimeZone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	p := newTestParser(nil, loc)

	action, err := parse(t, p, "create_event",
		`{"summary":"Lunch","start":{"dateTime":"2024-03-12T12:00:00"},"end":{"dateTime":"2024-03-12T13:00:00"}}`, ParseInput{})
	require.NoError(t, err)

	event := action.(*CreateEventAction)
	assert.Equal(t, "Europe/Berlin", event.Start.TimeZone)
	assert.Equal(t, "Europe/Berlin", event.End.TimeZone)
	assert.True(t, event.Start.DateTime.Equal(time.Date(2024, 3, 12, 12, 0, 0, 0, loc)))
	assert.True(t, event.End.DateTime.Equal(time.Date(2024, 3, 12, 13, 0, 0, 0, loc)))
}

func TestParse_CreateEventKeepsGivenZone(t *testing.T) {
	p := newTestParser(nil, time.UTC)

	action, err := parse(t, p, "create_event",
		`{"summary":"Call","start":{"dateTime":"2024-03-12T09:00:00","timeZone":"America/New_York"},"end":{"dateTime":"2024-03-12T09:30:00","timeZone":"America/New_York"}}`, ParseInput{})
	require.NoError(t, err)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	event := action.(*CreateEventAction)
	assert.Equal(t, "America/New_York", event.Start.TimeZone)
	assert.True(t, event.Start.DateTime.Equal(time.Date(2024, 3, 12, 9, 0, 0, 0, ny)))
}

func TestParse_CreateEventUnknownZoneUsesDefault(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	var logs bytes.Buffer
	p := NewParser(nil, loc, fixedClock, zerolog.New(&logs))

	action, err := parse(t, p, "create_event",
		`{"summary":"Lunch","start":{"dateTime":"2024-03-12T12:00:00","timeZone":"Mars/Olympus"},"end":{"dateTime":"2024-03-12T13:00:00"}}`, ParseInput{})
	require.NoError(t, err)

	event := action.(*CreateEventAction)
	assert.Equal(t, "Europe/Berlin", event.Start.TimeZone)
	assert.True(t, event.Start.DateTime.Equal(time.Date(2024, 3, 12, 12, 0, 0, 0, loc)))
	assert.Contains(t, logs.String(), "Mars/Olympus")
}

func TestParse_CreateEventUnnamedZoneUsesOffset(t *testing.T) {
	p := newTestParser(nil, time.FixedZone("", 3600))

	action, err := parse(t, p, "create_event",
		`{"summary":"Lunch","start":{"dateTime":"2024-03-12T12:00:00"},"end":{"dateTime":"2024-03-12T13:00:00"}}`, ParseInput{})
	require.NoError(t, err)

	event := action.(*CreateEventAction)
	assert.Equal(t, "+01:00", event.Start.TimeZone)
	assert.Equal(t, "+01:00", event.End.TimeZone)
}

func TestZoneName(t *testing.T) {
	at := time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "UTC", zoneName(time.UTC, at))
	assert.Equal(t, "CET", zoneName(time.FixedZone("CET", 3600), at))
	assert.Equal(t, "-05:30", zoneName(time.FixedZone("", -(5*3600+1800)), at))
}

func TestParse_CreateEventDefaultEnd(t *testing.T) {
	p := newTestParser(nil, time.UTC)

	action, err := parse(t, p, "create_event",
		`{"summary":"Focus","start":{"dateTime":"2024-03-12T14:00:00Z"}}`, ParseInput{})
	require.NoError(t, err)

	event := action.(*CreateEventAction)
	assert.True(t, event.End.DateTime.Equal(event.Start.DateTime.Add(time.Hour)))
	assert.NotEmpty(t, event.End.TimeZone)
	assert.Equal(t, "UTC", event.Start.TimeZone)
}

func TestParse_CreateEventErrors(t *testing.T) {
	p := newTestParser(nil, time.UTC)

	for name, args := range map[string]string{
		"missing summary": `{"start":{"dateTime":"2024-03-12T14:00:00Z"}}`,
		"missing start":   `{"summary":"x"}`,
		"bad start":       `{"summary":"x","start":{"dateTime":"soon"}}`,
		"end before":      `{"summary":"x","start":{"dateTime":"2024-03-12T14:00:00Z"},"end":{"dateTime":"2024-03-12T13:00:00Z"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parse(t, p, "create_event", args, ParseInput{})
			assert.True(t, IsParseError(err), "got %v", err)
		})
	}
}

func TestParse_UpdateEvent(t *testing.T) {
	p := newTestParser(nil, time.UTC)

	action, err := parse(t, p, "update_event",
		`{"eventId":"evt-1","summary":"Moved","start":{"dateTime":"2024-03-13T10:00:00"}}`, ParseInput{})
	require.NoError(t, err)

	update := action.(*UpdateEventAction)
	assert.Equal(t, ActionUpdateEvent, update.Kind())
	assert.Equal(t, "evt-1", update.EventID)
	require.NotNil(t, update.Start)
	assert.Equal(t, "UTC", update.Start.TimeZone)
	assert.Nil(t, update.End)

	_, err = parse(t, p, "update_event", `{"summary":"x"}`, ParseInput{})
	assert.True(t, IsParseError(err))
}

func TestExtractDestinationEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"send a message to alice@example.com saying hi", "alice@example.com", true},
		{"Send a quick message to Bob@Example.com.", "bob@example.com", true},
		{"please send this message to <carol@example.org>, thanks", "carol@example.org", true},
		{"send a message to alice saying hi", "", false},
		{"email alice@example.com", "", false},
		{"send a message to not-an-email@", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ExtractDestinationEmail(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
