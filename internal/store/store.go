package store

import (
	"context"
	"errors"

	"github.com/nhle/assistant-engine/internal/model"
)

// ErrNotFound is returned when a row addressed by ID does not exist.
var ErrNotFound = errors.New("not found")

// TaskStore persists the user's tasks.
type TaskStore interface {
	GetTasks(ctx context.Context, userID string) ([]model.Task, error)
	CreateTask(ctx context.Context, task model.Task) (model.Task, error)
	CompleteTask(ctx context.Context, id string) error
}

// ChatStore persists chats and their messages.
type ChatStore interface {
	GetChats(ctx context.Context, userID string) ([]model.Chat, error)
	GetAllChatsWithMessages(ctx context.Context, userID string) (map[string][]model.Message, error)
	FindOrCreateChat(ctx context.Context, userID, email string) (string, error)
	AddMessage(ctx context.Context, msg model.Message) (model.Message, error)
}

// ContactStore persists the address book.
type ContactStore interface {
	GetContacts(ctx context.Context) ([]model.Contact, error)
	UpsertContact(ctx context.Context, contact model.Contact) (model.Contact, error)
}

// EventStore persists calendar events.
type EventStore interface {
	GetUpcomingEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error)
	GetEventByID(ctx context.Context, id string) (*model.CalendarEvent, error)
	CreateEvent(ctx context.Context, event model.CalendarEvent) (model.CalendarEvent, error)
	UpdateEvent(ctx context.Context, event model.CalendarEvent) error
}

// Store is the local persistence backing the assistant's context sources
// and the actions it returns.
type Store interface {
	TaskStore
	ChatStore
	ContactStore
	EventStore

	Close() error
}
