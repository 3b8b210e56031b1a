package ai

import (
	"time"

	"github.com/nhle/assistant-engine/internal/model"
)

// ActionKind names an action the model may request.
type ActionKind string

const (
	ActionCreateTask  ActionKind = "create_task"
	ActionSendMessage ActionKind = "send_message"
	ActionCreateEvent ActionKind = "create_event"
	ActionUpdateEvent ActionKind = "update_event"
)

// AIAction is a typed, validated side effect requested by the model.
// The caller executes it against the relevant store.
type AIAction interface {
	Kind() ActionKind
}

// CreateTaskAction creates a task for the user.
type CreateTaskAction struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Priority    model.Priority `json:"priority"`
}

func (*CreateTaskAction) Kind() ActionKind { return ActionCreateTask }

// SendMessageAction posts a message to a chat.
type SendMessageAction struct {
	Content string `json:"content"`

	// ChatID is the resolved destination. It is empty when no destination
	// could be determined; check Validate before executing.
	ChatID string `json:"chat_id"`

	// ProposedChatID is the chat the model asked for. It is never used as
	// the destination on its own.
	ProposedChatID string `json:"proposed_chat_id,omitempty"`
}

func (*SendMessageAction) Kind() ActionKind { return ActionSendMessage }

// Validate returns ErrUnresolvedDestination when the action has no chat.
func (a *SendMessageAction) Validate() error {
	if a.ChatID == "" {
		return ErrUnresolvedDestination
	}
	return nil
}

// EventTime is a point in time with the IANA zone it was expressed in.
type EventTime struct {
	DateTime time.Time `json:"date_time"`
	TimeZone string    `json:"time_zone"`
}

// CreateEventAction creates a calendar event.
type CreateEventAction struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

func (*CreateEventAction) Kind() ActionKind { return ActionCreateEvent }

// UpdateEventAction changes an existing calendar event. Nil or empty
// fields are left unchanged.
type UpdateEventAction struct {
	EventID     string     `json:"event_id"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Start       *EventTime `json:"start,omitempty"`
	End         *EventTime `json:"end,omitempty"`
}

func (*UpdateEventAction) Kind() ActionKind { return ActionUpdateEvent }
