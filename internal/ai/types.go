package ai

import (
	"time"

	"github.com/nhle/assistant-engine/internal/model"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser         Role = "user"
	RoleAssistant    Role = "assistant"
	RoleSystem       Role = "system"
	RoleConfirmation Role = "confirmation"
)

// AIMessage is one entry of a conversation, in chronological order.
type AIMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestContext is the snapshot of a user's data used to build a single
// prompt. It is built per invocation and not modified afterwards.
type RequestContext struct {
	UserID    string
	Tasks     []model.Task
	ChatsByID map[string][]model.Message
	Contacts  []model.Contact
	Events    []model.CalendarEvent

	// CurrentChatID is the chat the user is looking at, if any.
	CurrentChatID string

	// CurrentContact is the contact the user is looking at, if any.
	CurrentContact *model.Contact

	History []AIMessage
}

// AIResponse is the engine's answer to one user input. Confirmation is
// set exactly when Action is set.
type AIResponse struct {
	Text         string   `json:"text"`
	Action       AIAction `json:"action,omitempty"`
	Confirmation string   `json:"confirmation,omitempty"`
}

// HasAction reports whether the response carries an action to execute.
func (r AIResponse) HasAction() bool {
	return r.Action != nil
}

// TaskResponse is an AIResponse recorded in a task thread.
type TaskResponse struct {
	AIResponse
	TaskTitle string `json:"task_title,omitempty"`
}

// TaskConversation is the ordered thread of responses scoped to one task.
type TaskConversation struct {
	TaskID          string         `json:"task_id"`
	ParentTaskTitle string         `json:"parent_task_title"`
	Responses       []TaskResponse `json:"responses"`
}
