package ai

import (
	"sync"
	"time"
)

// History is an append-only, chronologically ordered conversation log.
type History struct {
	mu       sync.Mutex
	messages []AIMessage
	now      func() time.Time
}

// NewHistory creates an empty history stamped with now (time.Now if nil).
func NewHistory(now func() time.Time) *History {
	if now == nil {
		now = time.Now
	}
	return &History{
		messages: make([]AIMessage, 0, 20),
		now:      now,
	}
}

// Append adds a message with the current timestamp.
func (h *History) Append(role Role, content string) AIMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := AIMessage{Role: role, Content: content, Timestamp: h.now()}
	h.messages = append(h.messages, msg)
	return msg
}

// AppendResponse records an engine response: its text as an assistant
// message and its confirmation, if any, as a confirmation message.
func (h *History) AppendResponse(resp AIResponse) {
	if resp.Text != "" {
		h.Append(RoleAssistant, resp.Text)
	}
	if resp.Confirmation != "" {
		h.Append(RoleConfirmation, resp.Confirmation)
	}
}

// Messages returns a copy of the history.
func (h *History) Messages() []AIMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]AIMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.messages)
}

// Reset clears the history.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = h.messages[:0]
}
