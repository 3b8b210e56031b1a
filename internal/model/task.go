package model

import "time"

// Priority is the user-facing priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a read-only projection of a task owned by the task store.
type Task struct {
	// ID is the store's unique identifier for this task.
	ID string `json:"id" db:"id"`

	// UserID is the owner of the task.
	UserID string `json:"user_id" db:"user_id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the optional free-form body.
	Description string `json:"description" db:"description"`

	// DueDate is nil when the task has no due date.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// Priority is empty when the task was created without one.
	Priority Priority `json:"priority,omitempty" db:"priority"`

	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// RecencyTime returns the timestamp used to order tasks by recency:
// completion time when known, otherwise the last update.
func (t Task) RecencyTime() time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}
