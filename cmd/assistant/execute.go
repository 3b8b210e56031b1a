package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/assistant-engine/internal/ai"
	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/store"
)

// actionStore is the persistence the executor writes to.
type actionStore interface {
	store.TaskStore
	store.ChatStore
	store.EventStore
}

// executor applies the action of a response to the local store.
type executor struct {
	userID string
	store  actionStore
}

func newExecutor(userID string, st actionStore) *executor {
	return &executor{userID: userID, store: st}
}

// Apply performs action. A send without a resolved chat fails with
// ai.ErrUnresolvedDestination before anything is written.
func (x *executor) Apply(ctx context.Context, action ai.AIAction) error {
	switch a := action.(type) {
	case *ai.CreateTaskAction:
		_, err := x.store.CreateTask(ctx, model.Task{
			UserID:      x.userID,
			Title:       a.Title,
			Description: a.Description,
			DueDate:     a.DueDate,
			Priority:    a.Priority,
		})
		return err

	case *ai.SendMessageAction:
		if err := a.Validate(); err != nil {
			return err
		}
		_, err := x.store.AddMessage(ctx, model.Message{
			ChatID:     a.ChatID,
			SenderID:   x.userID,
			SenderName: "Me",
			Content:    a.Content,
		})
		return err

	case *ai.CreateEventAction:
		_, err := x.store.CreateEvent(ctx, model.CalendarEvent{
			UserID:      x.userID,
			Summary:     a.Summary,
			Description: a.Description,
			Start:       a.Start.DateTime,
			End:         a.End.DateTime,
			TimeZone:    a.Start.TimeZone,
		})
		return err

	case *ai.UpdateEventAction:
		return x.updateEvent(ctx, a)

	default:
		return fmt.Errorf("unsupported action %T", action)
	}
}

func (x *executor) updateEvent(ctx context.Context, a *ai.UpdateEventAction) error {
	event, err := x.store.GetEventByID(ctx, a.EventID)
	if err != nil {
		return err
	}
	if event.UserID != x.userID {
		return fmt.Errorf("event %s: %w", a.EventID, store.ErrNotFound)
	}

	if s := strings.TrimSpace(a.Summary); s != "" {
		event.Summary = s
	}
	if a.Description != "" {
		event.Description = a.Description
	}
	if a.Start != nil {
		duration := event.End.Sub(event.Start)
		event.Start = a.Start.DateTime
		event.TimeZone = a.Start.TimeZone
		if a.End == nil {
			event.End = event.Start.Add(duration)
		}
	}
	if a.End != nil {
		event.End = a.End.DateTime
	}

	return x.store.UpdateEvent(ctx, *event)
}
