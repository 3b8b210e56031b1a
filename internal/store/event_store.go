package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/assistant-engine/internal/model"
)

const eventColumns = `id, user_id, summary, description, location,
	start_at, end_at, time_zone, all_day`

// upcomingEventLimit caps how many events GetUpcomingEvents returns.
const upcomingEventLimit = 50

// GetUpcomingEvents returns events of userID that have not ended and
// start no earlier than 24 hours ago, ordered by start time.
func (s *SQLiteStore) GetUpcomingEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error) {
	now := dbTime(s.now())

	events := []model.CalendarEvent{}
	err := s.db.SelectContext(ctx, &events, `
		SELECT `+eventColumns+` FROM events
		WHERE user_id = ? AND start_at >= ? AND end_at >= ?
		ORDER BY start_at ASC, id
		LIMIT ?`,
		userID, now.Add(-24*time.Hour), now, upcomingEventLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events for %s: %w", userID, err)
	}
	return events, nil
}

// GetEventByID retrieves a single event.
func (s *SQLiteStore) GetEventByID(ctx context.Context, id string) (*model.CalendarEvent, error) {
	var events []model.CalendarEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting event %s: %w", id, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return &events[0], nil
}

// CreateEvent inserts a new event. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event model.CalendarEvent) (model.CalendarEvent, error) {
	if err := validateEvent(event); err != nil {
		return model.CalendarEvent{}, err
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.Start = dbTime(event.Start)
	event.End = dbTime(event.End)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.UserID, event.Summary, event.Description, event.Location,
		event.Start, event.End, event.TimeZone, boolToInt(event.AllDay),
	)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("creating event: %w", err)
	}
	return event, nil
}

// UpdateEvent replaces all fields of an existing event.
func (s *SQLiteStore) UpdateEvent(ctx context.Context, event model.CalendarEvent) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE events SET
			summary = ?, description = ?, location = ?,
			start_at = ?, end_at = ?, time_zone = ?, all_day = ?
		WHERE id = ?`,
		event.Summary, event.Description, event.Location,
		dbTime(event.Start), dbTime(event.End), event.TimeZone, boolToInt(event.AllDay),
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event %s: %w", event.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("event %s: %w", event.ID, ErrNotFound)
	}
	return nil
}

func validateEvent(event model.CalendarEvent) error {
	if strings.TrimSpace(event.Summary) == "" {
		return fmt.Errorf("event summary must not be empty")
	}
	if event.End.Before(event.Start) {
		return fmt.Errorf("event end must not be before start")
	}
	return nil
}
