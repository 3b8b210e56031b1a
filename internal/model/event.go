package model

import "time"

// CalendarEvent is a read-only projection of an event from the calendar provider.
type CalendarEvent struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Summary     string    `json:"summary" db:"summary"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location" db:"location"`
	Start       time.Time `json:"start" db:"start_at"`
	End         time.Time `json:"end" db:"end_at"`
	TimeZone    string    `json:"time_zone" db:"time_zone"`
	AllDay      bool      `json:"all_day" db:"all_day"`
}
