package ai

import (
	"fmt"
	"time"
)

const (
	confirmDateLayout     = "1/2/2006"
	confirmDateTimeLayout = "1/2/2006, 3:04:05 PM"
)

// Confirmation returns the one-line display text for an action. Dates are
// rendered in loc.
func Confirmation(action AIAction, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	switch a := action.(type) {
	case *SendMessageAction:
		return fmt.Sprintf("I've sent your message: \"%s\"", a.Content)
	case *CreateTaskAction:
		msg := fmt.Sprintf("I've created a task: \"%s\"", a.Title)
		if a.DueDate != nil {
			msg += " due on " + a.DueDate.In(loc).Format(confirmDateLayout)
		}
		return msg
	case *CreateEventAction:
		return fmt.Sprintf("I've created an event: \"%s\" on %s",
			a.Summary, a.Start.DateTime.In(loc).Format(confirmDateTimeLayout))
	default:
		return "Action completed successfully."
	}
}
