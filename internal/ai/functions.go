package ai

import "github.com/nhle/assistant-engine/internal/provider"

// Functions returns the actions declared to the model on every request.
func Functions() []provider.Function {
	return []provider.Function{
		{
			Name:        string(ActionCreateTask),
			Description: "Create a new task for the user.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "Short title of the task",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Optional details about the task",
					},
					"dueDate": map[string]any{
						"type":        "string",
						"format":      "date-time",
						"description": "Optional due date in ISO 8601 format",
					},
					"priority": map[string]any{
						"type":        "string",
						"enum":        []string{"low", "medium", "high"},
						"description": "Task priority",
					},
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        string(ActionSendMessage),
			Description: "Send a chat message on the user's behalf.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{
						"type":        "string",
						"description": "The message text to send",
					},
					"chatId": map[string]any{
						"type":        "string",
						"description": "Identifier of the chat to send the message to",
					},
				},
				"required": []string{"content", "chatId"},
			},
		},
		{
			Name:        string(ActionCreateEvent),
			Description: "Create a calendar event.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"summary": map[string]any{
						"type":        "string",
						"description": "Title of the event",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Optional details about the event",
					},
					"start": eventTimeSchema("Start time of the event"),
					"end":   eventTimeSchema("End time of the event"),
				},
				"required": []string{"summary", "start", "end"},
			},
		},
	}
}

func eventTimeSchema(description string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": description,
		"properties": map[string]any{
			"dateTime": map[string]any{
				"type":        "string",
				"format":      "date-time",
				"description": "ISO 8601 date-time",
			},
			"timeZone": map[string]any{
				"type":        "string",
				"description": "IANA time zone, e.g. America/New_York",
			},
		},
		"required": []string{"dateTime"},
	}
}
