package model

import "time"

// Chat is a conversation thread with one other participant.
type Chat struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`
	ParticipantEmail string    `json:"participant_email" db:"participant_email"`
	Title            string    `json:"title" db:"title"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Message is a single chat message as exposed by the chat store.
type Message struct {
	ID         string    `json:"id" db:"id"`
	ChatID     string    `json:"chat_id" db:"chat_id"`
	SenderID   string    `json:"sender_id" db:"sender_id"`
	SenderName string    `json:"sender_name" db:"sender_name"`
	Content    string    `json:"content" db:"content"`
	Timestamp  time.Time `json:"timestamp" db:"sent_at"`
}

// Sender returns the best available label for the message author.
func (m Message) Sender() string {
	if m.SenderName != "" {
		return m.SenderName
	}
	if m.SenderID != "" {
		return m.SenderID
	}
	return "Unknown"
}
