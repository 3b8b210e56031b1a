package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/assistant-engine/internal/model"
)

// GetChats lists the chats of userID, newest first.
func (s *SQLiteStore) GetChats(ctx context.Context, userID string) ([]model.Chat, error) {
	chats := []model.Chat{}
	err := s.db.SelectContext(ctx, &chats, `
		SELECT id, user_id, participant_email, title, created_at
		FROM chats WHERE user_id = ?
		ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chats for %s: %w", userID, err)
	}
	return chats, nil
}

// GetAllChatsWithMessages returns every chat of userID keyed by ID with its
// messages in chronological order. Chats without messages map to an empty
// slice.
func (s *SQLiteStore) GetAllChatsWithMessages(
	ctx context.Context,
	userID string,
) (map[string][]model.Message, error) {
	chats, err := s.GetChats(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]model.Message, len(chats))
	for _, c := range chats {
		out[c.ID] = []model.Message{}
	}

	var messages []model.Message
	err = s.db.SelectContext(ctx, &messages, `
		SELECT m.id, m.chat_id, m.sender_id, m.sender_name, m.content, m.sent_at
		FROM messages m
		JOIN chats c ON c.id = m.chat_id
		WHERE c.user_id = ?
		ORDER BY m.chat_id, m.sent_at ASC, m.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages for %s: %w", userID, err)
	}

	for _, m := range messages {
		out[m.ChatID] = append(out[m.ChatID], m)
	}

	return out, nil
}

// FindOrCreateChat returns the chat between userID and email, creating it
// when none exists. Emails are compared case-insensitively.
func (s *SQLiteStore) FindOrCreateChat(ctx context.Context, userID, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("participant email must not be empty")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.GetContext(ctx, &id,
		"SELECT id FROM chats WHERE user_id = ? AND participant_email = ?",
		userID, email,
	)
	switch {
	case err == nil:
		return id, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("looking up chat with %s: %w", email, err)
	}

	id = uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, participant_email, title, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, email, email, dbTime(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("creating chat with %s: %w", email, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing chat: %w", err)
	}
	return id, nil
}

// CreateChat inserts a chat. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat model.Chat) (model.Chat, error) {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	chat.ParticipantEmail = strings.ToLower(strings.TrimSpace(chat.ParticipantEmail))
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = s.now()
	}
	chat.CreatedAt = dbTime(chat.CreatedAt)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, participant_email, title, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		chat.ID, chat.UserID, chat.ParticipantEmail, chat.Title, chat.CreatedAt,
	)
	if err != nil {
		return model.Chat{}, fmt.Errorf("creating chat: %w", err)
	}
	return chat, nil
}

// AddMessage appends a message to an existing chat.
func (s *SQLiteStore) AddMessage(ctx context.Context, msg model.Message) (model.Message, error) {
	if strings.TrimSpace(msg.Content) == "" {
		return model.Message{}, fmt.Errorf("message content must not be empty")
	}
	if msg.ChatID == "" {
		return model.Message{}, fmt.Errorf("message chat must not be empty")
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	msg.Timestamp = dbTime(msg.Timestamp)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, sender_name, content, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.SenderID, msg.SenderName, msg.Content, msg.Timestamp,
	)
	if err != nil {
		return model.Message{}, fmt.Errorf("adding message to chat %s: %w", msg.ChatID, err)
	}
	return msg, nil
}
