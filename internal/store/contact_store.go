package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/assistant-engine/internal/model"
)

// GetContacts returns the address book ordered by name.
func (s *SQLiteStore) GetContacts(ctx context.Context) ([]model.Contact, error) {
	contacts := []model.Contact{}
	err := s.db.SelectContext(ctx, &contacts,
		"SELECT id, name, email FROM contacts ORDER BY name COLLATE NOCASE, email")
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	return contacts, nil
}

// UpsertContact inserts a contact or updates the name of the existing
// contact with the same email.
func (s *SQLiteStore) UpsertContact(ctx context.Context, contact model.Contact) (model.Contact, error) {
	contact.Email = strings.ToLower(strings.TrimSpace(contact.Email))
	if contact.Email == "" {
		return model.Contact{}, fmt.Errorf("contact email must not be empty")
	}
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET name = excluded.name`,
		contact.ID, contact.Name, contact.Email,
	)
	if err != nil {
		return model.Contact{}, fmt.Errorf("upserting contact %s: %w", contact.Email, err)
	}

	err = s.db.GetContext(ctx, &contact,
		"SELECT id, name, email FROM contacts WHERE email = ?", contact.Email)
	if err != nil {
		return model.Contact{}, fmt.Errorf("reloading contact %s: %w", contact.Email, err)
	}
	return contact, nil
}
