package email

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/assistant-engine/internal/model"
)

// EnvelopeFetcher reads recent message envelopes from a mailbox.
type EnvelopeFetcher interface {
	FetchEnvelopes(ctx context.Context, limit int) ([]Envelope, error)
}

// Directory derives an address book from the people the user has
// exchanged mail with.
type Directory struct {
	fetcher EnvelopeFetcher
	limit   int
	self    string
}

// NewDirectory creates a Directory scanning at most limit envelopes.
// Messages addressed to or from self are kept but self is never listed.
func NewDirectory(fetcher EnvelopeFetcher, limit int, self string) *Directory {
	return &Directory{
		fetcher: fetcher,
		limit:   limit,
		self:    strings.ToLower(strings.TrimSpace(self)),
	}
}

// GetContacts fetches recent envelopes and returns their correspondents.
func (d *Directory) GetContacts(ctx context.Context) ([]model.Contact, error) {
	envelopes, err := d.fetcher.FetchEnvelopes(ctx, d.limit)
	if err != nil {
		return nil, fmt.Errorf("reading mailbox contacts: %w", err)
	}
	return contactsFromEnvelopes(envelopes, d.self), nil
}

// contactsFromEnvelopes collects unique correspondents by lowercase
// email. The first non-empty display name seen wins. Results are sorted
// by name, then email.
func contactsFromEnvelopes(envelopes []Envelope, self string) []model.Contact {
	byEmail := make(map[string]*model.Contact)

	add := func(addr Address) {
		email, name, ok := normalizeAddress(addr)
		if !ok || email == self {
			return
		}
		if existing, found := byEmail[email]; found {
			if existing.Name == "" {
				existing.Name = name
			}
			return
		}
		byEmail[email] = &model.Contact{ID: "mail:" + email, Name: name, Email: email}
	}

	for _, env := range envelopes {
		for _, list := range [][]Address{env.From, env.To, env.Cc} {
			for _, addr := range list {
				add(addr)
			}
		}
	}

	contacts := make([]model.Contact, 0, len(byEmail))
	for _, c := range byEmail {
		if c.Name == "" {
			c.Name = c.Email
		}
		contacts = append(contacts, *c)
	}
	slices.SortFunc(contacts, func(a, b model.Contact) int {
		if n := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); n != 0 {
			return n
		}
		return strings.Compare(a.Email, b.Email)
	})
	return contacts
}

func normalizeAddress(addr Address) (email, name string, ok bool) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(addr.Email))
	if err != nil {
		return "", "", false
	}
	return strings.ToLower(parsed.Address), strings.TrimSpace(addr.Name), true
}
