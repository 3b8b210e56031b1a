package credential

import (
	"errors"
	"os"
	"strings"
)

// MailPasswordKey names the IMAP password entry.
const MailPasswordKey = "mail-password"

// APIKeyName returns the keyring entry holding the API key of provider.
func APIKeyName(provider string) string {
	return strings.ToLower(provider) + "-api-key"
}

// envNames maps keyring entries to the environment variables that
// override them.
var envNames = map[string]string{
	"openai-api-key":    "OPENAI_API_KEY",
	"anthropic-api-key": "ANTHROPIC_API_KEY",
	"gemini-api-key":    "GEMINI_API_KEY",
	MailPasswordKey:     "ASSISTANT_MAIL_PASSWORD",
}

// Getter reads a credential by key.
type Getter interface {
	Get(key string) (string, error)
}

// Resolver looks credentials up in the environment first, then in a
// keyring.
type Resolver struct {
	getenv func(string) string
	store  Getter
}

// NewResolver creates a Resolver reading the process environment.
// store may be nil to use the environment only.
func NewResolver(store Getter) *Resolver {
	return &Resolver{getenv: os.Getenv, store: store}
}

// WithEnv replaces the environment lookup.
func (r *Resolver) WithEnv(getenv func(string) string) *Resolver {
	r.getenv = getenv
	return r
}

// Lookup returns the credential stored under key. A missing credential
// yields ErrNotFound; keyring access failures are returned as is.
func (r *Resolver) Lookup(key string) (string, error) {
	if name, ok := envNames[key]; ok {
		if v := strings.TrimSpace(r.getenv(name)); v != "" {
			return v, nil
		}
	}

	if r.store == nil {
		return "", ErrNotFound
	}

	v, err := r.store.Get(key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// APIKey resolves the API key of provider. An absent key is reported as
// an empty string without error.
func (r *Resolver) APIKey(provider string) (string, error) {
	v, err := r.Lookup(APIKeyName(provider))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
