package provider

import (
	"context"
	"fmt"
	"time"
)

// Supported provider identifiers.
const (
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
	NameGemini    = "gemini"
)

// Config selects and configures a provider backend.
type Config struct {
	Provider     string
	APIKey       string
	Model        string
	MaxTokens    int
	BaseURL      string
	Organization string
	Timeout      time.Duration
}

var defaultModels = map[string]string{
	NameOpenAI:    "gpt-4o",
	NameAnthropic: "claude-sonnet-4-5-20250929",
	NameGemini:    "gemini-2.5-flash",
}

const defaultMaxTokens = 1024

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = NameOpenAI
	}
	if c.Model == "" {
		c.Model = defaultModels[c.Provider]
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	return c
}

// New builds the backend named by cfg.Provider. A missing API key is
// reported as a configuration-kind *Error so callers can degrade to an
// unconfigured engine instead of failing at startup.
func New(ctx context.Context, cfg Config) (Client, error) {
	cfg = cfg.withDefaults()

	if cfg.APIKey == "" {
		return nil, NewConfigurationError(cfg.Provider, "API key is not set", nil)
	}

	switch cfg.Provider {
	case NameOpenAI:
		return NewOpenAI(cfg), nil
	case NameAnthropic:
		return NewAnthropic(cfg), nil
	case NameGemini:
		return NewGemini(ctx, cfg)
	default:
		return nil, NewConfigurationError(
			cfg.Provider,
			fmt.Sprintf("unsupported provider %q", cfg.Provider),
			nil,
		)
	}
}
