package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the model provider used by the assistant.
type AIConfig struct {
	// Provider selects the backend: "openai", "anthropic" or "gemini".
	Provider string `mapstructure:"provider" yaml:"provider"`

	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`

	// BaseURL overrides the provider endpoint (proxies, compatible servers).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Organization is sent as the OpenAI-Organization header when set.
	Organization string `mapstructure:"organization" yaml:"organization"`

	// TimeZone is the IANA zone injected into events that omit one.
	// Empty means the process's local zone.
	TimeZone string `mapstructure:"time_zone" yaml:"time_zone"`

	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// SourceTimeoutSec bounds each local context read (tasks, chats, events).
	SourceTimeoutSec int `mapstructure:"source_timeout_sec" yaml:"source_timeout_sec"`
}

// StoreConfig locates the local SQLite database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MailConfig holds the IMAP settings for the mailbox-backed contact directory.
// The password is never stored here; it lives in the keyring.
type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`

	// Limit caps how many recent envelopes are scanned for contacts.
	Limit int `mapstructure:"limit" yaml:"limit"`

	// TimeoutSec bounds the contact read, dial and login included.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	UserID string      `mapstructure:"user_id" yaml:"user_id"`
	AI     AIConfig    `mapstructure:"ai" yaml:"ai"`
	Store  StoreConfig `mapstructure:"store" yaml:"store"`
	Mail   MailConfig  `mapstructure:"mail" yaml:"mail"`
	Log    LogConfig   `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/assistant/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultStorePath returns the default SQLite database location.
func DefaultStorePath() string {
	return filepath.Join(configDir(), "assistant.db")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "assistant")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		UserID: "local",
		AI: AIConfig{
			Provider:   "openai",
			Model:      "gpt-4o",
			MaxTokens:        1024,
			TimeoutSec:       60,
			SourceTimeoutSec: 5,
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
		Mail: MailConfig{
			Port:       "993",
			TLS:        true,
			Limit:      100,
			TimeoutSec: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// envKeyReplacer maps nested keys to environment names (ai.model -> AI_MODEL).
var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("user_id", d.UserID)
	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.timeout_sec", d.AI.TimeoutSec)
	v.SetDefault("ai.source_timeout_sec", d.AI.SourceTimeoutSec)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("mail.port", d.Mail.Port)
	v.SetDefault("mail.tls", d.Mail.TLS)
	v.SetDefault("mail.limit", d.Mail.Limit)
	v.SetDefault("mail.timeout_sec", d.Mail.TimeoutSec)
	v.SetDefault("log.level", d.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// Environment variables prefixed with ASSISTANT_ override file values
// (e.g. ASSISTANT_AI_PROVIDER).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("assistant")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Mail.Limit <= 0 {
		cfg.Mail.Limit = DefaultAppConfig().Mail.Limit
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("user_id", cfg.UserID)
	v.Set("ai", cfg.AI)
	v.Set("store", cfg.Store)
	v.Set("mail", cfg.Mail)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
