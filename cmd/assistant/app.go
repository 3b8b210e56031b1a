package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/nhle/assistant-engine/internal/ai"
	"github.com/nhle/assistant-engine/internal/credential"
	"github.com/nhle/assistant-engine/internal/logger"
	"github.com/nhle/assistant-engine/internal/metrics"
	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/provider"
	"github.com/nhle/assistant-engine/internal/source/email"
	"github.com/nhle/assistant-engine/internal/store"
)

// app holds the wired components shared by every command.
type app struct {
	cfg      *model.AppConfig
	logger   zerolog.Logger
	loc      *time.Location
	store    *store.SQLiteStore
	engine   *ai.Engine
	executor *executor
	creds    *credential.Resolver
	registry *prometheus.Registry
}

// loadApp reads the config and wires the store, the model client and the
// engine. A missing API key leaves the engine unconfigured.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if userFlag != "" {
		cfg.UserID = userFlag
	}
	if providerFlag != "" {
		cfg.AI.Provider = providerFlag
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	loc, err := loadLocation(cfg.AI.TimeZone)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	creds := credential.NewResolver(credential.NewSystemKeyring(credential.DefaultDir()))
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	client := newClient(ctx, cfg, creds, log)

	var contacts ai.ContactProvider = st
	if cfg.Mail.Enabled {
		dir, err := newMailDirectory(cfg.Mail, creds)
		if err != nil {
			log.Warn().Err(err).Msg("mail contacts disabled")
		} else {
			contacts = ai.MergeContacts(st, dir)
		}
	}

	engine := ai.New(
		client,
		ai.Sources{Tasks: st, Chats: st, Contacts: contacts, Events: st},
		st,
		ai.NewConversationStore(),
		ai.WithLocation(loc),
		ai.WithLogger(log),
		ai.WithMetrics(m),
		ai.WithSourceTimeouts(sourceTimeouts(cfg)),
	)

	return &app{
		cfg:      cfg,
		logger:   log,
		loc:      loc,
		store:    st,
		engine:   engine,
		executor: newExecutor(cfg.UserID, st),
		creds:    creds,
		registry: registry,
	}, nil
}

// sourceTimeouts derives the context read bounds. The contact slot gets
// the mail timeout when the mailbox is one of its providers.
func sourceTimeouts(cfg *model.AppConfig) ai.SourceTimeouts {
	local := time.Duration(cfg.AI.SourceTimeoutSec) * time.Second
	t := ai.SourceTimeouts{Tasks: local, Chats: local, Contacts: local, Events: local}
	if cfg.Mail.Enabled && cfg.Mail.TimeoutSec > 0 {
		t.Contacts = time.Duration(cfg.Mail.TimeoutSec) * time.Second
	}
	return t
}

func (a *app) Close() error {
	return a.store.Close()
}

func openStore(path string) (*store.SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	return store.NewSQLiteStore(path)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}

// newClient returns nil when the provider cannot be configured; the
// engine then answers every request with a configuration error.
func newClient(
	ctx context.Context,
	cfg *model.AppConfig,
	creds *credential.Resolver,
	log zerolog.Logger,
) provider.Client {
	key, err := creds.APIKey(cfg.AI.Provider)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("reading API key")
	}

	client, err := provider.New(ctx, provider.Config{
		Provider:     cfg.AI.Provider,
		APIKey:       key,
		Model:        cfg.AI.Model,
		MaxTokens:    cfg.AI.MaxTokens,
		BaseURL:      cfg.AI.BaseURL,
		Organization: cfg.AI.Organization,
		Timeout:      time.Duration(cfg.AI.TimeoutSec) * time.Second,
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("model provider not configured")
		return nil
	}
	return client
}

func newMailDirectory(cfg model.MailConfig, creds *credential.Resolver) (*email.Directory, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, errors.New("mail.host and mail.username are required")
	}
	password, err := creds.Lookup(credential.MailPasswordKey)
	if err != nil {
		return nil, fmt.Errorf("reading mail password: %w", err)
	}
	client := email.NewIMAPClient(cfg.Host, cfg.Port, cfg.Username, password, cfg.TLS)
	return email.NewDirectory(client, cfg.Limit, cfg.Username), nil
}
