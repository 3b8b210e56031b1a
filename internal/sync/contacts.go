package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/assistant-engine/internal/model"
)

// State represents the current state of a sync run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

// Status is the last known state of the importer.
type Status struct {
	State    State
	LastSync time.Time
	Imported int
	Err      error
}

// Source lists contacts from an external address book.
type Source interface {
	GetContacts(ctx context.Context) ([]model.Contact, error)
}

// Sink persists imported contacts.
type Sink interface {
	GetContacts(ctx context.Context) ([]model.Contact, error)
	UpsertContact(ctx context.Context, contact model.Contact) (model.Contact, error)
}

// Result reports a single import run.
type Result struct {
	Imported int
	New      int
}

// fetchTimeout bounds a single fetch from the source.
const fetchTimeout = 30 * time.Second

// defaultInterval is used when Run is given a non-positive interval.
const defaultInterval = 15 * time.Minute

// ContactImporter copies contacts from a Source into the local store.
type ContactImporter struct {
	source  Source
	sink    Sink
	logger  zerolog.Logger
	trigger chan struct{}

	mu     gosync.Mutex
	status Status
	now    func() time.Time
}

// NewContactImporter creates an importer from source into sink.
func NewContactImporter(source Source, sink Sink, logger zerolog.Logger) *ContactImporter {
	return &ContactImporter{
		source:  source,
		sink:    sink,
		logger:  logger,
		trigger: make(chan struct{}, 1),
		now:     time.Now,
	}
}

// SyncOnce fetches the source and upserts every contact. Contacts whose
// email is not yet in the store are counted as new.
func (c *ContactImporter) SyncOnce(ctx context.Context) (Result, error) {
	c.setStatus(StateRunning, 0, nil)

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	contacts, err := c.source.GetContacts(fetchCtx)
	if err != nil {
		c.setStatus(StateError, 0, err)
		return Result{}, fmt.Errorf("fetching contacts: %w", err)
	}

	existing, err := c.sink.GetContacts(ctx)
	if err != nil {
		c.setStatus(StateError, 0, err)
		return Result{}, fmt.Errorf("reading stored contacts: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		known[e.Email] = true
	}

	var result Result
	for _, contact := range contacts {
		stored, err := c.sink.UpsertContact(ctx, model.Contact{Name: contact.Name, Email: contact.Email})
		if err != nil {
			c.setStatus(StateError, result.Imported, err)
			return result, fmt.Errorf("importing contact %s: %w", contact.Email, err)
		}
		result.Imported++
		if !known[stored.Email] {
			known[stored.Email] = true
			result.New++
		}
	}

	c.setStatus(StateIdle, result.Imported, nil)
	return result, nil
}

// Run imports immediately, then every interval and on Refresh, until ctx
// is done. Failures are logged and retried on the next tick.
func (c *ContactImporter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runOnce(ctx)
		case <-c.trigger:
			c.runOnce(ctx)
		}
	}
}

// Refresh asks a running importer to sync now. It never blocks.
func (c *ContactImporter) Refresh() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Status returns the importer's last known state.
func (c *ContactImporter) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

func (c *ContactImporter) runOnce(ctx context.Context) {
	result, err := c.SyncOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn().Err(err).Msg("contact import failed")
		}
		return
	}
	c.logger.Debug().
		Int("imported", result.Imported).
		Int("new", result.New).
		Msg("contacts imported")
}

func (c *ContactImporter) setStatus(state State, imported int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.State = state
	c.status.Err = err
	if state == StateIdle && err == nil {
		c.status.LastSync = c.now()
		c.status.Imported = imported
	}
}
