package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/assistant-engine/internal/metrics"
	"github.com/nhle/assistant-engine/internal/model"
)

// TaskProvider returns the user's tasks.
type TaskProvider interface {
	GetTasks(ctx context.Context, userID string) ([]model.Task, error)
}

// ChatProvider returns every chat of the user keyed by chat ID.
type ChatProvider interface {
	GetAllChatsWithMessages(ctx context.Context, userID string) (map[string][]model.Message, error)
}

// ContactProvider returns the address book.
type ContactProvider interface {
	GetContacts(ctx context.Context) ([]model.Contact, error)
}

// EventProvider returns the user's upcoming calendar events.
type EventProvider interface {
	GetUpcomingEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error)
}

// ChatResolver finds the chat with a participant, creating it if needed.
type ChatResolver interface {
	FindOrCreateChat(ctx context.Context, userID, email string) (string, error)
}

// Sources groups the context providers. A nil provider contributes an
// empty collection.
type Sources struct {
	Tasks    TaskProvider
	Chats    ChatProvider
	Contacts ContactProvider
	Events   EventProvider
}

// DefaultSourceTimeout bounds a context read when no timeout is set.
const DefaultSourceTimeout = 5 * time.Second

// SourceTimeouts bounds each context read. Zero means DefaultSourceTimeout.
type SourceTimeouts struct {
	Tasks    time.Duration
	Chats    time.Duration
	Contacts time.Duration
	Events   time.Duration
}

func (t SourceTimeouts) orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultSourceTimeout
	}
	return d
}

// Aggregator reads all context sources concurrently into a RequestContext.
type Aggregator struct {
	sources  Sources
	timeouts SourceTimeouts
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewAggregator creates an aggregator over sources.
func NewAggregator(sources Sources, logger zerolog.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		sources: sources,
		logger:  logger,
		metrics: m,
	}
}

// WithTimeouts sets the per-source read bounds.
func (a *Aggregator) WithTimeouts(t SourceTimeouts) *Aggregator {
	a.timeouts = t
	return a
}

// Aggregate reads every source for userID. A failing or slow source is
// logged and replaced by an empty collection once its timeout elapses;
// Aggregate itself never fails. Nothing is cached between calls.
func (a *Aggregator) Aggregate(ctx context.Context, userID string) RequestContext {
	rc := RequestContext{
		UserID:    userID,
		Tasks:     []model.Task{},
		ChatsByID: map[string][]model.Message{},
		Contacts:  []model.Contact{},
		Events:    []model.CalendarEvent{},
	}

	var g errgroup.Group

	if src := a.sources.Tasks; src != nil {
		g.Go(func() error {
			tasks, err := bounded(ctx, a.timeouts.orDefault(a.timeouts.Tasks), func(ctx context.Context) ([]model.Task, error) {
				return src.GetTasks(ctx, userID)
			})
			if err != nil {
				a.degrade("tasks", userID, err)
				return nil
			}
			if tasks != nil {
				rc.Tasks = tasks
			}
			return nil
		})
	}

	if src := a.sources.Chats; src != nil {
		g.Go(func() error {
			chats, err := bounded(ctx, a.timeouts.orDefault(a.timeouts.Chats), func(ctx context.Context) (map[string][]model.Message, error) {
				return src.GetAllChatsWithMessages(ctx, userID)
			})
			if err != nil {
				a.degrade("chats", userID, err)
				return nil
			}
			if chats != nil {
				rc.ChatsByID = chats
			}
			return nil
		})
	}

	if src := a.sources.Contacts; src != nil {
		g.Go(func() error {
			contacts, err := bounded(ctx, a.timeouts.orDefault(a.timeouts.Contacts), src.GetContacts)
			if err != nil {
				a.degrade("contacts", userID, err)
				return nil
			}
			if contacts != nil {
				rc.Contacts = contacts
			}
			return nil
		})
	}

	if src := a.sources.Events; src != nil {
		g.Go(func() error {
			events, err := bounded(ctx, a.timeouts.orDefault(a.timeouts.Events), func(ctx context.Context) ([]model.CalendarEvent, error) {
				return src.GetUpcomingEvents(ctx, userID)
			})
			if err != nil {
				a.degrade("events", userID, err)
				return nil
			}
			if events != nil {
				rc.Events = events
			}
			return nil
		})
	}

	// Every goroutine absorbs its own error.
	_ = g.Wait()

	return rc
}

// bounded runs read with a deadline of timeout and stops waiting once it
// passes, even if read ignores its context. A late result is discarded.
func bounded[T any](ctx context.Context, timeout time.Duration, read func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := read(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("reading source: %w", ctx.Err())
	}
}

func (a *Aggregator) degrade(source, userID string, err error) {
	a.logger.Warn().
		Str("source", source).
		Str("user_id", userID).
		Err(err).
		Msg("context source unavailable, continuing without it")
	a.metrics.RecordSourceFailure(source)
}

// MergeContacts combines several contact providers into one. Contacts are
// de-duplicated by email, earlier providers winning. It fails only when
// every provider fails.
func MergeContacts(providers ...ContactProvider) ContactProvider {
	return mergedContacts(providers)
}

type mergedContacts []ContactProvider

func (m mergedContacts) GetContacts(ctx context.Context) ([]model.Contact, error) {
	var (
		out  []model.Contact
		errs []error
		seen = make(map[string]bool)
	)

	for i, p := range m {
		contacts, err := p.GetContacts(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("contact source %d: %w", i, err))
			continue
		}
		for _, c := range contacts {
			key := strings.ToLower(strings.TrimSpace(c.Email))
			if key != "" && seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}

	if len(m) > 0 && len(errs) == len(m) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
