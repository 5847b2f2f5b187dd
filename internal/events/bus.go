package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// Handler reacts to a published event.
type Handler func(ctx context.Context, env Envelope, evt CanonicalEvent) error

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(ctx context.Context, evt CanonicalEvent, opts ...EnvelopeOption) (Envelope, error)
}

const defaultJournalSize = 256

// Bus dispatches events synchronously to subscribers in subscription order.
// Handlers run on the publisher's goroutine and may publish further events.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	journal  []Envelope
	limit    int
	logger   *logging.Logger
}

// NewBus creates a bus that keeps the last journalSize envelopes.
func NewBus(journalSize int, logger *logging.Logger) *Bus {
	if journalSize <= 0 {
		journalSize = defaultJournalSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Bus{limit: journalSize, logger: logger}
}

// Subscribe registers a handler for every event.
func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Publish wraps evt in an envelope, records it, and runs all handlers.
// Handler errors are joined; every handler runs regardless.
func (b *Bus) Publish(ctx context.Context, evt CanonicalEvent, opts ...EnvelopeOption) (Envelope, error) {
	env, err := Seal(evt, opts...)
	if err != nil {
		return Envelope{}, err
	}

	b.mu.Lock()
	b.journal = append(b.journal, env)
	if over := len(b.journal) - b.limit; over > 0 {
		b.journal = append([]Envelope(nil), b.journal[over:]...)
	}
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.Unlock()

	b.logger.Debug("event published",
		"event_id", env.EventID,
		"event_type", env.EventType,
		"aggregate", env.Aggregate,
	)

	var errs []error
	for _, h := range handlers {
		if herr := h(ctx, env, evt); herr != nil {
			b.logger.Error("event handler failed", "error", herr, "event_type", env.EventType, "event_id", env.EventID)
			errs = append(errs, herr)
		}
	}
	if len(errs) > 0 {
		return env, fmt.Errorf("events: dispatch %s: %w", env.EventType, errors.Join(errs...))
	}
	return env, nil
}

// Recent returns up to n of the most recent envelopes, oldest first.
func (b *Bus) Recent(n int) []Envelope {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.journal) {
		n = len(b.journal)
	}
	out := make([]Envelope, n)
	copy(out, b.journal[len(b.journal)-n:])
	return out
}
