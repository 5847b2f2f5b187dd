package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidEvent is returned for events that cannot be sealed.
var ErrInvalidEvent = errors.New("events: invalid event")

// CanonicalEvent is a versioned domain event. EventType names the schema,
// e.g. "payments.committed.v1"; AggregateID the entity, e.g. "order:<id>".
type CanonicalEvent interface {
	EventType() string
	AggregateID() string
}

// Envelope is the recorded form of a published event.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	Aggregate     string          `json:"aggregate"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type EnvelopeOption func(*Envelope)

func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		if id != uuid.Nil {
			e.EventID = id
		}
	}
}

// WithCorrelationID ties the event to a session.
func WithCorrelationID(id string) EnvelopeOption {
	return func(e *Envelope) { e.CorrelationID = strings.TrimSpace(id) }
}

func WithOccurredAt(t time.Time) EnvelopeOption {
	return func(e *Envelope) {
		if !t.IsZero() {
			e.OccurredAt = t.UTC()
		}
	}
}

// Seal validates evt and wraps it with a fresh id and timestamp.
func Seal(evt CanonicalEvent, opts ...EnvelopeOption) (Envelope, error) {
	if evt == nil {
		return Envelope{}, fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	env := Envelope{
		EventID:    uuid.New(),
		EventType:  strings.TrimSpace(evt.EventType()),
		Aggregate:  strings.TrimSpace(evt.AggregateID()),
		OccurredAt: time.Now().UTC(),
	}
	switch {
	case env.EventType == "":
		return Envelope{}, fmt.Errorf("%w: %T has no event type", ErrInvalidEvent, evt)
	case env.Aggregate == "":
		return Envelope{}, fmt.Errorf("%w: %s has no aggregate", ErrInvalidEvent, env.EventType)
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: encode %s: %w", env.EventType, err)
	}
	env.Payload = payload
	for _, opt := range opts {
		if opt != nil {
			opt(&env)
		}
	}
	return env, nil
}
