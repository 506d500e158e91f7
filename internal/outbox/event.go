// Package outbox persists side effects next to the state change that caused
// them and relays them to their sinks after commit.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sinks an event can be addressed to. Each sink gets its own row and retries
// independently.
const (
	SinkNotification = "notification"
	SinkAudit        = "audit"
	SinkMail         = "mail"
	SinkBroker       = "broker"
)

type Event struct {
	ID          uuid.UUID
	Sink        string
	Type        string
	AggregateID string
	Payload     json.RawMessage
	Attempts    int
	LastError   string
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// NewEvent encodes payload and addresses it to a single sink.
func NewEvent(sink, eventType, aggregateID string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return Event{
		ID:          uuid.New(),
		Sink:        sink,
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     raw,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Fanout addresses the same payload to every sink listed.
func Fanout(eventType, aggregateID string, payload any, sinks ...string) ([]Event, error) {
	events := make([]Event, 0, len(sinks))
	for _, sink := range sinks {
		event, err := NewEvent(sink, eventType, aggregateID, payload)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Decode unmarshals the payload into dst.
func (e Event) Decode(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
