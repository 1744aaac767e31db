package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	// TypeBatchRequested asks for an asynchronous portrait batch.
	TypeBatchRequested = "portrait_batch.requested"
)

// ErrNoHandlers is returned when an event is published with nobody
// subscribed to its type. The event would otherwise be lost.
var ErrNoHandlers = errors.New("no handlers registered for event type")

// Event is a typed message with a JSON payload.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// New creates an Event of the given type with payload encoded as JSON.
func New(eventType string, payload any) (*Event, error) {
	if eventType == "" {
		return nil, errors.New("event type cannot be empty")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Handler processes events of the types it is subscribed to.
type Handler interface {
	Handle(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Publisher is the side of the Bus that producers depend on.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}
