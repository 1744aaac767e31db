package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Bus dispatches events synchronously to in-process handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger.With("component", "event_bus"),
	}
}

// Subscribe registers h for events of eventType.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
	b.logger.Debug("handler subscribed", "event_type", eventType, "handler_count", len(b.handlers[eventType]))
}

// Publish delivers event to every handler subscribed to its type. All
// handlers run even when one fails; their errors are joined.
func (b *Bus) Publish(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.WarnContext(ctx, "no handlers for event", "event_id", event.ID, "event_type", event.Type)
		return fmt.Errorf("%w: %s", ErrNoHandlers, event.Type)
	}

	b.logger.DebugContext(ctx, "publishing event",
		"event_id", event.ID,
		"event_type", event.Type,
		"handler_count", len(handlers))

	var errs []error
	for i, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			b.logger.ErrorContext(ctx, "event handler failed",
				"event_id", event.ID,
				"event_type", event.Type,
				"handler_index", i,
				"error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Publisher = (*Bus)(nil)
