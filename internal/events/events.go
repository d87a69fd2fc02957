package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/domain"
)

// EventType enumerates session lifecycle event identifiers.
type EventType string

const (
	EventPrincipalRegistered EventType = "principal_registered"
	EventSessionStarted      EventType = "session_started"
	EventSessionRefreshed    EventType = "session_refreshed"
	EventSessionEnded        EventType = "session_ended"
)

// Event represents a session lifecycle event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	PrincipalID string      `json:"principal_id"`
	Role        domain.Role `json:"role"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewEvent builds an event for the given principal.
func NewEvent(eventType EventType, principalID string, role domain.Role) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		PrincipalID: principalID,
		Role:        role,
		Timestamp:   time.Now(),
	}
}

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
	}
}

// Publish synchronously invokes handlers for the given event. Handler errors
// do not stop delivery to the remaining handlers.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
