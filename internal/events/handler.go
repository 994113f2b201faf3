// internal/events/handler.go
package events

import (
	"context"
	"sync"
)

// Handler processes events of a specific type.
type Handler interface {
	// Handle processes an event. Should not block.
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow the use of ordinary functions as event handlers.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f(ctx, event).
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(event Event) error
}

// Subscription represents a subscription to events.
type Subscription interface {
	// Unsubscribe removes the subscription. Safe to call more than once.
	Unsubscribe()
}

type subscription struct {
	id       string
	eventBus *Bus
	types    []EventType
	once     sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.eventBus.unsubscribe(s.id, s.types) })
}
