// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBusClosed = errors.New("event bus is shutting down")
	ErrBusFull   = errors.New("event channel full")
)

// DefaultBufferSize is used when NewBus receives a non-positive size.
const DefaultBufferSize = 64

// Bus is an in-memory event bus. Asynchronously published events are
// delivered in publish order by a single dispatcher goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType]map[string]Handler
	logger   *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	eventChan chan Event
}

// NewBus creates a new event bus and starts its dispatcher.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	bus := &Bus{
		handlers:  make(map[EventType]map[string]Handler),
		logger:    logger.Named("event-bus"),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		eventChan: make(chan Event, bufferSize),
	}
	go bus.dispatch()
	return bus
}

// Subscribe registers a handler for one or more event types.
func (b *Bus) Subscribe(handler Handler, types ...EventType) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	for _, t := range types {
		if b.handlers[t] == nil {
			b.handlers[t] = make(map[string]Handler)
		}
		b.handlers[t][id] = handler
	}

	b.logger.Debug("Handler subscribed",
		zap.String("subscription_id", id),
		zap.Int("event_types", len(types)))

	return &subscription{id: id, eventBus: b, types: types}
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (b *Bus) SubscribeFunc(fn func(context.Context, Event) error, types ...EventType) Subscription {
	return b.Subscribe(HandlerFunc(fn), types...)
}

// Publish queues an event for asynchronous delivery. A full queue drops the event.
func (b *Bus) Publish(event Event) error {
	select {
	case <-b.ctx.Done():
		return ErrBusClosed
	default:
	}
	select {
	case b.eventChan <- event:
		return nil
	default:
		b.logger.Warn("Event channel full, dropping event",
			zap.String("event_type", string(event.Type())))
		return ErrBusFull
	}
}

// PublishSync delivers an event to all handlers on the caller's goroutine.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type()]))
	ids := make([]string, 0, len(b.handlers[event.Type()]))
	for id, h := range b.handlers[event.Type()] {
		handlers = append(handlers, h)
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("Handler error",
				zap.String("event_type", string(event.Type())),
				zap.String("handler_id", ids[i]),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("handlers failed: %w", errors.Join(errs...))
	}
	return nil
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for {
		select {
		case <-b.ctx.Done():
			for {
				select {
				case event := <-b.eventChan:
					_ = b.PublishSync(context.Background(), event)
				default:
					return
				}
			}
		case event := <-b.eventChan:
			_ = b.PublishSync(b.ctx, event)
		}
	}
}

func (b *Bus) unsubscribe(id string, types []EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range types {
		if handlers, ok := b.handlers[t]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.handlers, t)
			}
		}
	}
	b.logger.Debug("Handler unsubscribed", zap.String("subscription_id", id))
}

// Shutdown stops the dispatcher after draining queued events.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.cancel()
	select {
	case <-b.done:
		b.logger.Debug("Event bus shutdown complete")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus shutdown timeout")
		return ctx.Err()
	}
}
