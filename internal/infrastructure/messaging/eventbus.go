// Package messaging implements the in-process event bus that connects
// command handlers to reactive subscribers (cache eviction, logging).
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
	"github.com/nestmate-hub/nestmate-hub/pkg/logger"
)

// ErrEventBusClosed is returned when publishing or subscribing after Close.
var ErrEventBusClosed = errors.New("messaging: event bus is closed")

// Handler processes one delivered event.
type Handler interface {
	Handle(ctx context.Context, event shared.Event) error
}

// TypedHandler additionally declares which event types it wants.
type TypedHandler interface {
	Handler
	EventTypes() []shared.EventType
}

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// EventBus is an in-memory implementation of shared.Publisher. Suitable
// for single-instance deployments: every subscriber runs in the same
// process as the publisher.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[shared.EventType][]Handler
	async    bool
	logger   *logger.Logger
	closed   bool
	wg       sync.WaitGroup
}

// Config contains event bus configuration.
type Config struct {
	// Async dispatches handlers on their own goroutines. Synchronous
	// mode is deterministic and used in tests.
	Async bool

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Async: true}
}

// NewEventBus creates a new in-memory event bus.
func NewEventBus(cfg Config) *EventBus {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &EventBus{
		handlers: make(map[shared.EventType][]Handler),
		async:    cfg.Async,
		logger:   log.With(logger.String("component", "eventbus")),
	}
}

// Subscribe registers a handler for one event type.
func (b *EventBus) Subscribe(eventType shared.EventType, handler Handler) error {
	if handler == nil {
		return errors.New("messaging: handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeTyped registers a handler for every type it declares.
func (b *EventBus) SubscribeTyped(handler TypedHandler) error {
	for _, eventType := range handler.EventTypes() {
		if err := b.Subscribe(eventType, handler); err != nil {
			return err
		}
	}
	return nil
}

// Publish delivers an event to all subscribed handlers. Implements
// shared.Publisher. Handler failures are logged, never propagated to
// the publisher: a broken subscriber must not fail the command that
// produced the event.
func (b *EventBus) Publish(ctx context.Context, event shared.Event) error {
	if event == nil {
		return errors.New("messaging: event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := append([]Handler(nil), b.handlers[event.EventType()]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if b.async {
			b.wg.Add(1)
			go func(h Handler) {
				defer b.wg.Done()
				// The publisher's request context may be gone by the
				// time the handler runs.
				b.execute(context.Background(), event, h)
			}(handler)
		} else {
			b.execute(ctx, event, handler)
		}
	}
	return nil
}

// execute runs one handler with panic recovery.
func (b *EventBus) execute(ctx context.Context, event shared.Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				logger.String("event_type", string(event.EventType())),
				logger.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	if err := handler.Handle(ctx, event); err != nil {
		b.logger.Error("event handler failed",
			logger.String("event_type", string(event.EventType())),
			logger.String("aggregate_id", event.AggregateID()),
			logger.Err(err),
		)
	}
}

// Close stops accepting events and waits for in-flight async handlers.
func (b *EventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
}
