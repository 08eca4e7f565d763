// Package eventbus is an in-process publish/subscribe hub for wallet events.
// A Bus is created by the application and injected into its publishers; it
// is not a package-level singleton.
package eventbus

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iho/walletrecon/internal/domain"
)

// Handler receives a published event.
type Handler func(ctx context.Context, event domain.WalletEvent)

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously to subscribers in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID uint64
	closed bool
	logger zerolog.Logger
}

// New creates an empty Bus.
func New(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]subscription),
		logger: logger.With().Str("component", "eventbus").Logger(),
	}
}

// Subscribe registers h for eventType and returns a function removing it.
func (b *Bus) Subscribe(eventType string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, handler: h})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

func (b *Bus) remove(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[eventType]
	for i, s := range subs {
		if s.id == id {
			b.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[eventType]) == 0 {
		delete(b.subs, eventType)
	}
}

// Publish delivers event to subscribers of its type and to AllEvents
// subscribers. A panicking handler is logged and does not affect the others.
func (b *Bus) Publish(ctx context.Context, event domain.WalletEvent) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]Handler, 0, len(b.subs[event.Type])+len(b.subs[AllEvents]))
	for _, s := range b.subs[event.Type] {
		handlers = append(handlers, s.handler)
	}
	for _, s := range b.subs[AllEvents] {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, event)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, event domain.WalletEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("event_type", event.Type).
				Msg("event handler panicked")
		}
	}()
	h(ctx, event)
}

// SubscriberCount returns the number of handlers registered for eventType.
func (b *Bus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[eventType])
}

// Close drops every subscription; later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string][]subscription)
}
