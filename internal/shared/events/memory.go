package events

import (
	"context"
	"log"
	"sync"
)

// MemoryBus is an in-process event bus used in tests and in deployments
// that run without EventStoreDB. Delivery is synchronous and best-effort.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers []memorySubscription
	closed   bool
}

type memorySubscription struct {
	pattern string
	handler Handler
}

// NewMemoryBus creates an in-memory event bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish delivers the event to all matching subscribers in order
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]memorySubscription, len(b.handlers))
	copy(subs, b.handlers)
	b.mu.RUnlock()

	for _, sub := range subs {
		if !MatchesPattern(event.Type, sub.pattern) {
			continue
		}
		if err := sub.handler(ctx, event); err != nil {
			log.Printf("Handler error for event %s: %v", event.ID, err)
		}
	}
	return nil
}

// Subscribe registers a handler for events matching a wildcard pattern
func (b *MemoryBus) Subscribe(ctx context.Context, pattern string, consumerName string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, memorySubscription{pattern: pattern, handler: handler})
	return nil
}

// Close drops all subscriptions
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = nil
	b.closed = true
}

// Health always succeeds for the in-memory bus
func (b *MemoryBus) Health() error {
	return nil
}

// Ensure MemoryBus implements EventBus
var _ EventBus = (*MemoryBus)(nil)
