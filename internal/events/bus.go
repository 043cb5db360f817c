package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TaskCompleted struct {
	TaskID      uuid.UUID
	LeaseID     uuid.UUID
	Title       string
	CompletedAt time.Time
}

// Bus delivers events synchronously to every subscriber in subscription order.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers []func(context.Context, T)
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{}
}

func (b *Bus[T]) Subscribe(handler func(context.Context, T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

func (b *Bus[T]) Publish(ctx context.Context, event T) {
	b.mu.RLock()
	handlers := make([]func(context.Context, T), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
}
