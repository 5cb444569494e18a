// Package eventbus provides a typed fan-out bus. The form controllers publish
// their transitions on it; the MQTT publisher and the service log consume
// them.
package eventbus

import (
	"context"
	"sync"
)

// TypedBus is a type-safe publish/subscribe bus for events of type T.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   []chan T
	closed bool
	buffer int
}

// NewTyped creates a new TypedBus whose subscriber channels hold 8 events.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{buffer: 8} }

// NewTypedWithBuffer creates a TypedBus with the given per-subscriber buffer.
func NewTypedWithBuffer[T any](n int) *TypedBus[T] {
	if n < 1 {
		n = 1
	}
	return &TypedBus[T]{buffer: n}
}

// Publish sends the event to all subscribers. Delivery is non-blocking; a
// subscriber whose buffer is full misses the event.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Consume subscribes and calls fn for every event until ctx is done or the
// bus is closed. It blocks; run it in its own goroutine.
func (b *TypedBus[T]) Consume(ctx context.Context, fn func(T)) {
	b.drain(ctx, b.Subscribe(), fn)
}

// Start subscribes before returning and consumes in a new goroutine, so no
// event published after Start is missed. The returned channel is closed once
// the consumer has stopped.
func (b *TypedBus[T]) Start(ctx context.Context, fn func(T)) <-chan struct{} {
	ch := b.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.drain(ctx, ch, fn)
	}()
	return done
}

func (b *TypedBus[T]) drain(ctx context.Context, ch <-chan T, fn func(T)) {
	defer b.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			fn(e)
		}
	}
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (b *TypedBus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
