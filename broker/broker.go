// Package broker implements a small generic, non-blocking
// publish/subscribe fan-out, used to mirror payment.Event traffic out
// to the web SSE endpoint and the monitor TUI without putting either
// of them on the critical path of an actual card transaction.
//
// Grounded on the chain-of-futures broadcast primitive in
// original_source/nm_payment/stream.py, reworked around Go channels
// instead of condition-variable-guarded futures, and on the
// subscribe/unsubscribe contract implied by the reference proxy's
// gRPC watch endpoint.
package broker

import "sync"

// Broker fans out values of type T to any number of subscribers. A
// slow or absent subscriber never blocks Publish or any other
// subscriber: each subscriber gets its own bounded channel, and a
// value that a subscriber's channel has no room for is dropped for
// that subscriber rather than stalling the publisher.
type Broker[T any] struct {
	mu          sync.Mutex
	subscribers map[chan T]struct{}
}

// New returns an empty Broker.
func New[T any]() *Broker[T] {
	return &Broker[T]{subscribers: make(map[chan T]struct{})}
}

// Subscribe registers a new subscriber and returns its channel along
// with an unsubscribe function. The channel is closed once
// unsubscribe is called; callers must keep draining it until then.
func (b *Broker[T]) Subscribe(buffer int) (ch <-chan T, unsubscribe func()) {
	c := make(chan T, buffer)
	b.mu.Lock()
	b.subscribers[c] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, c)
			b.mu.Unlock()
			close(c)
		})
	}
	return c, unsub
}

// Publish fans value out to every current subscriber. A subscriber
// whose buffer is full has the value dropped for it rather than
// blocking the publisher or any other subscriber.
func (b *Broker[T]) Publish(value T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.subscribers {
		select {
		case c <- value:
		default:
		}
	}
}

// Subscribers reports the number of currently registered subscribers,
// for diagnostics.
func (b *Broker[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
