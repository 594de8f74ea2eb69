package outputlog

import (
	"errors"
	"sync"
)

var errBroadcasterStopped = errors.New("failed to subscribe: broadcaster is stopped")

// Broadcaster fans each published value out to every subscriber. Delivery is
// lossy: a subscriber whose buffer is full loses its oldest pending value, so
// a slow reader never stalls the publisher.
type Broadcaster[T any] struct {
	incoming chan T

	mu          sync.Mutex
	subscribers map[chan T]struct{}
	stopped     bool
}

func RunNewBroadcaster[T any]() *Broadcaster[T] {
	broadcaster := &Broadcaster[T]{
		incoming:    make(chan T, 1),
		subscribers: make(map[chan T]struct{}),
	}

	go broadcaster.run()

	return broadcaster
}

func (broadcaster *Broadcaster[T]) run() {
	for msg := range broadcaster.incoming {
		// offer never blocks, so delivering under the lock is cheap and keeps
		// Unsubscribe from closing a channel mid-send.
		broadcaster.mu.Lock()
		for s := range broadcaster.subscribers {
			offer(s, msg)
		}
		broadcaster.mu.Unlock()
	}

	broadcaster.mu.Lock()
	for s := range broadcaster.subscribers {
		close(s)
	}
	broadcaster.subscribers = nil
	broadcaster.mu.Unlock()
}

// offer sends without blocking, dropping the oldest buffered value if needed.
func offer[T any](ch chan T, msg T) {
	select {
	case ch <- msg:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- msg:
	default:
	}
}

// Stop closes every subscriber channel once pending values are delivered.
// It is safe to call more than once.
func (broadcaster *Broadcaster[T]) Stop() {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.stopped {
		return
	}
	broadcaster.stopped = true
	close(broadcaster.incoming)
}

func (broadcaster *Broadcaster[T]) Subscribe() (chan T, error) {
	// A buffer of 1 lets stale notifications be replaced without blocking.
	ch := make(chan T, 1)
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.stopped {
		return nil, errBroadcasterStopped
	}
	broadcaster.subscribers[ch] = struct{}{}
	return ch, nil
}

func (broadcaster *Broadcaster[T]) Unsubscribe(ch chan T) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if _, ok := broadcaster.subscribers[ch]; ok {
		delete(broadcaster.subscribers, ch)
		close(ch)
	}
}

// Publish is a no-op after Stop.
func (broadcaster *Broadcaster[T]) Publish(msg T) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.stopped {
		return
	}
	offer(broadcaster.incoming, msg)
}
