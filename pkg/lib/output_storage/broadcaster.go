package output_storage

import (
	"errors"
	"sync"
)

// ErrStopped is returned when subscribing to a stopped broadcaster.
var ErrStopped = errors.New("broadcaster is stopped")

// Broadcaster fans each published value out to every subscriber. Subscribers
// hold at most one pending value; a newer value replaces an unread one, so a
// slow subscriber never blocks Publish.
type Broadcaster[T any] struct {
	in chan T

	mu          sync.Mutex
	subscribers map[chan T]struct{}
	stopped     bool
}

func RunNewBroadcaster[T any]() *Broadcaster[T] {
	b := &Broadcaster[T]{
		in:          make(chan T, 1),
		subscribers: make(map[chan T]struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster[T]) run() {
	for msg := range b.in {
		// Sends never block, so the lock also keeps Unsubscribe from closing
		// a channel mid-send.
		b.mu.Lock()
		for s := range b.subscribers {
			replace(s, msg)
		}
		b.mu.Unlock()
	}

	b.mu.Lock()
	for s := range b.subscribers {
		close(s)
	}
	n := len(b.subscribers)
	b.subscribers = nil
	b.stopped = true
	b.mu.Unlock()
	logger.Trace().Int("subscribers", n).Msg("broadcaster stopped")
}

// replace sends msg on ch, dropping the pending value if ch is full.
func replace[T any](ch chan T, msg T) {
	select {
	case ch <- msg:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- msg
	}
}

// Stop closes every subscriber channel once pending values are delivered.
func (b *Broadcaster[T]) Stop() {
	close(b.in)
}

func (b *Broadcaster[T]) Subscribe() (chan T, error) {
	ch := make(chan T, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return nil, ErrStopped
	}
	b.subscribers[ch] = struct{}{}
	return ch, nil
}

func (b *Broadcaster[T]) Unsubscribe(ch chan T) {
	b.mu.Lock()
	_, ok := b.subscribers[ch]
	delete(b.subscribers, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (b *Broadcaster[T]) Publish(msg T) {
	replace(b.in, msg)
}
