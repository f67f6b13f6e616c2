// Package output_storage keeps the full output of a process and replays it to
// any number of subscribers, late ones included.
package output_storage

import (
	"context"
	"sync/atomic"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
	"github.com/google/uuid"
)

// node is an element of the append-only list. The head of every list is an
// empty sentinel.
type node struct {
	data []byte
	next atomic.Pointer[node]
}

var logger = logging.Logger("output_storage")

// OutputStorage is an append-only list of chunks with a single writer and any
// number of concurrent readers.
type OutputStorage struct {
	head *node
	tail *node

	notify *Broadcaster[struct{}]
}

func RunNewOutputStorage() *OutputStorage {
	sentinel := &node{}
	return &OutputStorage{
		head:   sentinel,
		tail:   sentinel,
		notify: RunNewBroadcaster[struct{}](),
	}
}

// Stop marks the output complete. Subscribers drain what is stored and their
// channels close.
func (s *OutputStorage) Stop() {
	if s == nil {
		return
	}
	s.notify.Stop()
}

// Append stores data as-is; the caller must not modify it afterwards.
func (s *OutputStorage) Append(data []byte) {
	if s == nil {
		return
	}
	n := &node{data: data}
	s.tail.next.Store(n)
	s.tail = n
	s.notify.Publish(struct{}{})
}

// Subscribe replays everything stored so far and then follows new chunks
// until Stop. Cancelling ctx ends the subscription early.
func (s *OutputStorage) Subscribe(ctx context.Context, capacity int) <-chan []byte {
	ch := make(chan []byte, capacity)
	notifier, err := s.notify.Subscribe()
	if err != nil {
		notifier = nil
	}
	go s.follow(ctx, uuid.NewString(), notifier, ch)
	return ch
}

// follow walks the list into ch. A nil notifier means the output is already
// complete.
func (s *OutputStorage) follow(ctx context.Context, id string, notifier chan struct{}, ch chan<- []byte) {
	defer close(ch)
	if notifier != nil {
		defer s.notify.Unsubscribe(notifier)
	}
	log := logger.With().Str("subscriber", id).Logger()
	log.Trace().Bool("running", notifier != nil).Msg("subscriber started")

	prev := s.head
	for {
		cur := prev.next.Load()
		if cur == nil {
			if notifier == nil {
				log.Trace().Msg("subscriber drained")
				return
			}
			select {
			case _, ok := <-notifier:
				if !ok {
					// Stopped: drain whatever was appended before Stop.
					notifier = nil
				}
			case <-ctx.Done():
				log.Trace().Msg("subscriber cancelled")
				return
			}
			continue
		}
		select {
		case ch <- cur.data:
			prev = cur
		case <-ctx.Done():
			log.Trace().Msg("subscriber cancelled")
			return
		}
	}
}

// ForEach visits stored chunks in order until iter returns false.
func (s *OutputStorage) ForEach(iter func([]byte) bool) {
	if s == nil || iter == nil {
		return
	}
	for cur := s.head.next.Load(); cur != nil; cur = cur.next.Load() {
		if !iter(cur.data) {
			return
		}
	}
}

func (s *OutputStorage) Bytes() []byte {
	var out []byte
	s.ForEach(func(b []byte) bool {
		out = append(out, b...)
		return true
	})
	return out
}

func (s *OutputStorage) String() string {
	return string(s.Bytes())
}
