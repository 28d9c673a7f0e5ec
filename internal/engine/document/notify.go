// # internal/engine/document/notify.go
package document

import (
	"sync"

	"scriptls/internal/shared/observability"
)

// ParsedEvent is published after a document has been (re)parsed into the
// parse cache.
type ParsedEvent struct {
	URI      string
	Document *ActiveDocument
}

// ClearedEvent is published after a document has been evicted on request.
type ClearedEvent struct {
	URI string
}

// Hub is a typed broadcast primitive. Subscribers filter by document URI
// (an empty URI receives every event). Delivery never blocks the publisher:
// an event is dropped for a subscriber whose buffer is full.
type Hub[T any] struct {
	name string
	mu   sync.Mutex
	next uint64
	subs map[uint64]*Subscription[T]
}

type Subscription[T any] struct {
	hub  *Hub[T]
	id   uint64
	uri  string
	ch   chan T
	once sync.Once
}

func NewHub[T any](name string) *Hub[T] {
	return &Hub[T]{name: name, subs: make(map[uint64]*Subscription[T])}
}

// Subscribe registers a subscriber for uri with the given channel buffer.
func (h *Hub[T]) Subscribe(uri string, buffer int) *Subscription[T] {
	if buffer < 1 {
		buffer = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	sub := &Subscription[T]{hub: h, id: h.next, uri: uri, ch: make(chan T, buffer)}
	h.subs[sub.id] = sub
	return sub
}

// Publish delivers ev to every subscriber of uri and returns the number of
// subscribers that received it.
func (h *Hub[T]) Publish(uri string, ev T) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, sub := range h.subs {
		if sub.uri != "" && sub.uri != uri {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered++
		default:
			observability.NotificationsDroppedTotal.WithLabelValues(h.name).Inc()
		}
	}
	return delivered
}

func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}
