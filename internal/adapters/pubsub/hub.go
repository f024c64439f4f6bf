package pubsub

import (
	"context"
	"sync"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

type subscriber[T any] struct {
	ch   chan T
	once sync.Once
}

func (s *subscriber[T]) close() {
	s.once.Do(func() { close(s.ch) })
}

// Hub fans values out to subscribers grouped by topic. Publish never blocks:
// a subscriber whose buffer is full is dropped and its channel closed.
type Hub[T any] struct {
	mu     sync.Mutex
	topics map[string]map[*subscriber[T]]struct{}
	buffer int
}

func NewHub[T any](buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub[T]{
		topics: make(map[string]map[*subscriber[T]]struct{}),
		buffer: buffer,
	}
}

func (h *Hub[T]) Subscribe(ctx context.Context, topic string) <-chan T {
	sub := &subscriber[T]{ch: make(chan T, h.buffer)}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscriber[T]]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(topic, sub)
	}()

	return sub.ch
}

func (h *Hub[T]) Publish(topic string, v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.topics[topic] {
		select {
		case sub.ch <- v:
		default:
			h.removeLocked(topic, sub)
		}
	}
}

// Subscribers reports how many subscribers a topic has.
func (h *Hub[T]) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

// Close drops every subscriber.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, subs := range h.topics {
		for sub := range subs {
			h.removeLocked(topic, sub)
		}
	}
}

func (h *Hub[T]) remove(topic string, sub *subscriber[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(topic, sub)
}

func (h *Hub[T]) removeLocked(topic string, sub *subscriber[T]) {
	subs := h.topics[topic]
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
	sub.close()
}
