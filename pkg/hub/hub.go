// Package hub fans out payloads to live subscribers grouped by recipient email.
package hub

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultBuffer = 16

type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}
	buffer      int
}

func New(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subscribers: make(map[string]map[*Subscription]struct{}),
		buffer:      buffer,
	}
}

// Subscription receives payloads for one email until Close is called.
type Subscription struct {
	email string
	ch    chan []byte
	hub   *Hub
	once  sync.Once
}

func (s *Subscription) C() <-chan []byte {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

func (h *Hub) Subscribe(email string) *Subscription {
	sub := &Subscription{
		email: normalize(email),
		ch:    make(chan []byte, h.buffer),
		hub:   h,
	}

	h.mu.Lock()
	set, ok := h.subscribers[sub.email]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subscribers[sub.email] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Broadcast never blocks: a subscriber whose buffer is full misses the payload.
func (h *Hub) Broadcast(ctx context.Context, email string, payload []byte) error {
	email = normalize(email)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[email] {
		select {
		case sub.ch <- payload:
		default:
			logrus.WithField("recipient", email).Warn("Live subscriber is too slow, payload dropped")
		}
	}
	return nil
}

func (h *Hub) Subscribers(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[normalize(email)])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subscribers[sub.email]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subscribers, sub.email)
		}
	}
	close(sub.ch)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
