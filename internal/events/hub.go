// Package events fans notifications out to the event streams a user has
// open on this instance.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/observability/metrics"
)

const defaultBuffer = 16

// Subscription receives events for one user until Close is called
type Subscription struct {
	C      <-chan domain.Event
	ch     chan domain.Event
	userID string
	hub    *Hub
	once   sync.Once
}

// Close detaches the subscription and closes C
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub is an in-process registry of per-user subscriptions
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   map[string]map[*Subscription]struct{}{},
		buffer: defaultBuffer,
		logger: logger,
	}
}

// Subscribe registers a buffered stream for userID
func (h *Hub) Subscribe(userID string) *Subscription {
	ch := make(chan domain.Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch, userID: userID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = map[*Subscription]struct{}{}
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.userID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.userID)
		}
	}
	close(sub.ch)
}

// Publish delivers locally; it satisfies domain.EventPublisher
func (h *Hub) Publish(_ context.Context, userID string, ev domain.Event) error {
	h.Deliver(userID, ev)
	return nil
}

// Deliver hands ev to every subscription of userID. A subscriber whose
// buffer is full misses the event rather than blocking the publisher.
func (h *Hub) Deliver(userID string, ev domain.Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			h.logger.Warn("dropping event for slow subscriber",
				slog.String("user_id", userID),
				slog.String("type", string(ev.Type)),
			)
			metrics.ObserveEventPublished(string(ev.Type), "dropped")
		}
	}
	return delivered
}

// Subscribers returns the number of open subscriptions for userID
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Discard is an EventPublisher that drops everything
type Discard struct{}

func (Discard) Publish(context.Context, string, domain.Event) error { return nil }
