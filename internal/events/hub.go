package events

import (
	"sync"

	"github.com/yourorg/tasklist/internal/domain"
)

// Hub fans collection snapshots out to websocket subscribers, partitioned by
// tenant scope. The store publishes the full persisted collection after every
// successful mutation; slow subscribers drop snapshots rather than block the
// write path.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan []domain.Item]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan []domain.Item]struct{})}
}

// Subscribe registers a subscriber for one tenant. The returned cancel
// function must be called when the subscriber goes away.
func (h *Hub) Subscribe(tenantID string) (<-chan []domain.Item, func()) {
	ch := make(chan []domain.Item, 4)

	h.mu.Lock()
	if h.subs[tenantID] == nil {
		h.subs[tenantID] = make(map[chan []domain.Item]struct{})
	}
	h.subs[tenantID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[tenantID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, tenantID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of the tenant. Implements
// store.Notifier.
func (h *Hub) Publish(tenantID string, items []domain.Item) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[tenantID] {
		select {
		case ch <- items:
		default:
			// Subscriber is behind; it will catch up on the next snapshot.
		}
	}
}
