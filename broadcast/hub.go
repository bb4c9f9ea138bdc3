// Package broadcast fans stored spots out to downstream consumers. The Hub
// is an explicit publish-subscribe channel between the pipeline consumer and
// broadcast collaborators; subscribers hold private buffered channels rather
// than sharing a mutable list.
package broadcast

import (
	"log"
	"sync"

	"spotfeed/spot"
)

const defaultSubscriberBuffer = 64

// Hub delivers each published spot to every current subscriber without ever
// blocking the publisher: a subscriber that falls behind loses spots.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan *spot.Spot
	ring   *ring
}

// NewHub creates a hub retaining the recentCapacity most recent spots for
// late subscribers to inspect.
func NewHub(recentCapacity int) *Hub {
	if recentCapacity <= 0 {
		recentCapacity = 256
	}
	return &Hub{
		subs: make(map[int]chan *spot.Spot),
		ring: newRing(recentCapacity),
	}
}

// Subscribe registers a consumer and returns its channel plus a cancel
// function. The channel is closed on cancel.
func (h *Hub) Subscribe() (<-chan *spot.Spot, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan *spot.Spot, defaultSubscriberBuffer)
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the spot to all subscribers, non-blocking per subscriber.
func (h *Hub) Publish(s *spot.Spot) {
	h.ring.add(s)
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- s:
		default:
			log.Printf("Broadcast: subscriber %d full, dropping spot %s", id, s.DXCall)
		}
	}
}

// Recent returns up to n of the most recently published spots, newest first.
func (h *Hub) Recent(n int) []*spot.Spot {
	return h.ring.recent(n)
}

// SubscriberCount reports the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
