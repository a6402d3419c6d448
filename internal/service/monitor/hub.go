package monitor

import (
	"sync"
	"time"
)

// Record describes the handling of one event.
type Record struct {
	DeliveryID string    `json:"deliveryId"`
	Kind       string    `json:"kind"`
	SenderID   string    `json:"senderId,omitempty"`
	Route      string    `json:"route,omitempty"`
	Units      int       `json:"units"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

// Hub fans records out to subscribers. Slow subscribers lose records
// rather than blocking triage.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Record]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Record]struct{})}
}

// Subscribe registers a subscriber. The returned func unsubscribes and
// closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Record, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Record, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers rec to every subscriber with room in its buffer.
func (h *Hub) Publish(rec Record) {
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}

// Subscribers is the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
