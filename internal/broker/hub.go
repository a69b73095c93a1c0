// Package broker is the fan-out hub for the live channel. It keeps a
// registry of connected sessions and pushes events to all of them, to all
// but one, or to exactly one. Delivery is best-effort: a slow or dead
// session never blocks a broadcast or its neighbours.
package broker

import (
	"sync"

	"github.com/google/uuid"
)

// BroadcastOptions narrow a broadcast's audience. Zero value means every
// connected session. Target wins over Exclude when both are set.
type BroadcastOptions struct {
	Exclude string // session ID to skip
	Target  string // session ID to address exclusively
}

// Hub is the registry of live sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

// add registers a session under a fresh ID.
func (h *Hub) add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
}

// remove drops a session from the registry. Safe to call during an
// in-progress broadcast and more than once.
func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Count returns the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast queues an event for delivery. Within one session events arrive
// in Broadcast order; across sessions no ordering is guaranteed. A session
// whose send buffer is full misses the event rather than stalling the rest.
func (h *Hub) Broadcast(event Event, opts ...BroadcastOptions) {
	var o BroadcastOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for id, s := range h.sessions {
		if o.Target != "" {
			if id == o.Target {
				targets = append(targets, s)
			}
			continue
		}
		if o.Exclude != "" && id == o.Exclude {
			continue
		}
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.enqueue(event)
	}
}

func newSessionID() string {
	return uuid.NewString()
}
