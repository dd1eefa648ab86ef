// Package notify implements the change-notification fan-out: a mutation
// anywhere in the API pushes a lightweight "something changed" event to
// every connected dashboard, which is expected to re-fetch through the read
// path. Delivery is best-effort; there is no queue, no replay, and no
// per-observer targeting.
package notify

import (
	"log"
	"sync"
	"time"
)

// Event is the broadcast payload: just the emission timestamp. Observers
// re-derive truth from the read endpoints, so no delta is carried.
type Event struct {
	Timestamp string `json:"timestamp"`
}

// NewEvent stamps an event with the current UTC time in ISO-8601.
func NewEvent() Event {
	return Event{Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// Observer receives broadcast events. Implementations must not block; a
// slow consumer drops events rather than stalling the hub.
type Observer interface {
	Send(Event)
}

// Notifier owns the set of currently connected observers. Register,
// Unregister, and Broadcast are safe to call concurrently.
type Notifier struct {
	mu        sync.RWMutex
	observers map[Observer]struct{}
}

// NewNotifier creates an empty hub.
func NewNotifier() *Notifier {
	return &Notifier{observers: make(map[Observer]struct{})}
}

// Register adds an observer to the broadcast set.
func (n *Notifier) Register(o Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers[o] = struct{}{}
}

// Unregister removes an observer. Safe to call for an observer that was
// never registered or was already removed.
func (n *Notifier) Unregister(o Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, o)
}

// Count returns the number of connected observers.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}

// Broadcast delivers ev to every currently registered observer. A panicking
// observer is logged and skipped; nothing propagates back to the mutating
// request that triggered the broadcast.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	targets := make([]Observer, 0, len(n.observers))
	for o := range n.observers {
		targets = append(targets, o)
	}
	n.mu.RUnlock()

	for _, o := range targets {
		deliver(o, ev)
	}
}

func deliver(o Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notify: observer send panicked: %v", r)
		}
	}()
	o.Send(ev)
}
