// Package events carries change notifications from the write path to
// live subscribers. Publishers report that a collection changed, not
// what changed; consumers re-read the collection for the latest
// snapshot.
package events

import (
	"sync"

	"github.com/famledger/famledger/internal/models"
)

// Event marks one owner's collection as changed. Owner is empty for
// global collections.
type Event struct {
	Owner string
	Topic models.Topic
}

// Handler receives published events. Handlers run on the publishing
// goroutine and must not block.
type Handler func(Event)

// Bus is an in-process fan-out of change events.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns a function that removes
// it. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(fn Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers evt to every current subscriber.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(evt)
	}
}
