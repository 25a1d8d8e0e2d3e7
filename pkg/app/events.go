package app

import (
	"sync"

	"github.com/google/uuid"
)

// EventID identifies a single sent event.
type EventID = uuid.UUID

// Event pairs a payload with the ID it was sent under.
type Event[E any] struct {
	ID      EventID
	Payload E
}

// Events is an unbounded queue of events of one type, kept in send order.
type Events[E any] struct {
	mu     sync.Mutex
	events []Event[E]
}

// Send appends ev to the queue.
func (q *Events[E]) Send(ev E) EventID {
	id := uuid.New()
	q.mu.Lock()
	q.events = append(q.events, Event[E]{ID: id, Payload: ev})
	q.mu.Unlock()
	return id
}

// Len reports the number of undrained events.
func (q *Events[E]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drain removes and returns every queued event, oldest first.
func (q *Events[E]) Drain() []Event[E] {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// DrainPayloads is Drain without the IDs.
func (q *Events[E]) DrainPayloads() []E {
	events := q.Drain()
	out := make([]E, len(events))
	for i, ev := range events {
		out[i] = ev.Payload
	}
	return out
}

// AddEvent registers an Events[E] resource if none exists and returns it.
func AddEvent[E any](a *App) *Events[E] {
	if q, ok := Resource[Events[E]](a); ok {
		return q
	}
	q := new(Events[E])
	a.insert(q)
	return q
}
