// Package live fans out catalog changes to streaming subscribers.
package live

import (
	"sync"
	"time"

	"backtestvault/internal/domain"
)

// EventType names a catalog change.
type EventType string

const (
	EventSnapshot  EventType = "snapshot"
	EventFinalized EventType = "finalized"
	EventDeleted   EventType = "deleted"
)

// Event is emitted to subscribers when a run is finalized or deleted.
// Snapshot events describe runs that existed when the subscriber joined.
type Event struct {
	Type        EventType
	ID          string
	Name        string
	Status      domain.CompletionStatus
	ArchivePath string
	Time        time.Time
}

// NewEvent describes bt as an event of the given type.
func NewEvent(typ EventType, bt *domain.Backtest) Event {
	return Event{
		Type:        typ,
		ID:          bt.ID,
		Name:        bt.Name,
		Status:      bt.Status,
		ArchivePath: bt.ArchivePath,
		Time:        time.Now().UTC(),
	}
}

// Hub broadcasts events to subscribers. Slow subscribers miss events
// rather than block the publisher.
type Hub struct {
	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe creates a new subscription channel for catalog events.
func (h *Hub) Subscribe(bufSize int) (id int, ch <-chan Event) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	id = h.nextSubID
	h.nextSubID++
	c := make(chan Event, bufSize)
	h.subs[id] = c
	return id, c
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(id int) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

// Publish sends e to every subscriber without blocking and returns the
// number of subscribers that received it.
func (h *Hub) Publish(e Event) int {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	sent := 0
	for _, ch := range h.subs {
		select {
		case ch <- e:
			sent++
		default:
			// Slow consumer, drop event.
		}
	}
	return sent
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	return len(h.subs)
}
