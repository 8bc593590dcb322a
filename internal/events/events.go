// Package events streams journal changes to connected WebSocket
// clients. Events are private: a subscriber only ever sees events for
// its own user. In production they travel through Redis pub/sub so all
// instances fan out to their local connections; in mock mode the local
// publisher feeds the hub directly.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/lifetrack-app/lifetrack-backend/internal/models"
)

const (
	TypeCreated = "entry.created"
	TypeUpdated = "entry.updated"
	TypeDeleted = "entry.deleted"
)

// Event is the payload broadcast over Redis and WebSocket.
type Event struct {
	Type      string               `json:"type"`
	UserID    string               `json:"userId"`
	EntryID   string               `json:"entryId"`
	Entry     *models.JournalEntry `json:"entry,omitempty"` // absent on deletes
	Timestamp time.Time            `json:"timestamp"`
}

// Publisher delivers an event toward subscribers. Implementations are
// best-effort; the caller treats failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Hub tracks this instance's live subscriptions and fans events out to
// them. Slow subscribers lose events rather than stall the hub.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event // userID -> subscription id -> channel
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers interest in one user's events. The returned
// cancel function must be called when the subscriber goes away; it
// closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan Event)
	}
	h.subs[userID][id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if chans, ok := h.subs[userID]; ok {
			if c, ok := chans[id]; ok {
				delete(chans, id)
				close(c)
			}
			if len(chans) == 0 {
				delete(h.subs, userID)
			}
		}
	}
	return ch, cancel
}

// Broadcast sends the event to every local subscriber of its user.
func (h *Hub) Broadcast(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[evt.UserID] {
		select {
		case ch <- evt:
		default: // subscriber is not keeping up
		}
	}
}

// Subscribers reports how many channels are registered for a user.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// LocalPublisher feeds the hub directly, skipping Redis. Used in mock
// mode and tests.
type LocalPublisher struct {
	hub *Hub
}

var _ Publisher = (*LocalPublisher)(nil)

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) Publish(_ context.Context, evt Event) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	p.hub.Broadcast(evt)
	return nil
}
