package services

import (
	"sync"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/core/routing"
	"campus-aid-buddy/internal/metrics"
)

// Ticket feed event types
const (
	TicketEventCreated = "ticket.created"
	TicketEventUpdated = "ticket.updated"
)

// TicketEvent is one snapshot pushed to feed subscribers
type TicketEvent struct {
	Type   string                 `json:"type"`
	Ticket *models.TicketResponse `json:"ticket"`
}

// TicketFeed fans ticket snapshots out to live subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the event.
type TicketFeed struct {
	mu     sync.RWMutex
	subs   map[*FeedSubscription]struct{}
	buffer int
	closed bool
}

// FeedSubscription receives the events its viewer may see
type FeedSubscription struct {
	viewer routing.Viewer
	ch     chan TicketEvent
}

// Events returns the receive side. It is closed on Unsubscribe.
func (s *FeedSubscription) Events() <-chan TicketEvent {
	return s.ch
}

// NewTicketFeed creates a feed with a per-subscriber buffer of size buffer
func NewTicketFeed(buffer int) *TicketFeed {
	if buffer < 1 {
		buffer = 16
	}
	return &TicketFeed{
		subs:   make(map[*FeedSubscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber filtered by viewer's visibility rules.
// On a closed feed the subscription's channel is already closed.
func (f *TicketFeed) Subscribe(viewer routing.Viewer) *FeedSubscription {
	sub := &FeedSubscription{viewer: viewer, ch: make(chan TicketEvent, f.buffer)}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(sub.ch)
		return sub
	}
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	metrics.FeedSubscribers.Inc()
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (f *TicketFeed) Unsubscribe(sub *FeedSubscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[sub]; !ok {
		return
	}
	delete(f.subs, sub)
	close(sub.ch)
	metrics.FeedSubscribers.Dec()
}

// Close ends every subscription so open streams can finish. Later
// subscriptions end immediately.
func (f *TicketFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for sub := range f.subs {
		delete(f.subs, sub)
		close(sub.ch)
		metrics.FeedSubscribers.Dec()
	}
}

// Publish delivers t to every subscriber allowed to view it
func (f *TicketFeed) Publish(eventType string, t *models.Ticket) {
	if f == nil || t == nil {
		return
	}
	ev := TicketEvent{Type: eventType, Ticket: t.ToResponse()}
	viewable := t.Viewable()

	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subs {
		if !routing.CanViewTicket(sub.viewer, viewable) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			metrics.FeedDropped.Inc()
		}
	}
}

// Subscribers returns the number of connected subscribers
func (f *TicketFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
