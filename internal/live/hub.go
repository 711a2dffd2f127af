package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parkspot-backend/internal/metrics"
)

// Booking lifecycle events carried on the stream.
const (
	EventStart = "start"
	EventEnd   = "end"
)

// SSE frame names.
const (
	FrameBooking = "booking"
	FramePing    = "ping"
)

// Event is a booking state change broadcast to connected viewers.
type Event struct {
	Event     string     `json:"event"` // start or end
	SubSpotID int64      `json:"subSpotId"`
	UserID    int64      `json:"userId"`
	StartTime *time.Time `json:"startTime,omitempty"`
}

// Message is one frame ready to be written to a subscriber's transport.
type Message struct {
	Name string
	Data string
}

// Subscription is the handle returned to a connected viewer. C yields
// frames in broadcast order; it is closed when the subscriber is removed.
type Subscription struct {
	ID string
	C  <-chan Message
}

// Hub fans booking events out to currently-connected subscribers. It is an
// owned registry, not process-global state: tests and the server each hold
// their own instance. Delivery is best-effort and unreplayed; a viewer that
// connects after an event never sees it, because initial state always comes
// from the free/busy read path.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan Message
	buffer int

	keepalive time.Duration
	logger    zerolog.Logger
}

// NewHub creates an empty hub. buffer is the per-subscriber channel depth;
// a subscriber that falls that far behind is treated as disconnected.
func NewHub(buffer int, keepalive time.Duration, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:      make(map[string]chan Message),
		buffer:    buffer,
		keepalive: keepalive,
		logger:    logger,
	}
}

// Subscribe registers a new subscriber and immediately queues a liveness
// marker so intermediaries see traffic right away. The marker is loaded
// before the channel is published: once a channel is visible in h.subs a
// concurrent overflow may close it, so nothing sends on it afterwards
// except send().
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Message, h.buffer)
	ch <- Message{Name: FramePing, Data: "connected"}
	id := uuid.NewString()

	h.mu.Lock()
	h.subs[id] = ch
	n := len(h.subs)
	h.mu.Unlock()

	metrics.SetLiveSubscribers(n)
	h.logger.Debug().Str("subscriber", id).Int("total", n).Msg("live subscriber connected")
	return &Subscription{ID: id, C: ch}
}

// Unsubscribe removes a subscriber and closes its channel. Idempotent.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if !ok {
		return
	}
	close(ch)

	metrics.SetLiveSubscribers(n)
	h.logger.Debug().Str("subscriber", id).Int("total", n).Msg("live subscriber removed")
}

// Broadcast serializes the event once and pushes it to every subscriber.
// A subscriber whose channel is full is dropped, never waited on; one
// broken viewer must not delay the others or the booking write path.
func (h *Hub) Broadcast(ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to serialize live event")
		return
	}
	h.send(Message{Name: FrameBooking, Data: string(raw)})
}

// Run emits keepalive markers until the context is cancelled. The interval
// is fixed by config (~25s) so proxies do not time out idle streams.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.send(Message{Name: FramePing, Data: "keepalive"})
		case <-ctx.Done():
			return
		}
	}
}

// Len reports the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) send(msg Message) {
	var stalled []string

	h.mu.RLock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			stalled = append(stalled, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range stalled {
		h.logger.Warn().Str("subscriber", id).Msg("live subscriber stalled, dropping")
		h.Unsubscribe(id)
	}
}
