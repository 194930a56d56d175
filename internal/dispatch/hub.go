package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/pkg/logger"
	"github.com/festpay/festpay-backend/pkg/metrics"
)

const defaultSubscriberBuffer = 32

// Broker routes order lifecycle events to the subscribers of a stall room.
// Delivery is at-most-once and best-effort: the ledger/order mutation has
// already committed by the time Publish runs, so failures here are absorbed,
// never propagated. Displays reconcile with the live-orders query after a
// reconnect; no backlog is kept.
type Broker interface {
	Publish(ctx context.Context, event Event)
	Subscribe(ctx context.Context, stallID uuid.UUID) (<-chan Event, func())
}

type subscriber struct {
	ch chan Event
}

// Hub is the in-process Broker. One mutex guards the room map and every
// publish, which gives each stall room a single dispatch point: events for
// one stall are observed in emission order by every subscriber.
type Hub struct {
	mu             sync.Mutex
	rooms          map[uuid.UUID]map[*subscriber]struct{}
	buffer         int
	publishTimeout time.Duration
	logg           *logger.Logger
	metrics        *metrics.PlatformMetrics
}

// NewHub builds a dispatch hub. publishTimeout bounds how long Publish waits
// on a saturated subscriber before dropping the event; zero means drop
// immediately.
func NewHub(buffer int, publishTimeout time.Duration, logg *logger.Logger, m *metrics.PlatformMetrics) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		rooms:          make(map[uuid.UUID]map[*subscriber]struct{}),
		buffer:         buffer,
		publishTimeout: publishTimeout,
		logg:           logg,
		metrics:        m,
	}
}

// Publish fans the event out to every subscriber of its stall room. A
// subscriber that stays saturated past the publish timeout misses the event
// (it will catch up via the live fetch); a room with no subscribers swallows
// it silently. The wait runs under the hub lock, so the timeout should stay
// small relative to the stream heartbeat.
func (h *Hub) Publish(ctx context.Context, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.metrics.IncPublished(string(event.Type))

	room := h.rooms[event.StallID]
	if len(room) == 0 {
		return
	}

	for sub := range room {
		if h.send(sub, event) {
			continue
		}
		h.metrics.IncDropped(string(event.Type))
		if h.logg != nil {
			entry := h.logg.WithFields(ctx, map[string]any{
				"stall_id": event.StallID.String(),
				"event":    string(event.Type),
			})
			h.logg.Warn(entry, "dispatch.subscriber_saturated")
		}
	}
}

// send queues the event, waiting up to the publish timeout for a saturated
// subscriber to drain. The caller holds the hub lock, so the channel cannot
// be closed out from under the send.
func (h *Hub) send(sub *subscriber, event Event) bool {
	select {
	case sub.ch <- event:
		return true
	default:
	}
	if h.publishTimeout <= 0 {
		return false
	}
	timer := time.NewTimer(h.publishTimeout)
	defer timer.Stop()
	select {
	case sub.ch <- event:
		return true
	case <-timer.C:
		return false
	}
}

// Subscribe joins the stall room and returns the event stream plus a cancel
// function. Cancel is idempotent and closes the stream.
func (h *Hub) Subscribe(ctx context.Context, stallID uuid.UUID) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	room, ok := h.rooms[stallID]
	if !ok {
		room = make(map[*subscriber]struct{})
		h.rooms[stallID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()

	h.metrics.SubscriberConnected(1)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if room, ok := h.rooms[stallID]; ok {
				delete(room, sub)
				if len(room) == 0 {
					delete(h.rooms, stallID)
				}
			}
			close(sub.ch)
			h.mu.Unlock()
			h.metrics.SubscriberConnected(-1)
		})
	}

	return sub.ch, cancel
}
