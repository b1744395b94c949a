// Package hub fans countdown frames out to stream subscribers. One hub
// serves one countdown; subscribers are browser connections holding an
// open stream.
package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpedrosa/launchclock/internal/domain"
	"github.com/mpedrosa/launchclock/internal/observability"
	"github.com/mpedrosa/launchclock/pkg/protocol"
)

var (
	subscribersActive metric.Int64UpDownCounter
	slowConsumerDrops metric.Int64Counter
)

func init() {
	m := observability.Meter("hub")

	subscribersActive, _ = m.Int64UpDownCounter("stream_subscribers_active",
		metric.WithDescription("Currently attached stream subscribers"))
	slowConsumerDrops, _ = m.Int64Counter("stream_slow_consumer_drops_total",
		metric.WithDescription("Subscribers dropped for not consuming ticks"))
}

// Hub delivers frames to all attached subscribers. Broadcast never blocks:
// a subscriber whose buffer is full is dropped as a slow consumer rather
// than stalling the tick loop.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan *protocol.Frame
	closed bool
	logger *slog.Logger
}

// New creates an empty hub. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]chan *protocol.Frame),
		logger: logger,
	}
}

// Subscribe attaches a new subscriber and returns its ID and receive
// channel. The channel is closed when the subscriber is dropped, the hub
// closes, or Unsubscribe is called.
func (h *Hub) Subscribe() (string, <-chan *protocol.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", nil, domain.ErrHubClosed
	}
	if len(h.subs) >= domain.MaxSubscribersPerHub {
		return "", nil, domain.ErrUnavailable
	}

	id := uuid.NewString()
	ch := make(chan *protocol.Frame, domain.SubscriberBufferSize)
	h.subs[id] = ch
	subscribersActive.Add(context.Background(), 1)

	return id, ch, nil
}

// Unsubscribe detaches a subscriber and closes its channel. Unknown IDs are
// a no-op, so it is safe to call after a slow-consumer drop.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(ch)
	subscribersActive.Add(context.Background(), -1)
}

// Broadcast delivers a frame to every subscriber without blocking.
// Subscribers with a full buffer are dropped (domain.ErrSlowConsumer
// semantics): their channel closes and they must re-subscribe.
func (h *Hub) Broadcast(f *protocol.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for id, ch := range h.subs {
		select {
		case ch <- f:
		default:
			delete(h.subs, id)
			close(ch)
			subscribersActive.Add(context.Background(), -1)
			slowConsumerDrops.Add(context.Background(), 1)
			h.logger.Warn("dropping slow stream subscriber",
				slog.String("subscriber_id", id),
				slog.String("error", domain.ErrSlowConsumer.Error()),
			)
		}
	}
}

// Close detaches all subscribers and rejects future subscriptions.
// Idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
		subscribersActive.Add(context.Background(), -1)
	}
}

// Len returns the number of attached subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
