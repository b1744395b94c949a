package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mpedrosa/launchclock/internal/display"
	"github.com/mpedrosa/launchclock/internal/domain"
	"github.com/mpedrosa/launchclock/internal/errmap"
	"github.com/mpedrosa/launchclock/internal/hub"
	"github.com/mpedrosa/launchclock/internal/observability"
	"github.com/mpedrosa/launchclock/internal/presence"
	"github.com/mpedrosa/launchclock/pkg/protocol"
)

// handlers serves the countdown endpoints. presence may be nil when the
// viewer counter is disabled.
type handlers struct {
	state        *launchState
	hub          *hub.Hub
	presence     *presence.Tracker
	tickInterval time.Duration
	logger       *slog.Logger
}

// countdownSnapshot is the response body of GET /v1/countdown.
type countdownSnapshot struct {
	Phase     domain.Phase  `json:"phase"`
	Deadline  string        `json:"deadline"`
	Countdown protocol.Tick `json:"countdown"`
	Headline  string        `json:"headline,omitempty"`
	Viewers   *int64        `json:"viewers,omitempty"`
}

// handleSnapshot returns the last published remaining duration, the visible
// phase, and the viewer count when presence tracking is enabled.
func (h *handlers) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	phase, deadline, headline, rem := h.state.snapshot()

	resp := countdownSnapshot{
		Phase:     phase,
		Deadline:  deadline.Format(time.RFC3339),
		Countdown: display.TickPayload(rem),
	}
	if phase == domain.PhaseLaunched {
		resp.Headline = headline
	}

	// Presence is cosmetic: a Redis failure drops the field, never the page.
	if h.presence != nil {
		if n, err := h.presence.Count(r.Context()); err != nil {
			observability.WithTraceID(r.Context(), h.logger).Log(r.Context(), presenceLogLevel(err),
				"viewer count unavailable", slog.String("error", err.Error()))
		} else {
			resp.Viewers = &n
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encode snapshot", slog.String("error", err.Error()))
	}
}

// handleStream attaches the caller to the tick stream as a server-sent
// event feed. The subscriber receives a connection_ack frame, then tick
// frames until expiry or disconnect; the feed ends after the terminal
// expired frame.
func (h *handlers) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		errmap.WriteHTTPError(w, domain.ErrUnavailable)
		return
	}

	id, frames, err := h.hub.Subscribe()
	if err != nil {
		// Post-launch requests land here routinely once the hub is closed.
		// Only server-side rejections, such as the subscriber cap, escalate.
		lvl := slog.LevelError
		if domain.IsClientError(err) || errors.Is(err, domain.ErrHubClosed) {
			lvl = slog.LevelDebug
		}
		h.logger.Log(r.Context(), lvl, "stream subscribe rejected", slog.String("error", err.Error()))
		errmap.WriteHTTPError(w, err)
		return
	}
	defer h.hub.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// The open stream doubles as the viewer's presence signal. Register it
	// before the ack goes out so a snapshot taken right after the ack sees
	// this viewer.
	h.heartbeat(r.Context(), id)

	ack, err := protocol.NewFrame(protocol.FrameTypeConnectionAck, protocol.ConnectionAck{
		SubscriberID:   id,
		TickIntervalMs: int(h.tickInterval.Milliseconds()),
	})
	if err != nil {
		h.logger.Error("build connection ack", slog.String("error", err.Error()))
		return
	}
	if err := writeEvent(w, flusher, ack); err != nil {
		return
	}
	heartbeats := time.NewTicker(domain.PresenceWindow / 2)
	defer heartbeats.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeats.C:
			h.heartbeat(r.Context(), id)
		case frame, open := <-frames:
			if !open {
				// Hub closed: countdown expired or server shutting down.
				return
			}
			if err := writeEvent(w, flusher, frame); err != nil {
				return
			}
		}
	}
}

func (h *handlers) heartbeat(ctx context.Context, viewerID string) {
	if h.presence == nil {
		return
	}
	if _, err := h.presence.Heartbeat(ctx, viewerID); err != nil {
		observability.WithTraceID(ctx, h.logger).Log(ctx, presenceLogLevel(err),
			"presence heartbeat failed",
			slog.String("viewer_id", viewerID),
			slog.String("error", err.Error()),
		)
	}
}

// presenceLogLevel demotes transient presence failures to warnings. The
// viewer counter is cosmetic and the next heartbeat window retries it.
func presenceLogLevel(err error) slog.Level {
	if domain.IsRetryable(err) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// writeEvent writes one frame as a server-sent event and flushes it.
func writeEvent(w io.Writer, flusher http.Flusher, frame *protocol.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
