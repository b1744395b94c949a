package hub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpedrosa/launchclock/internal/domain"
	"github.com/mpedrosa/launchclock/internal/hub"
	"github.com/mpedrosa/launchclock/pkg/protocol"
)

func tickFrame(t *testing.T) *protocol.Frame {
	t.Helper()
	f, err := protocol.NewFrame(protocol.FrameTypeTick, protocol.Tick{
		Days: "0", Hours: "00", Minutes: "00", Seconds: "01", TotalMillis: 1000,
	})
	require.NoError(t, err)
	return f
}

func TestSubscribeAndBroadcast(t *testing.T) {
	h := hub.New(nil)
	defer h.Close()

	id1, ch1, err := h.Subscribe()
	require.NoError(t, err)
	id2, ch2, err := h.Subscribe()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, h.Len())

	frame := tickFrame(t)
	h.Broadcast(frame)

	assert.Equal(t, frame, <-ch1)
	assert.Equal(t, frame, <-ch2)
}

func TestUnsubscribe(t *testing.T) {
	h := hub.New(nil)
	defer h.Close()

	id, ch, err := h.Subscribe()
	require.NoError(t, err)

	h.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open, "channel closes on unsubscribe")
	assert.Zero(t, h.Len())

	t.Run("unknown id is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() { h.Unsubscribe("nope") })
		assert.NotPanics(t, func() { h.Unsubscribe(id) })
	})
}

func TestSlowConsumerDrop(t *testing.T) {
	h := hub.New(nil)
	defer h.Close()

	_, slow, err := h.Subscribe()
	require.NoError(t, err)
	_, healthy, err := h.Subscribe()
	require.NoError(t, err)

	frame := tickFrame(t)

	// Fill the slow subscriber's buffer without draining it, then one more
	// broadcast triggers the drop. The healthy subscriber drains as it goes.
	for i := 0; i < domain.SubscriberBufferSize; i++ {
		h.Broadcast(frame)
		<-healthy
	}
	h.Broadcast(frame)
	<-healthy

	assert.Equal(t, 1, h.Len(), "slow subscriber was dropped")

	// Drain what the slow subscriber buffered; the channel must then be closed.
	n := 0
	for range slow {
		n++
	}
	assert.Equal(t, domain.SubscriberBufferSize, n)
}

func TestClose(t *testing.T) {
	h := hub.New(nil)

	_, ch, err := h.Subscribe()
	require.NoError(t, err)

	h.Close()

	_, open := <-ch
	assert.False(t, open, "channels close when hub closes")

	t.Run("subscribe after close is rejected", func(t *testing.T) {
		_, _, err := h.Subscribe()
		assert.ErrorIs(t, err, domain.ErrHubClosed)
	})

	t.Run("broadcast after close is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() { h.Broadcast(tickFrame(t)) })
	})

	t.Run("close is idempotent", func(t *testing.T) {
		assert.NotPanics(t, func() { h.Close() })
	})
}
