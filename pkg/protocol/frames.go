// Package protocol defines the wire types the countdown stream sends to
// subscribed display surfaces. Frames are JSON envelopes carried as
// server-sent events.
package protocol

import "encoding/json"

// FrameType identifies the type of stream frame.
type FrameType string

const (
	// Connection lifecycle
	FrameTypeConnectionAck FrameType = "connection_ack"

	// Countdown
	FrameTypeTick    FrameType = "tick"
	FrameTypeExpired FrameType = "expired"

	// Errors
	FrameTypeError FrameType = "error"
)

// Frame is the base structure for all stream frames.
type Frame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConnectionAck is sent once after a subscriber attaches to the stream.
type ConnectionAck struct {
	SubscriberID   string `json:"subscriber_id"`
	TickIntervalMs int    `json:"tick_interval_ms"`
}

// Tick carries one recomputed remaining duration. The slot strings are
// display-ready: hours, minutes, and seconds are zero-padded to two digits,
// days is unpadded.
type Tick struct {
	Days        string `json:"days"`
	Hours       string `json:"hours"`
	Minutes     string `json:"minutes"`
	Seconds     string `json:"seconds"`
	TotalMillis int64  `json:"total_ms"`
}

// Expired is the terminal frame: the countdown panel should be hidden and
// the launched content revealed under the given headline.
type Expired struct {
	Headline string `json:"headline"`
}

// Error is sent to report a stream error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewFrame creates a Frame with the given type and payload.
func NewFrame(frameType FrameType, payload interface{}) (*Frame, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Frame{
		Type:    frameType,
		Payload: payloadBytes,
	}, nil
}

// ParsePayload unmarshals the frame payload into the given struct.
func (f *Frame) ParsePayload(v interface{}) error {
	if f.Payload == nil {
		return nil
	}
	return json.Unmarshal(f.Payload, v)
}
