// If you are AI: This file implements WebSocket-FLV subscriber that reads from bus and writes FLV.
// Subscriber manages the WebSocket connection lifecycle and message processing.

package wsflv

import (
	"context"

	"inlet/internal/core/bus"
	"inlet/internal/core/protocol/flv"
)

// Subscriber represents a WebSocket-FLV client subscriber.
// Reads messages from the bus and writes FLV tags to the WebSocket connection.
type Subscriber struct {
	conn          WebSocketConn
	busSubscriber *bus.Subscriber
	stream        *bus.Stream
	subscriberID  uint64
	preludeSent   bool
	gotKeyframe   bool   // True after first video keyframe received
	tsOffset      uint32 // First media timestamp, subtracted from all subsequent
	tsBaseSet     bool   // True after tsOffset is captured
}

// WebSocketConn defines the interface for WebSocket operations.
// This allows for easier testing and abstraction.
type WebSocketConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// NewSubscriber creates a new WebSocket-FLV subscriber.
func NewSubscriber(conn WebSocketConn, stream *bus.Stream) *Subscriber {
	return &Subscriber{
		conn:   conn,
		stream: stream,
	}
}

// WritePrelude sends the stream's format blob as the first binary frame.
// Falls back to a bare FLV header when the publisher has not signaled its
// format yet.
func (s *Subscriber) WritePrelude() error {
	if s.preludeSent {
		return nil
	}

	blob := s.stream.Format()
	if blob == nil {
		header := flv.NewHeader(true, true)
		frame := make([]byte, 0, flv.FLVHeaderSize+4)
		frame = append(frame, header.Bytes()...)
		frame = append(frame, 0, 0, 0, 0)
		blob = frame
	}

	if err := s.conn.WriteMessage(2, blob); err != nil {
		return err
	}
	s.preludeSent = true
	return nil
}

// Stream writes FLV tags as binary frames until the publisher ends the
// stream, the context is cancelled, or the client disconnects.
// ALL media frames are dropped until the first video keyframe arrives, so that
// audio and video start simultaneously and the decoder can initialize properly.
// Timestamps are rebased so the subscriber's stream starts at ts=0, preventing
// players from buffering a multi-second gap between prelude and live data.
func (s *Subscriber) Stream(ctx context.Context) error {
	if s.busSubscriber == nil {
		return nil
	}

	for {
		for {
			msg, ok := s.busSubscriber.Buffer().Read()
			if !ok {
				break
			}
			if err := s.writeTag(msg); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stream.Done():
			for {
				msg, ok := s.busSubscriber.Buffer().Read()
				if !ok {
					return nil
				}
				if err := s.writeTag(msg); err != nil {
					return err
				}
			}
		case <-s.busSubscriber.Notify():
		}
	}
}

// writeTag applies keyframe gating and timestamp rebasing, then writes one
// FLV tag as a single binary WebSocket frame.
func (s *Subscriber) writeTag(msg *bus.MediaMessage) error {
	// Keyframe gating: drop media until the first video keyframe. Audio piling
	// up before video causes player buffer deadlocks.
	if !s.gotKeyframe {
		if msg.Type == bus.MessageTypeVideo && flv.IsVideoKeyframe(msg.Payload) {
			s.gotKeyframe = true
		} else if msg.Type != bus.MessageTypeMetadata {
			return nil
		}
	}

	tag := flv.Mux(msg)
	if tag == nil {
		return nil
	}
	tag.Timestamp = s.rebaseTimestamp(msg)

	return s.conn.WriteMessage(2, tag.Bytes())
}

// rebaseTimestamp adjusts a message timestamp so the subscriber's stream starts at ts=0.
// The first media timestamp becomes the offset subtracted from all subsequent ones.
func (s *Subscriber) rebaseTimestamp(msg *bus.MediaMessage) uint32 {
	if msg.Type == bus.MessageTypeMetadata {
		return 0
	}
	if !s.tsBaseSet {
		s.tsOffset = msg.Timestamp
		s.tsBaseSet = true
	}
	if msg.Timestamp < s.tsOffset {
		return 0 // Guard against underflow
	}
	return msg.Timestamp - s.tsOffset
}

// Attach attaches the subscriber to the stream.
// Returns the subscriber ID for later detach.
// Backpressure strategy: DropOldest - same as HTTP-FLV to ensure consistency.
// Slow WebSocket clients drop oldest frames to prevent blocking publisher.
func (s *Subscriber) Attach() uint64 {
	busSub, id := s.stream.AttachSubscriber(1024, bus.BackpressureDropOldest)
	s.busSubscriber = busSub
	s.subscriberID = id
	return id
}

// Detach detaches the subscriber from the stream.
func (s *Subscriber) Detach() {
	if s.stream != nil && s.subscriberID != 0 {
		s.stream.DetachSubscriber(s.subscriberID)
		s.subscriberID = 0
		s.busSubscriber = nil
	}
}
