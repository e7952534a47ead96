// If you are AI: This file contains unit tests for keyframe gating and
// timestamp rebasing in the WebSocket-FLV subscriber.

package wsflv

import (
	"testing"

	"inlet/internal/core/bus"
	"inlet/internal/core/protocol/flv"
)

// fakeConn records written WebSocket frames.
type fakeConn struct {
	frames [][]byte
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func mediaMsg(msgType bus.MessageType, ts uint32, payload []byte) *bus.MediaMessage {
	return &bus.MediaMessage{Type: msgType, Timestamp: ts, Payload: payload}
}

func TestWriteTagDropsMediaBeforeKeyframe(t *testing.T) {
	conn := &fakeConn{}
	stream := bus.NewStream(bus.NewStreamKey("live", "test"))
	sub := NewSubscriber(conn, stream)

	// Audio and inter frame before any keyframe: dropped.
	sub.writeTag(mediaMsg(bus.MessageTypeAudio, 100, []byte{0xAF, 0x01}))
	sub.writeTag(mediaMsg(bus.MessageTypeVideo, 110, []byte{0x27, 0x01})) // inter frame
	if len(conn.frames) != 0 {
		t.Fatalf("Expected media before keyframe to drop, got %d frames", len(conn.frames))
	}

	// Keyframe opens the gate.
	sub.writeTag(mediaMsg(bus.MessageTypeVideo, 120, []byte{0x17, 0x01})) // keyframe
	sub.writeTag(mediaMsg(bus.MessageTypeAudio, 130, []byte{0xAF, 0x01}))
	if len(conn.frames) != 2 {
		t.Fatalf("Expected 2 frames after keyframe, got %d", len(conn.frames))
	}

	// First passed frame rebases to ts=0.
	first := conn.frames[0]
	ts := uint32(first[4])<<16 | uint32(first[5])<<8 | uint32(first[6]) | uint32(first[7])<<24
	if ts != 0 {
		t.Errorf("Expected rebased timestamp 0, got %d", ts)
	}

	// Second frame keeps its delta from the rebase point.
	second := conn.frames[1]
	ts = uint32(second[4])<<16 | uint32(second[5])<<8 | uint32(second[6]) | uint32(second[7])<<24
	if ts != 10 {
		t.Errorf("Expected rebased timestamp 10, got %d", ts)
	}
}

func TestWriteTagMetadataPassesGate(t *testing.T) {
	conn := &fakeConn{}
	stream := bus.NewStream(bus.NewStreamKey("live", "test"))
	sub := NewSubscriber(conn, stream)

	sub.writeTag(mediaMsg(bus.MessageTypeMetadata, 500, []byte{0x02}))
	if len(conn.frames) != 1 {
		t.Fatalf("Expected metadata to pass the keyframe gate, got %d frames", len(conn.frames))
	}
	if conn.frames[0][0] != flv.TagTypeScript {
		t.Errorf("Expected script tag, got type %d", conn.frames[0][0])
	}
}
