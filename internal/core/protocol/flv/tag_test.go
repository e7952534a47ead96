// If you are AI: This file contains unit tests for FLV tag framing and the file header.

package flv

import (
	"encoding/binary"
	"testing"

	"inlet/internal/core/bus"
)

func TestTagBytesFraming(t *testing.T) {
	data := []byte{0x17, 0x00, 0x01, 0x02}
	tag := NewTag(TagTypeVideo, 0x01234567, data)
	out := tag.Bytes()

	// 11-byte header + data + 4-byte previous tag size.
	if len(out) != 11+len(data)+4 {
		t.Fatalf("Expected %d bytes, got %d", 11+len(data)+4, len(out))
	}
	if out[0] != TagTypeVideo {
		t.Errorf("Expected tag type %d, got %d", TagTypeVideo, out[0])
	}

	dataSize := uint32(out[1])<<16 | uint32(out[2])<<8 | uint32(out[3])
	if dataSize != uint32(len(data)) {
		t.Errorf("Expected data size %d, got %d", len(data), dataSize)
	}

	// Timestamp: lower 24 bits then the extended byte.
	ts := uint32(out[4])<<16 | uint32(out[5])<<8 | uint32(out[6]) | uint32(out[7])<<24
	if ts != 0x01234567 {
		t.Errorf("Expected timestamp 0x01234567, got 0x%08x", ts)
	}

	prevSize := binary.BigEndian.Uint32(out[11+len(data):])
	if prevSize != uint32(11+len(data)) {
		t.Errorf("Expected previous tag size %d, got %d", 11+len(data), prevSize)
	}
}

func TestHeaderBytes(t *testing.T) {
	h := NewHeader(true, true)
	out := h.Bytes()

	if len(out) != FLVHeaderSize {
		t.Fatalf("Expected %d-byte header, got %d", FLVHeaderSize, len(out))
	}
	if string(out[0:3]) != FLVSignature {
		t.Errorf("Expected signature 'FLV', got '%s'", out[0:3])
	}
	if out[4] != 0x05 {
		t.Errorf("Expected audio+video flags 0x05, got 0x%02x", out[4])
	}

	audioOnly := NewHeader(true, false)
	if audioOnly.Bytes()[4] != 0x04 {
		t.Errorf("Expected audio-only flags 0x04, got 0x%02x", audioOnly.Bytes()[4])
	}
}

func TestMuxByMessageType(t *testing.T) {
	cases := []struct {
		msgType bus.MessageType
		tagType byte
	}{
		{bus.MessageTypeAudio, TagTypeAudio},
		{bus.MessageTypeVideo, TagTypeVideo},
		{bus.MessageTypeMetadata, TagTypeScript},
	}
	for _, c := range cases {
		msg := &bus.MediaMessage{Type: c.msgType, Timestamp: 42, Payload: []byte{1}}
		tag := Mux(msg)
		if tag == nil {
			t.Fatalf("Expected a tag for %s", c.msgType)
		}
		if tag.Type != c.tagType {
			t.Errorf("Expected tag type %d for %s, got %d", c.tagType, c.msgType, tag.Type)
		}
		if tag.Timestamp != 42 {
			t.Errorf("Expected timestamp 42, got %d", tag.Timestamp)
		}
	}

	if Mux(nil) != nil {
		t.Error("Expected nil tag for nil message")
	}
}

func TestIsVideoKeyframe(t *testing.T) {
	if !IsVideoKeyframe([]byte{0x17, 0x01}) {
		t.Error("Expected frame type 1 to be a keyframe")
	}
	if IsVideoKeyframe([]byte{0x27, 0x01}) {
		t.Error("Expected frame type 2 to not be a keyframe")
	}
	if IsVideoKeyframe(nil) {
		t.Error("Expected empty payload to not be a keyframe")
	}
}
