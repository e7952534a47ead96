// If you are AI: This file contains unit tests for the bus-backed emitter.

package ingest

import (
	"testing"

	"inlet/internal/core/bus"
	"inlet/internal/core/protocol/flv"
)

func TestBusEmitterExclusivePublisher(t *testing.T) {
	stream := bus.NewStream(bus.NewStreamKey("live", "test"))

	first, err := NewBusEmitter(stream, 1)
	if err != nil {
		t.Fatalf("First emitter should attach: %v", err)
	}

	if _, err := NewBusEmitter(stream, 2); err != ErrStreamBusy {
		t.Errorf("Expected ErrStreamBusy for second publisher, got %v", err)
	}

	first.EndOfStream()
	if stream.HasPublisher() {
		t.Error("Publisher should detach on end-of-stream")
	}
}

func TestBusEmitterFormatBlob(t *testing.T) {
	stream := bus.NewStream(bus.NewStreamKey("live", "test"))
	emitter, err := NewBusEmitter(stream, 1)
	if err != nil {
		t.Fatalf("NewBusEmitter failed: %v", err)
	}

	if err := emitter.FormatReady(map[string]interface{}{"width": float64(1280)}); err != nil {
		t.Fatalf("FormatReady failed: %v", err)
	}

	blob := stream.Format()
	if blob == nil {
		t.Fatal("Expected a cached format blob")
	}
	if string(blob[0:3]) != flv.FLVSignature {
		t.Errorf("Expected blob to start with the FLV header, got '%s'", blob[0:3])
	}
	// Header + zero previous tag size, then the onMetaData script tag.
	if len(blob) <= flv.FLVHeaderSize+4 {
		t.Error("Expected a script tag after the FLV header")
	}
	if blob[flv.FLVHeaderSize+4] != flv.TagTypeScript {
		t.Errorf("Expected script tag type %d, got %d", flv.TagTypeScript, blob[flv.FLVHeaderSize+4])
	}
}

func TestBusEmitterFansOutTags(t *testing.T) {
	stream := bus.NewStream(bus.NewStreamKey("live", "test"))
	emitter, err := NewBusEmitter(stream, 1)
	if err != nil {
		t.Fatalf("NewBusEmitter failed: %v", err)
	}

	sub, _ := stream.AttachSubscriber(10, bus.BackpressureDropOldest)

	if err := emitter.WriteTag(flv.TagTypeVideo, 500, []byte{0x17}); err != nil {
		t.Fatalf("WriteTag failed: %v", err)
	}

	msg, ok := sub.Buffer().Read()
	if !ok {
		t.Fatal("Subscriber should receive the tag")
	}
	if msg.Type != bus.MessageTypeVideo {
		t.Errorf("Expected video message, got %s", msg.Type)
	}
	if msg.Timestamp != 500 {
		t.Errorf("Expected timestamp 500, got %d", msg.Timestamp)
	}
}

func TestBusEmitterEndOfStreamIdempotent(t *testing.T) {
	stream := bus.NewStream(bus.NewStreamKey("live", "test"))
	emitter, err := NewBusEmitter(stream, 1)
	if err != nil {
		t.Fatalf("NewBusEmitter failed: %v", err)
	}

	emitter.EndOfStream()
	emitter.EndOfStream() // must not panic on double close

	if !stream.Closed() {
		t.Error("Stream should be closed")
	}

	// Tags after end-of-stream are dropped silently.
	if err := emitter.WriteTag(flv.TagTypeAudio, 0, []byte{0xAF}); err != nil {
		t.Errorf("WriteTag after end-of-stream should be a no-op, got %v", err)
	}
}
