// If you are AI: This file defines the output boundary of the ingest session
// and its bus-backed implementation. Output is FLV-framed: a one-time format
// signal, tagged media payloads, and an exactly-once end-of-stream.

package ingest

import (
	"bytes"
	"errors"
	"sync"

	"inlet/internal/core/bus"
	"inlet/internal/core/protocol/amf0"
	"inlet/internal/core/protocol/flv"
)

// ErrStreamBusy is returned when a stream already has an active publisher.
var ErrStreamBusy = errors.New("stream already has a publisher")

// Emitter receives the demuxed output of one publish session.
// FormatReady fires at most once, before the first tag. EndOfStream fires
// exactly once when the transport closes; WriteTag calls after it are ignored.
type Emitter interface {
	FormatReady(metadata map[string]interface{}) error
	WriteTag(tagType byte, timestamp uint32, payload []byte) error
	EndOfStream() error
}

// EmitterFactory binds an emitter to a stream key once publish names it.
// Returning ErrStreamBusy rejects the publish without closing the connection.
type EmitterFactory func(key bus.StreamKey) (Emitter, error)

// BusEmitter publishes session output onto a bus stream.
// The format blob (FLV header plus onMetaData script tag) is cached on the
// stream so subscribers attaching later still receive it.
type BusEmitter struct {
	stream *bus.Stream
	pubID  uint64
	ended  sync.Once
}

// NewBusEmitter attaches a publisher to the stream and returns an emitter
// bound to it. Fails with ErrStreamBusy when a publisher is already attached.
func NewBusEmitter(stream *bus.Stream, publisherID uint64) (*BusEmitter, error) {
	if !stream.AttachPublisher(publisherID) {
		return nil, ErrStreamBusy
	}
	return &BusEmitter{stream: stream, pubID: publisherID}, nil
}

// Stream returns the bus stream this emitter publishes to.
func (e *BusEmitter) Stream() *bus.Stream {
	return e.stream
}

// FormatReady caches the stream's format blob. Metadata may be nil when the
// publisher never sent @setDataFrame; the blob then holds only the FLV header.
func (e *BusEmitter) FormatReady(metadata map[string]interface{}) error {
	var blob bytes.Buffer
	header := flv.NewHeader(true, true)
	blob.Write(header.Bytes())
	blob.Write([]byte{0, 0, 0, 0}) // previous tag size before the first tag

	if len(metadata) > 0 {
		script, err := encodeMetadataTag(metadata)
		if err != nil {
			return err
		}
		blob.Write(script)
	}

	e.stream.SetFormat(blob.Bytes())
	return nil
}

// WriteTag fans a media payload out to every subscriber.
func (e *BusEmitter) WriteTag(tagType byte, timestamp uint32, payload []byte) error {
	if e.stream.Closed() {
		return nil
	}

	msg := bus.AcquireMessage()
	switch tagType {
	case flv.TagTypeAudio:
		msg.Type = bus.MessageTypeAudio
	case flv.TagTypeVideo:
		msg.Type = bus.MessageTypeVideo
	default:
		msg.Type = bus.MessageTypeMetadata
	}
	msg.Timestamp = timestamp
	msg.SetPayload(payload)

	e.stream.Publish(msg)
	return nil
}

// EndOfStream closes the stream and detaches the publisher. Idempotent.
func (e *BusEmitter) EndOfStream() error {
	e.ended.Do(func() {
		e.stream.Close()
		e.stream.DetachPublisher()
	})
	return nil
}

// encodeMetadataTag frames decoded onMetaData values as an FLV script tag.
func encodeMetadataTag(metadata map[string]interface{}) ([]byte, error) {
	obj := make(amf0.Object, len(metadata))
	for k, v := range metadata {
		obj[k] = v
	}

	var data bytes.Buffer
	if err := amf0.Encode(&data, "onMetaData"); err != nil {
		return nil, err
	}
	if err := amf0.Encode(&data, obj); err != nil {
		return nil, err
	}

	tag := flv.NewTag(flv.TagTypeScript, 0, data.Bytes())
	return tag.Bytes(), nil
}
