// If you are AI: This file implements the per-connection publish session.
// One session owns one connection: handshake, chunk parsing, and command
// dispatch all run on the session goroutine, fed by the background reader.

package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"inlet/internal/core/bus"
	"inlet/internal/core/protocol/amf0"
	"inlet/internal/core/protocol/flv"
	"inlet/internal/core/protocol/rtmp"
)

const (
	outboundChunkSize = 4096
	defaultAckWindow  = 2500000
	publishStreamID   = 1
)

// SessionConfig carries the collaborators a session needs.
// Zero-value fields fall back to permissive defaults: AllowAll validation,
// discarded notifications, immediately granted socket control.
type SessionConfig struct {
	Conn      net.Conn
	Log       *zap.Logger
	Validator Validator
	Notifier  Notifier
	Emitters  EmitterFactory
	Control   SocketControl
}

// Session processes one inbound publish connection.
// All protocol state is confined to the session goroutine; the only other
// goroutine involved is the background socket reader, which never parses.
type Session struct {
	conn      net.Conn
	log       *zap.Logger
	validator Validator
	notifier  Notifier
	emitters  EmitterFactory
	control   SocketControl

	handshake *rtmp.ServerHandshake
	parser    *rtmp.ChunkParser
	hsBuf     []byte

	app          string
	streamKey    string
	emitter      Emitter
	publishValid bool
	rejected     bool
	formatSent   bool
	metadata     map[string]interface{}

	outChunkSize uint32
	ackWindow    uint32
	bytesRead    uint64
	lastAcked    uint64
}

// NewSession creates a session for an already-connected transport.
// Fails only when the handshake random payload cannot be generated.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Validator == nil {
		cfg.Validator = AllowAll{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.Control == nil {
		cfg.Control = ImmediateControl{}
	}
	handshake, err := rtmp.NewServerHandshake()
	if err != nil {
		return nil, err
	}
	return &Session{
		conn:         cfg.Conn,
		log:          cfg.Log,
		validator:    cfg.Validator,
		notifier:     cfg.Notifier,
		emitters:     cfg.Emitters,
		control:      cfg.Control,
		handshake:    handshake,
		parser:       rtmp.NewChunkParser(),
		outChunkSize: rtmp.DefaultChunkSize,
	}, nil
}

// Run drives the session until the transport closes, the context is
// cancelled, or a protocol violation makes the byte stream untrustworthy.
// End-of-stream is surfaced to the emitter exactly once on every exit path.
func (s *Session) Run(ctx context.Context) error {
	reader := newSocketReader(s.conn, s.control, s.notifier)
	go reader.run()
	defer reader.shutdown()
	defer s.teardown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-reader.chunks:
			if !ok {
				// Transport closed or handover failed.
				return reader.err()
			}
			if err := s.ingest(chunk); err != nil {
				s.log.Warn("session terminated", zap.Error(err))
				return err
			}
		}
	}
}

// ingest advances the handshake or feeds the parser with one raw chunk.
func (s *Session) ingest(b []byte) error {
	if !s.handshake.Done() {
		s.hsBuf = append(s.hsBuf, b...)
		for {
			consumed, reply, done, err := s.handshake.Advance(s.hsBuf)
			if err != nil {
				return err
			}
			if len(reply) > 0 {
				if _, err := s.conn.Write(reply); err != nil {
					return err
				}
			}
			s.hsBuf = s.hsBuf[consumed:]
			if done {
				// Bytes past C2 already belong to the chunk stream.
				b = s.hsBuf
				s.hsBuf = nil
				break
			}
			if consumed == 0 {
				return nil
			}
		}
		if len(b) == 0 {
			return nil
		}
	}

	s.bytesRead += uint64(len(b))
	msgs, err := s.parser.Feed(b)
	// Dispatch messages completed before a mid-buffer violation; alignment
	// was still intact when they were reassembled.
	for _, msg := range msgs {
		if derr := s.dispatch(msg); derr != nil {
			return derr
		}
	}
	if err != nil {
		return err
	}
	return s.maybeAck()
}

// dispatch routes one reassembled message.
func (s *Session) dispatch(msg *rtmp.Message) error {
	switch msg.TypeID {
	case rtmp.MessageTypeSetChunkSize:
		// Already applied by the parser mid-buffer.
		s.log.Debug("peer chunk size", zap.Uint32("size", s.parser.ChunkSize()))
		return nil
	case rtmp.MessageTypeWinAckSize:
		window, err := rtmp.ParseWindowAckSize(msg.Payload)
		if err != nil {
			return err
		}
		s.ackWindow = window
		return nil
	case rtmp.MessageTypeAck, rtmp.MessageTypeUserCtrl, rtmp.MessageTypeSetPeerBandwidth:
		return nil
	case rtmp.MessageTypeCommandAMF0:
		return s.handleCommand(msg)
	case rtmp.MessageTypeDataAMF0:
		return s.handleData(msg)
	case rtmp.MessageTypeAudio, rtmp.MessageTypeVideo:
		return s.handleMedia(msg)
	default:
		s.log.Debug("ignoring message", zap.Uint8("type", msg.TypeID))
		return nil
	}
}

// handleCommand dispatches an AMF0 command message.
// Unrecognized command names are a no-op; a decode failure is logged and
// ignored, never fatal to the connection.
func (s *Session) handleCommand(msg *rtmp.Message) error {
	arr, err := amf0.DecodeCommand(bytes.NewReader(msg.Payload))
	if err != nil || len(arr) == 0 {
		s.log.Debug("undecodable command", zap.Error(err))
		return nil
	}
	name, _ := arr[0].(string)
	txn := transactionID(arr)

	switch name {
	case "connect":
		return s.handleConnect(arr, txn)
	case "releaseStream":
		s.runValidation(StageReleaseStream, map[string]interface{}{
			"stream_key": commandString(arr, 3),
		})
		return s.sendCommand(0, amf0.Array{"_result", txn, nil})
	case "FCPublish":
		return s.sendCommand(0, amf0.Array{"_result", txn, nil})
	case "createStream":
		return s.sendCommand(0, amf0.Array{"_result", txn, nil, float64(publishStreamID)})
	case "publish":
		return s.handlePublish(arr, txn)
	case "FCUnpublish", "deleteStream", "closeStream":
		s.finishPublish()
		return nil
	default:
		s.log.Debug("ignoring command", zap.String("name", name))
		return nil
	}
}

// handleConnect records the application name and replies with the standard
// control burst followed by _result.
func (s *Session) handleConnect(arr amf0.Array, txn float64) error {
	if obj, ok := commandValue(arr, 2).(amf0.Object); ok {
		if app, ok := obj["app"].(string); ok {
			s.app = app
		}
	}

	if err := s.writeControl(rtmp.MessageTypeWinAckSize, rtmp.CreateWindowAckSize(defaultAckWindow)); err != nil {
		return err
	}
	if err := s.writeControl(rtmp.MessageTypeSetPeerBandwidth, rtmp.CreateSetPeerBandwidth(defaultAckWindow, 2)); err != nil {
		return err
	}
	if err := s.writeControl(rtmp.MessageTypeSetChunkSize, rtmp.CreateSetChunkSize(outboundChunkSize)); err != nil {
		return err
	}
	s.outChunkSize = outboundChunkSize

	return s.sendCommand(0, amf0.Array{
		"_result",
		txn,
		amf0.Object{
			"fmsVer":       "FMS/3,0,1,123",
			"capabilities": float64(31),
		},
		amf0.Object{
			"level":          "status",
			"code":           "NetConnection.Connect.Success",
			"description":    "Connection succeeded.",
			"objectEncoding": float64(0),
		},
	})
}

// handlePublish validates the stream key and, on success, binds the emitter
// and opens the publish stream.
func (s *Session) handlePublish(arr amf0.Array, txn float64) error {
	s.streamKey = commandString(arr, 3)
	params := map[string]interface{}{
		"app":        s.app,
		"stream_key": s.streamKey,
		"type":       commandString(arr, 4),
	}

	if !s.runValidation(StagePublish, params) {
		s.rejected = true
		return s.sendStatus("error", "NetStream.Publish.BadName", "Publish rejected.")
	}

	if s.emitters != nil {
		emitter, err := s.emitters(bus.NewStreamKey(s.app, s.streamKey))
		if err != nil {
			s.rejected = true
			s.notifier.StreamValidationFailed(StagePublish, err.Error())
			return s.sendStatus("error", "NetStream.Publish.BadName", err.Error())
		}
		s.emitter = emitter
	}
	s.publishValid = true

	if err := s.writeControl(rtmp.MessageTypeUserCtrl, rtmp.CreateStreamBegin(publishStreamID)); err != nil {
		return err
	}
	return s.sendStatus("status", "NetStream.Publish.Start", fmt.Sprintf("%s is now published.", s.streamKey))
}

// handleData processes @setDataFrame, forwarding validated stream metadata to
// the format signal. The payload is not re-emitted as media.
func (s *Session) handleData(msg *rtmp.Message) error {
	arr, err := amf0.DecodeCommand(bytes.NewReader(msg.Payload))
	if err != nil || len(arr) == 0 {
		s.rejected = true
		s.notifier.StreamValidationFailed(StageSetDataFrame, "malformed data message")
		return nil
	}
	if name, _ := arr[0].(string); name != "@setDataFrame" {
		return nil
	}

	metadata := make(map[string]interface{})
	if obj, ok := commandValue(arr, 2).(amf0.Object); ok {
		for k, v := range obj {
			metadata[k] = v
		}
	}

	if !s.runValidation(StageSetDataFrame, metadata) {
		s.rejected = true
		return nil
	}
	s.metadata = metadata

	if s.publishValid && s.emitter != nil && !s.formatSent {
		s.formatSent = true
		return s.emitter.FormatReady(s.metadata)
	}
	return nil
}

// handleMedia forwards audio and video payloads as FLV tags.
// Media before successful publish validation, or after any rejection, drops.
func (s *Session) handleMedia(msg *rtmp.Message) error {
	if !s.publishValid || s.rejected || s.emitter == nil {
		return nil
	}
	if !s.formatSent {
		// The format signal precedes the first tag even when the publisher
		// never sent @setDataFrame.
		s.formatSent = true
		if err := s.emitter.FormatReady(s.metadata); err != nil {
			return err
		}
	}

	tagType := byte(flv.TagTypeAudio)
	if msg.TypeID == rtmp.MessageTypeVideo {
		tagType = flv.TagTypeVideo
	}
	return s.emitter.WriteTag(tagType, msg.Timestamp, msg.Payload)
}

// runValidation consults the validator and raises the matching notification.
func (s *Session) runValidation(stage Stage, params map[string]interface{}) bool {
	outcome := s.validator.Validate(stage, params)
	if outcome.OK {
		s.notifier.StreamValidationSuccess(stage, outcome.Value)
		return true
	}
	s.notifier.StreamValidationFailed(stage, outcome.Reason)
	return false
}

// maybeAck sends an acknowledgement once a full window of bytes has arrived.
func (s *Session) maybeAck() error {
	if s.ackWindow == 0 || s.bytesRead-s.lastAcked < uint64(s.ackWindow) {
		return nil
	}
	s.lastAcked = s.bytesRead
	return s.writeControl(rtmp.MessageTypeAck, rtmp.CreateAck(uint32(s.bytesRead)))
}

// finishPublish surfaces end-of-stream once and stops accepting media.
func (s *Session) finishPublish() {
	if s.emitter != nil {
		_ = s.emitter.EndOfStream()
	}
	s.publishValid = false
}

// teardown runs on every session exit path.
func (s *Session) teardown() {
	if s.emitter != nil {
		_ = s.emitter.EndOfStream()
	}
}

// sendCommand writes an AMF0 command on the command chunk stream.
func (s *Session) sendCommand(streamID uint32, values amf0.Array) error {
	body, err := amf0.EncodeCommand(values)
	if err != nil {
		return err
	}
	return rtmp.WriteChunk(s.conn, 3, rtmp.MessageTypeCommandAMF0, 0, streamID, body, s.outChunkSize)
}

// sendStatus writes an onStatus event on the publish stream.
func (s *Session) sendStatus(level, code, description string) error {
	return s.sendCommand(publishStreamID, amf0.Array{
		"onStatus",
		float64(0),
		nil,
		amf0.Object{
			"level":       level,
			"code":        code,
			"description": description,
		},
	})
}

// writeControl writes a protocol control message on chunk stream 2.
func (s *Session) writeControl(msgType byte, body []byte) error {
	return rtmp.WriteChunk(s.conn, 2, msgType, 0, 0, body, s.outChunkSize)
}

// transactionID extracts the numeric transaction ID from a command, if present.
func transactionID(arr amf0.Array) float64 {
	if v, ok := commandValue(arr, 1).(float64); ok {
		return v
	}
	return 0
}

// commandValue returns the value at index i, or nil when absent.
func commandValue(arr amf0.Array, i int) interface{} {
	if i >= len(arr) {
		return nil
	}
	return arr[i]
}

// commandString returns the string at index i, or "" when absent or not a string.
func commandString(arr amf0.Array, i int) string {
	v, _ := commandValue(arr, i).(string)
	return v
}
