// If you are AI: This file provides FLV muxing helpers for converting MediaMessage to FLV tags.
// Muxing preserves original payloads without transcoding.

package flv

import (
	"inlet/internal/core/bus"
)

// Mux converts a bus MediaMessage to an FLV tag based on message type.
// The payload is used directly without modification.
// Returns nil if the message type has no FLV tag representation.
// Allocation: Creates tag structure, reuses payload slice.
func Mux(msg *bus.MediaMessage) *Tag {
	if msg == nil {
		return nil
	}

	switch msg.Type {
	case bus.MessageTypeAudio:
		return NewTag(TagTypeAudio, msg.Timestamp, msg.Payload)
	case bus.MessageTypeVideo:
		return NewTag(TagTypeVideo, msg.Timestamp, msg.Payload)
	case bus.MessageTypeMetadata:
		return NewTag(TagTypeScript, msg.Timestamp, msg.Payload)
	default:
		return nil
	}
}
