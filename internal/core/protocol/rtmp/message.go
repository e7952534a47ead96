// If you are AI: This file defines the reassembled RTMP message, control-message
// codecs, and the chunked writer used for replies to the publishing client.

package rtmp

import (
	"encoding/binary"
	"errors"
	"io"
)

var ErrTruncatedControl = errors.New("truncated control message body")

// Message is a fully reassembled RTMP message.
// Ephemeral: constructed by the chunk parser, consumed by the dispatcher.
type Message struct {
	ChunkStreamID   uint32
	Timestamp       uint32
	TypeID          byte
	MessageStreamID uint32
	Payload         []byte
}

// ParseSetChunkSize parses a Set Chunk Size message body.
func ParseSetChunkSize(body []byte) (uint32, error) {
	if len(body) < 4 {
		return 0, ErrTruncatedControl
	}
	size := binary.BigEndian.Uint32(body[0:4])
	if size == 0 || size > MaxChunkSize {
		return 0, ErrChunkSizeOutOfRange
	}
	return size, nil
}

// ParseWindowAckSize parses a Window Acknowledgement Size message body.
func ParseWindowAckSize(body []byte) (uint32, error) {
	if len(body) < 4 {
		return 0, ErrTruncatedControl
	}
	return binary.BigEndian.Uint32(body[0:4]), nil
}

// CreateSetChunkSize creates a Set Chunk Size message body.
func CreateSetChunkSize(size uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, size)
	return body
}

// CreateWindowAckSize creates a Window Acknowledgement Size message body.
func CreateWindowAckSize(size uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, size)
	return body
}

// CreateSetPeerBandwidth creates a Set Peer Bandwidth message body.
func CreateSetPeerBandwidth(size uint32, limitType byte) []byte {
	body := make([]byte, 5)
	binary.BigEndian.PutUint32(body[0:4], size)
	body[4] = limitType
	return body
}

// CreateAck creates an Acknowledgement message body.
func CreateAck(sequence uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, sequence)
	return body
}

// CreateStreamBegin creates a Stream Begin user control message body.
func CreateStreamBegin(streamID uint32) []byte {
	body := make([]byte, 6)
	body[0] = 0
	body[1] = ControlStreamBegin
	binary.BigEndian.PutUint32(body[2:6], streamID)
	return body
}

// WriteChunk writes one message to w as a sequence of chunks: an fmt 0 header on
// the first chunk, fmt 3 continuations after, payload segments capped at chunkSize.
func WriteChunk(w io.Writer, csid uint32, msgType byte, timestamp uint32, streamID uint32, body []byte, chunkSize uint32) error {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	bodyLen := uint32(len(body))
	offset := uint32(0)

	for offset == 0 || offset < bodyLen {
		format := byte(ChunkFmt0)
		if offset > 0 {
			format = ChunkFmt3
		}
		if err := writeBasicHeader(w, format, csid); err != nil {
			return err
		}
		if format == ChunkFmt0 {
			if err := writeFullHeader(w, msgType, timestamp, streamID, bodyLen); err != nil {
				return err
			}
		}

		segment := chunkSize
		if offset+segment > bodyLen {
			segment = bodyLen - offset
		}
		if segment > 0 {
			if _, err := w.Write(body[offset : offset+segment]); err != nil {
				return err
			}
		}
		offset += segment
		if bodyLen == 0 {
			break
		}
	}

	if flusher, ok := w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// writeBasicHeader writes the 1-3 byte basic header for the given csid.
func writeBasicHeader(w io.Writer, format byte, csid uint32) error {
	var hdr [3]byte
	switch {
	case csid < 64:
		hdr[0] = format<<6 | byte(csid)
		_, err := w.Write(hdr[:1])
		return err
	case csid < 320:
		hdr[0] = format << 6
		hdr[1] = byte(csid - 64)
		_, err := w.Write(hdr[:2])
		return err
	default:
		hdr[0] = format<<6 | 1
		hdr[1] = byte(csid - 64)
		hdr[2] = byte((csid - 64) >> 8)
		_, err := w.Write(hdr[:3])
		return err
	}
}

// writeFullHeader writes an fmt 0 message header, with the extended timestamp
// field when the timestamp exceeds the 24-bit range.
func writeFullHeader(w io.Writer, msgType byte, timestamp, streamID, bodyLen uint32) error {
	ts := timestamp
	if ts >= extendedTimestampMarker {
		ts = extendedTimestampMarker
	}
	var hdr [11]byte
	hdr[0] = byte(ts >> 16)
	hdr[1] = byte(ts >> 8)
	hdr[2] = byte(ts)
	hdr[3] = byte(bodyLen >> 16)
	hdr[4] = byte(bodyLen >> 8)
	hdr[5] = byte(bodyLen)
	hdr[6] = msgType
	// Message stream id is the one little-endian field in the chunk header.
	binary.LittleEndian.PutUint32(hdr[7:11], streamID)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if timestamp >= extendedTimestampMarker {
		var ext [4]byte
		binary.BigEndian.PutUint32(ext[:], timestamp)
		if _, err := w.Write(ext[:]); err != nil {
			return err
		}
	}
	return nil
}
