// If you are AI: This file implements incremental RTMP chunk parsing and message
// reassembly. Feed accepts arbitrary byte slices and retains unconsumed partial
// bytes, so a chunk split at any boundary across reads parses identically.

package rtmp

import (
	"encoding/binary"
	"errors"
)

var (
	ErrMissingPriorHeader  = errors.New("compressed chunk header without prior header on chunk stream")
	ErrMessageInterrupted  = errors.New("new message header while a message is still being assembled")
	ErrZeroLengthMessage   = errors.New("zero-length message")
	ErrChunkSizeOutOfRange = errors.New("chunk size out of range")
)

// errShortInput signals that the buffered bytes end mid-header or mid-payload.
// Not an error for the caller: parsing resumes once more bytes arrive.
var errShortInput = errors.New("short input")

// messageHeader holds the last known header fields for a chunk stream.
// Compressed headers (fmt 1-3) inherit the fields they omit from here.
type messageHeader struct {
	timestamp   uint32 // absolute, after delta application
	delta       uint32 // last timestamp delta, reapplied by fmt 3 message starts
	length      uint32
	typeID      byte
	streamID    uint32
	hasExtended bool // the last header carried a 4-byte extended timestamp
}

// chunkStream is the per-chunk-stream-id reassembly state.
// Created on first use and kept for the life of the connection.
type chunkStream struct {
	hdr        messageHeader
	hasHeader  bool
	buf        []byte
	received   uint32
	inProgress bool
}

// ChunkParser reassembles RTMP messages from an interleaved chunk stream.
// Not safe for concurrent use; expected usage is a single processing goroutine.
// Allocation: one reassembly buffer per in-flight message, sized to the declared
// message length up front.
type ChunkParser struct {
	chunkSize uint32
	pending   []byte
	streams   map[uint32]*chunkStream
}

// NewChunkParser creates a parser with the protocol default chunk size of 128.
func NewChunkParser() *ChunkParser {
	return &ChunkParser{
		chunkSize: DefaultChunkSize,
		streams:   make(map[uint32]*chunkStream),
	}
}

// SetChunkSize sets the inbound chunk size. Sizes outside 1..MaxChunkSize are
// rejected: a bogus size would desynchronize every following chunk boundary.
func (p *ChunkParser) SetChunkSize(size uint32) error {
	if size == 0 || size > MaxChunkSize {
		return ErrChunkSizeOutOfRange
	}
	p.chunkSize = size
	return nil
}

// ChunkSize returns the current inbound chunk size.
func (p *ChunkParser) ChunkSize() uint32 {
	return p.chunkSize
}

// Feed consumes a byte buffer and returns every message completed by it.
// A call may end mid-chunk-header or mid-payload; the remainder is retained and
// prefixed to the next call's input. Inbound Set Chunk Size messages take effect
// immediately, before any following bytes of the same buffer are parsed.
// A non-nil error is a protocol violation: alignment cannot be trusted afterwards
// and the connection must be torn down.
func (p *ChunkParser) Feed(in []byte) ([]*Message, error) {
	p.pending = append(p.pending, in...)

	var msgs []*Message
	off := 0
	for {
		n, msg, err := p.parseChunk(p.pending[off:])
		if err == errShortInput {
			break
		}
		if err != nil {
			return msgs, err
		}
		off += n
		if msg == nil {
			continue
		}
		if msg.TypeID == MessageTypeSetChunkSize && len(msg.Payload) >= 4 {
			if err := p.SetChunkSize(binary.BigEndian.Uint32(msg.Payload[:4])); err != nil {
				return msgs, err
			}
		}
		msgs = append(msgs, msg)
	}

	// Move the residual to the front so the buffer does not grow without bound.
	kept := copy(p.pending, p.pending[off:])
	p.pending = p.pending[:kept]
	return msgs, nil
}

// parseChunk parses exactly one chunk (header + payload segment) from buf.
// Returns bytes consumed and, when the segment completes a message, the message.
func (p *ChunkParser) parseChunk(buf []byte) (int, *Message, error) {
	if len(buf) < 1 {
		return 0, nil, errShortInput
	}
	format := buf[0] >> 6
	raw := uint32(buf[0] & 0x3F)
	idx := 1

	// Basic header: csid 0 and 1 select the 2- and 3-byte encodings.
	csid := raw
	switch raw {
	case 0:
		if len(buf) < idx+1 {
			return 0, nil, errShortInput
		}
		csid = uint32(buf[idx]) + 64
		idx++
	case 1:
		if len(buf) < idx+2 {
			return 0, nil, errShortInput
		}
		csid = uint32(buf[idx]) + 64 + uint32(buf[idx+1])<<8
		idx += 2
	}

	st := p.streams[csid]
	if st == nil {
		st = &chunkStream{}
		p.streams[csid] = st
	}

	hdr := st.hdr
	switch format {
	case ChunkFmt0:
		if st.inProgress {
			return 0, nil, ErrMessageInterrupted
		}
		if len(buf) < idx+11 {
			return 0, nil, errShortInput
		}
		ts := readUint24(buf[idx:])
		hdr = messageHeader{
			length:   readUint24(buf[idx+3:]),
			typeID:   buf[idx+6],
			streamID: binary.LittleEndian.Uint32(buf[idx+7 : idx+11]),
		}
		idx += 11
		if ts == extendedTimestampMarker {
			if len(buf) < idx+4 {
				return 0, nil, errShortInput
			}
			ts = binary.BigEndian.Uint32(buf[idx:])
			idx += 4
			hdr.hasExtended = true
		}
		hdr.timestamp = ts

	case ChunkFmt1:
		if st.inProgress {
			return 0, nil, ErrMessageInterrupted
		}
		if len(buf) < idx+7 {
			return 0, nil, errShortInput
		}
		delta := readUint24(buf[idx:])
		hdr.length = readUint24(buf[idx+3:])
		hdr.typeID = buf[idx+6]
		idx += 7
		hdr.hasExtended = false
		if delta == extendedTimestampMarker {
			if len(buf) < idx+4 {
				return 0, nil, errShortInput
			}
			delta = binary.BigEndian.Uint32(buf[idx:])
			idx += 4
			hdr.hasExtended = true
		}
		hdr.delta = delta
		if st.hasHeader {
			hdr.timestamp = st.hdr.timestamp + delta
		} else {
			// Some clients open a chunk stream with fmt 1, assuming stream id 0.
			// Treat the first delta as an absolute timestamp.
			hdr.streamID = 0
			hdr.timestamp = delta
		}

	case ChunkFmt2:
		if !st.hasHeader {
			return 0, nil, ErrMissingPriorHeader
		}
		if st.inProgress {
			return 0, nil, ErrMessageInterrupted
		}
		if len(buf) < idx+3 {
			return 0, nil, errShortInput
		}
		delta := readUint24(buf[idx:])
		idx += 3
		hdr.hasExtended = false
		if delta == extendedTimestampMarker {
			if len(buf) < idx+4 {
				return 0, nil, errShortInput
			}
			delta = binary.BigEndian.Uint32(buf[idx:])
			idx += 4
			hdr.hasExtended = true
		}
		hdr.delta = delta
		hdr.timestamp = st.hdr.timestamp + delta

	case ChunkFmt3:
		if !st.hasHeader {
			return 0, nil, ErrMissingPriorHeader
		}
		// A header that used the extended timestamp carries it again on every
		// following fmt 3 chunk.
		if st.hdr.hasExtended {
			if len(buf) < idx+4 {
				return 0, nil, errShortInput
			}
			ext := binary.BigEndian.Uint32(buf[idx:])
			idx += 4
			if !st.inProgress {
				hdr.timestamp = ext
			}
		} else if !st.inProgress {
			// New message reusing the previous header: the delta reapplies.
			hdr.timestamp = st.hdr.timestamp + st.hdr.delta
		}
	}

	if !st.inProgress && hdr.length == 0 {
		return 0, nil, ErrZeroLengthMessage
	}

	// Payload segment: bounded by the chunk size except for the final segment.
	remaining := hdr.length - st.received
	segment := remaining
	if segment > p.chunkSize {
		segment = p.chunkSize
	}
	if len(buf) < idx+int(segment) {
		return 0, nil, errShortInput
	}
	if !st.inProgress {
		st.buf = make([]byte, 0, hdr.length)
		st.received = 0
	}
	st.buf = append(st.buf, buf[idx:idx+int(segment)]...)
	st.received += segment
	st.hdr = hdr
	st.hasHeader = true
	st.inProgress = true
	idx += int(segment)

	if st.received < hdr.length {
		return idx, nil, nil
	}

	msg := &Message{
		ChunkStreamID:   csid,
		Timestamp:       hdr.timestamp,
		TypeID:          hdr.typeID,
		MessageStreamID: hdr.streamID,
		Payload:         st.buf,
	}
	st.buf = nil
	st.received = 0
	st.inProgress = false
	return idx, msg, nil
}

// readUint24 reads a 24-bit big-endian unsigned integer.
func readUint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
