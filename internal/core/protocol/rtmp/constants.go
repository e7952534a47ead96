// If you are AI: This file defines RTMP protocol constants and message types.

package rtmp

// RTMP version constant
const RTMPVersion = 3

// Handshake sizes
const (
	HandshakeC0Size     = 1    // C0/S0: single version byte
	HandshakeC1Size     = 1536 // C1/S1: 4-byte time + 4-byte zero + 1528 random bytes
	HandshakeC2Size     = 1536 // C2/S2: echo of the peer's C1/S1
	HandshakeRandomSize = 1528 // Random payload portion of C1/S1
)

// Default chunk size
const DefaultChunkSize = 128

// Maximum inbound chunk size we accept from Set Chunk Size
const MaxChunkSize = 65536

// Extended timestamp marker in 24-bit timestamp fields
const extendedTimestampMarker = 0xFFFFFF

// Message type IDs
const (
	MessageTypeSetChunkSize     = 1
	MessageTypeAbortMessage     = 2
	MessageTypeAck              = 3
	MessageTypeUserCtrl         = 4
	MessageTypeWinAckSize       = 5
	MessageTypeSetPeerBandwidth = 6
	MessageTypeAudio            = 8
	MessageTypeVideo            = 9
	MessageTypeDataAMF0         = 18
	MessageTypeSharedObjectAMF0 = 19
	MessageTypeCommandAMF0      = 20
)

// Chunk basic header format types
const (
	ChunkFmt0 = 0 // 11-byte header: absolute timestamp, length, type, stream ID
	ChunkFmt1 = 1 // 7-byte header: timestamp delta, length, type
	ChunkFmt2 = 2 // 3-byte header: timestamp delta only
	ChunkFmt3 = 3 // 0-byte header: everything inherited
)

// User control event types
const (
	ControlStreamBegin      = 0
	ControlStreamEOF        = 1
	ControlStreamDry        = 2
	ControlSetBufferLength  = 3
	ControlStreamIsRecorded = 4
	ControlPingRequest      = 6
	ControlPingResponse     = 7
)
