// If you are AI: This file implements the server side of the RTMP handshake as a
// resumable state machine. It consumes buffered bytes instead of blocking on a socket.

package rtmp

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
)

var (
	ErrInvalidVersion = errors.New("invalid RTMP version")
	ErrHandshakeDone  = errors.New("handshake already complete")
)

// handshakeState is the position in the C0C1 -> S0S1S2 -> C2 exchange.
// Transitions only move forward; a state is never revisited.
type handshakeState int

const (
	stateAwaitingC0C1 handshakeState = iota
	stateAwaitingC2
	stateDone
)

// ServerHandshake performs the server side of the RTMP handshake incrementally.
// Advance consumes from a caller-owned buffer and reports how many bytes it took,
// so partial reads from a socket never lose alignment: when too few bytes are
// available it consumes nothing and the caller retries with more input.
type ServerHandshake struct {
	state  handshakeState
	epoch  uint32
	random [HandshakeRandomSize]byte
	// peerTime/peerZero hold C1's leading fields, echoed back in S2.
	peerTime uint32
	peerZero uint32
}

// NewServerHandshake creates a handshake state machine in the AwaitingC0C1 state.
// The 1528-byte random payload is generated once here and reused for S1.
func NewServerHandshake() (*ServerHandshake, error) {
	h := &ServerHandshake{state: stateAwaitingC0C1}
	if _, err := rand.Read(h.random[:]); err != nil {
		return nil, err
	}
	return h, nil
}

// Advance consumes handshake bytes from in.
// Returns the number of bytes consumed, the reply bytes to send to the peer
// (S0+S1+S2 after C0C1, nothing otherwise), and whether the handshake completed.
// consumed == 0 with a nil error means more input is needed.
func (h *ServerHandshake) Advance(in []byte) (consumed int, reply []byte, done bool, err error) {
	switch h.state {
	case stateAwaitingC0C1:
		if len(in) < HandshakeC0Size+HandshakeC1Size {
			return 0, nil, false, nil
		}
		if in[0] != RTMPVersion {
			return 0, nil, false, ErrInvalidVersion
		}
		c1 := in[HandshakeC0Size : HandshakeC0Size+HandshakeC1Size]
		h.peerTime = binary.BigEndian.Uint32(c1[0:4])
		h.peerZero = binary.BigEndian.Uint32(c1[4:8])
		h.state = stateAwaitingC2
		return HandshakeC0Size + HandshakeC1Size, h.buildReply(c1), false, nil

	case stateAwaitingC2:
		if len(in) < HandshakeC2Size {
			return 0, nil, false, nil
		}
		// Length-only validation. The echoed random payload is deliberately not
		// compared against S1: several publishing clients send a mismatched echo
		// and depend on lenient servers.
		h.state = stateDone
		return HandshakeC2Size, nil, true, nil

	default:
		// Passthrough: remaining bytes belong to the chunk stream.
		return 0, nil, true, nil
	}
}

// Done reports whether the handshake has completed.
func (h *ServerHandshake) Done() bool {
	return h.state == stateDone
}

// buildReply assembles S0+S1+S2 in one buffer.
// S1 carries the server epoch, a zero field, and the generated random payload.
// S2 echoes C1 with the time2 field set to the server epoch.
func (h *ServerHandshake) buildReply(c1 []byte) []byte {
	reply := make([]byte, HandshakeC0Size+HandshakeC1Size+HandshakeC2Size)
	reply[0] = RTMPVersion

	s1 := reply[HandshakeC0Size : HandshakeC0Size+HandshakeC1Size]
	binary.BigEndian.PutUint32(s1[0:4], h.epoch)
	binary.BigEndian.PutUint32(s1[4:8], 0)
	copy(s1[8:], h.random[:])

	s2 := reply[HandshakeC0Size+HandshakeC1Size:]
	copy(s2, c1)
	binary.BigEndian.PutUint32(s2[4:8], h.epoch)

	return reply
}
