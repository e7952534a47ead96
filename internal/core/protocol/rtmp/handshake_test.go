// If you are AI: This file contains unit tests for the resumable server handshake.

package rtmp

import (
	"bytes"
	"testing"
)

func buildC0C1() []byte {
	c0c1 := make([]byte, HandshakeC0Size+HandshakeC1Size)
	c0c1[0] = RTMPVersion
	// C1 time field
	c0c1[1] = 0x00
	c0c1[2] = 0x00
	c0c1[3] = 0x12
	c0c1[4] = 0x34
	return c0c1
}

func TestHandshakeC0C1ProducesReply(t *testing.T) {
	hs, err := NewServerHandshake()
	if err != nil {
		t.Fatalf("NewServerHandshake failed: %v", err)
	}

	consumed, reply, done, err := hs.Advance(buildC0C1())
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if consumed != HandshakeC0Size+HandshakeC1Size {
		t.Errorf("Expected %d bytes consumed, got %d", HandshakeC0Size+HandshakeC1Size, consumed)
	}
	if done {
		t.Error("Handshake should not be done after C0C1")
	}
	expectedReply := HandshakeC0Size + HandshakeC1Size + HandshakeC2Size
	if len(reply) != expectedReply {
		t.Errorf("Expected S0+S1+S2 reply of %d bytes, got %d", expectedReply, len(reply))
	}
	if reply[0] != RTMPVersion {
		t.Errorf("Expected S0 version %d, got %d", RTMPVersion, reply[0])
	}
	// S2 echoes C1's time field
	s2 := reply[HandshakeC0Size+HandshakeC1Size:]
	if !bytes.Equal(s2[0:4], []byte{0x00, 0x00, 0x12, 0x34}) {
		t.Errorf("S2 should echo C1 time field, got %v", s2[0:4])
	}
}

func TestHandshakeDeterministicReplySize(t *testing.T) {
	for i := 0; i < 5; i++ {
		hs, err := NewServerHandshake()
		if err != nil {
			t.Fatalf("NewServerHandshake failed: %v", err)
		}
		_, reply, _, err := hs.Advance(buildC0C1())
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if len(reply) != 3073 {
			t.Errorf("Expected 3073-byte reply, got %d", len(reply))
		}
	}
}

func TestHandshakeInsufficientBytes(t *testing.T) {
	hs, err := NewServerHandshake()
	if err != nil {
		t.Fatalf("NewServerHandshake failed: %v", err)
	}

	consumed, reply, done, err := hs.Advance(buildC0C1()[:100])
	if err != nil {
		t.Fatalf("Short input should not be an error, got %v", err)
	}
	if consumed != 0 {
		t.Errorf("Expected 0 bytes consumed on short input, got %d", consumed)
	}
	if reply != nil || done {
		t.Error("Short input should produce no reply and no completion")
	}

	// Retrying with the full buffer succeeds.
	consumed, _, _, err = hs.Advance(buildC0C1())
	if err != nil {
		t.Fatalf("Advance after retry failed: %v", err)
	}
	if consumed != 1537 {
		t.Errorf("Expected 1537 bytes consumed after retry, got %d", consumed)
	}
}

func TestHandshakeInvalidVersion(t *testing.T) {
	hs, err := NewServerHandshake()
	if err != nil {
		t.Fatalf("NewServerHandshake failed: %v", err)
	}

	bad := buildC0C1()
	bad[0] = 0x06
	if _, _, _, err := hs.Advance(bad); err != ErrInvalidVersion {
		t.Errorf("Expected ErrInvalidVersion, got %v", err)
	}
}

func TestHandshakeC2Completion(t *testing.T) {
	hs, err := NewServerHandshake()
	if err != nil {
		t.Fatalf("NewServerHandshake failed: %v", err)
	}
	if _, _, _, err := hs.Advance(buildC0C1()); err != nil {
		t.Fatalf("C0C1 advance failed: %v", err)
	}

	// Short C2 consumes nothing and stays in AwaitingC2.
	consumed, _, done, err := hs.Advance(make([]byte, HandshakeC2Size-1))
	if err != nil {
		t.Fatalf("Short C2 should not be an error, got %v", err)
	}
	if consumed != 0 || done {
		t.Errorf("Short C2: expected consumed=0 done=false, got consumed=%d done=%v", consumed, done)
	}

	// Full C2 completes the handshake.
	consumed, reply, done, err := hs.Advance(make([]byte, HandshakeC2Size))
	if err != nil {
		t.Fatalf("C2 advance failed: %v", err)
	}
	if consumed != HandshakeC2Size {
		t.Errorf("Expected %d bytes consumed, got %d", HandshakeC2Size, consumed)
	}
	if !done || !hs.Done() {
		t.Error("Handshake should be done after C2")
	}
	if reply != nil {
		t.Error("C2 should produce no reply")
	}

	// Done state is passthrough.
	consumed, _, done, err = hs.Advance([]byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("Passthrough advance failed: %v", err)
	}
	if consumed != 0 || !done {
		t.Errorf("Done state: expected consumed=0 done=true, got consumed=%d done=%v", consumed, done)
	}
}
