// If you are AI: This file contains unit tests for socket ownership handover
// and demand-driven chunk delivery.

package ingest

import (
	"net"
	"sync/atomic"
	"testing"
	"time"
)

// deniedControl never grants read rights.
type deniedControl struct {
	attempts int32
}

func (c *deniedControl) Grant() bool {
	atomic.AddInt32(&c.attempts, 1)
	return false
}

// delayedControl grants on the nth attempt.
type delayedControl struct {
	grantOn  int32
	attempts int32
}

func (c *delayedControl) Grant() bool {
	return atomic.AddInt32(&c.attempts, 1) >= c.grantOn
}

func TestHandoverRetriesExhausted(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	control := &deniedControl{}
	reader := newSocketReader(server, control, NopNotifier{})
	go reader.run()

	select {
	case _, ok := <-reader.chunks:
		if ok {
			t.Fatal("Expected no chunks from a reader without socket control")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Reader did not terminate")
	}

	if err := reader.err(); err != ErrSocketHandover {
		t.Errorf("Expected ErrSocketHandover, got %v", err)
	}
	if got := atomic.LoadInt32(&control.attempts); got != handoverMaxAttempts {
		t.Errorf("Expected %d grant attempts, got %d", handoverMaxAttempts, got)
	}
}

func TestHandoverGrantedAfterRetry(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	control := &delayedControl{grantOn: 3}
	reader := newSocketReader(server, control, NopNotifier{})
	go reader.run()
	defer reader.shutdown()

	go client.Write([]byte("payload"))

	select {
	case chunk, ok := <-reader.chunks:
		if !ok {
			t.Fatalf("Reader terminated early: %v", reader.err())
		}
		if string(chunk) != "payload" {
			t.Errorf("Expected 'payload', got '%s'", chunk)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Reader delivered no chunk")
	}
}

func TestReaderSignalsEndOfStream(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	reader := newSocketReader(server, ImmediateControl{}, NopNotifier{})
	go reader.run()

	client.Close()

	select {
	case _, ok := <-reader.chunks:
		if ok {
			t.Fatal("Expected channel close, got a chunk")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Reader did not observe transport close")
	}

	if err := reader.err(); err != nil {
		t.Errorf("Expected clean end-of-stream, got %v", err)
	}
}
