// If you are AI: This file implements the background socket reader.
// Exactly one goroutine blocks on the connection; parsed processing stays on
// the session goroutine. Delivery is demand-driven via an unbuffered channel.

package ingest

import (
	"errors"
	"io"
	"net"
	"time"
)

// ErrSocketHandover is returned when the connection's owner never released
// read rights within the bounded retry budget.
var ErrSocketHandover = errors.New("socket ownership handover retries exhausted")

const (
	readBufferSize      = 4096
	handoverMaxAttempts = 5
	handoverDelay       = 100 * time.Millisecond
)

// SocketControl models exclusive read rights on a connection.
// The reader must acquire control before its first read; an environment that
// hands sockets between owners implements Grant to reflect the handoff.
type SocketControl interface {
	// Grant attempts to transfer read rights to the caller.
	// Returns false while another owner still holds them.
	Grant() bool
}

// ImmediateControl always grants. Used when the session already owns the
// connection, which is the case for connections accepted by our own listener.
type ImmediateControl struct{}

// Grant reports that control is available.
func (ImmediateControl) Grant() bool { return true }

// socketReader owns blocking reads on one connection.
// Chunks are delivered over an unbuffered channel: a send completes only when
// the session asks for the next chunk, so the reader never buffers ahead of
// the processing pipeline.
type socketReader struct {
	conn     net.Conn
	control  SocketControl
	notifier Notifier

	chunks chan []byte
	errc   chan error
	stop   chan struct{}
}

func newSocketReader(conn net.Conn, control SocketControl, notifier Notifier) *socketReader {
	return &socketReader{
		conn:     conn,
		control:  control,
		notifier: notifier,
		chunks:   make(chan []byte),
		errc:     make(chan error, 1),
		stop:     make(chan struct{}),
	}
}

// acquire obtains read rights on the connection.
// Retries a fixed number of times with a fixed delay; exhausting the budget is
// a terminal, reported condition.
func (r *socketReader) acquire() error {
	for attempt := 0; attempt < handoverMaxAttempts; attempt++ {
		if r.control.Grant() {
			return nil
		}
		r.notifier.SocketControlNeeded(r.conn, "reader")
		time.Sleep(handoverDelay)
	}
	return ErrSocketHandover
}

// run blocks on the socket and forwards raw chunks until the connection
// closes or the session tears the reader down.
func (r *socketReader) run() {
	if err := r.acquire(); err != nil {
		r.errc <- err
		close(r.chunks)
		return
	}

	for {
		buf := make([]byte, readBufferSize)
		n, err := r.conn.Read(buf)
		if n > 0 {
			select {
			case r.chunks <- buf[:n]:
			case <-r.stop:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				r.errc <- err
			}
			close(r.chunks)
			return
		}
	}
}

// shutdown releases the reader goroutine. The pending blocking read unblocks
// when the caller closes the connection.
func (r *socketReader) shutdown() {
	close(r.stop)
}

// err returns the terminal read error, if any.
func (r *socketReader) err() error {
	select {
	case e := <-r.errc:
		return e
	default:
		return nil
	}
}
