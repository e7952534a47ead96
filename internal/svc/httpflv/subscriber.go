// If you are AI: This file implements HTTP-FLV subscriber that reads from bus and writes FLV.
// Subscriber manages the connection lifecycle and message processing.

package httpflv

import (
	"bufio"
	"context"
	"io"

	"inlet/internal/core/bus"
	"inlet/internal/core/protocol/flv"
)

// Subscriber represents an HTTP-FLV client subscriber.
// Reads messages from the bus and writes FLV tags to the HTTP response.
type Subscriber struct {
	writer        *bufio.Writer
	busSubscriber *bus.Subscriber
	stream        *bus.Stream
	subscriberID  uint64
	preludeSent   bool
}

// NewSubscriber creates a new HTTP-FLV subscriber.
func NewSubscriber(w io.Writer, stream *bus.Stream) *Subscriber {
	return &Subscriber{
		writer: bufio.NewWriter(w),
		stream: stream,
	}
}

// WritePrelude writes the stream's format blob: the FLV file header plus the
// cached onMetaData tag when the publisher provided one. Late subscribers get
// the same prelude as early ones because the blob is cached on the stream.
func (s *Subscriber) WritePrelude() error {
	if s.preludeSent {
		return nil
	}

	blob := s.stream.Format()
	if blob == nil {
		// Publisher has not signaled its format yet; send a bare header.
		header := flv.NewHeader(true, true)
		if _, err := s.writer.Write(header.Bytes()); err != nil {
			return err
		}
		if _, err := s.writer.Write([]byte{0, 0, 0, 0}); err != nil {
			return err
		}
	} else {
		if _, err := s.writer.Write(blob); err != nil {
			return err
		}
	}

	if err := s.writer.Flush(); err != nil {
		return err
	}
	s.preludeSent = true
	return nil
}

// Stream writes FLV tags until the publisher ends the stream, the context is
// cancelled, or the client disconnects (surfaced as a write error).
// Allocation: Tag framing allocates per tag; payloads are shared with the bus.
func (s *Subscriber) Stream(ctx context.Context) error {
	if s.busSubscriber == nil {
		return nil
	}

	for {
		// Drain everything buffered, then block on the notify channel.
		for {
			msg, ok := s.busSubscriber.Buffer().Read()
			if !ok {
				break
			}
			tag := flv.Mux(msg)
			if tag == nil {
				continue
			}
			if _, err := s.writer.Write(tag.Bytes()); err != nil {
				return err
			}
		}

		// Flush after each drained batch to detect disconnects early.
		if err := s.writer.Flush(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stream.Done():
			// Publisher ended. Drain whatever is left, then finish.
			for {
				msg, ok := s.busSubscriber.Buffer().Read()
				if !ok {
					return s.writer.Flush()
				}
				if tag := flv.Mux(msg); tag != nil {
					if _, err := s.writer.Write(tag.Bytes()); err != nil {
						return err
					}
				}
			}
		case <-s.busSubscriber.Notify():
		}
	}
}

// Attach attaches the subscriber to the stream.
// Returns the subscriber ID for later detach.
// Backpressure strategy: DropOldest - slow clients drop oldest frames to prevent blocking publisher.
func (s *Subscriber) Attach() uint64 {
	busSub, id := s.stream.AttachSubscriber(1024, bus.BackpressureDropOldest)
	s.busSubscriber = busSub
	s.subscriberID = id
	return id
}

// Detach detaches the subscriber from the stream.
func (s *Subscriber) Detach() {
	if s.stream != nil && s.subscriberID != 0 {
		s.stream.DetachSubscriber(s.subscriberID)
		s.subscriberID = 0
		s.busSubscriber = nil
	}
}
