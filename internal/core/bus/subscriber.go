// If you are AI: This file defines the Subscriber interface and implementation.
// Subscribers receive messages from streams via a ring buffer.

package bus

// Subscriber represents a consumer of media messages from a stream.
// Each subscriber has its own ring buffer to avoid blocking the publisher,
// and a capacity-1 notify channel so consumer goroutines can block instead
// of spinning while the buffer is empty.
type Subscriber struct {
	id     uint64      // Unique subscriber ID
	buffer *RingBuffer // Bounded buffer for message delivery
	notify chan struct{}
}

// NewSubscriber creates a new subscriber with the specified buffer capacity and strategy.
func NewSubscriber(id uint64, capacity uint32, strategy BackpressureStrategy) *Subscriber {
	return &Subscriber{
		id:     id,
		buffer: NewRingBuffer(capacity, strategy),
		notify: make(chan struct{}, 1),
	}
}

// ID returns the unique subscriber identifier.
func (s *Subscriber) ID() uint64 {
	return s.id
}

// Buffer returns the subscriber's ring buffer.
// This is used by the stream to deliver messages.
func (s *Subscriber) Buffer() *RingBuffer {
	return s.buffer
}

// Notify returns a channel that receives a ping when a message lands in the
// buffer. The channel has capacity 1: a pending ping covers any number of
// buffered messages, so consumers must drain the buffer after each receive.
func (s *Subscriber) Notify() <-chan struct{} {
	return s.notify
}

// wake pings the notify channel without blocking the publisher.
func (s *Subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Dropped returns the number of messages dropped due to backpressure.
func (s *Subscriber) Dropped() uint64 {
	return s.buffer.Dropped()
}
