// If you are AI: This file implements the Stream type that manages publisher and subscribers.
// A stream allows exactly one publisher and multiple subscribers with efficient fanout.

package bus

import (
	"sync"
)

// Stream represents a live media stream instance.
// It manages one publisher and multiple subscribers with efficient message fanout.
// The stream also carries two lifecycle signals for consumers: a one-time format
// blob (FLV header plus onMetaData tag, cached so late subscribers still receive
// it) and an end-of-stream signal delivered exactly once.
// Lock expectations: Uses mutex for publisher/subscriber management.
// Allocation: Pre-allocated subscriber map, no per-message allocations in fanout.
type Stream struct {
	key         StreamKey
	mu          sync.RWMutex
	publisher   *Publisher
	subscribers map[uint64]*Subscriber
	nextSubID   uint64
	format      []byte
	done        chan struct{}
	closeOnce   sync.Once
}

// Publisher represents a stream publisher.
// Only one publisher can be attached to a stream at a time.
type Publisher struct {
	id uint64 // Unique publisher ID
}

// NewStream creates a new stream with the given key.
func NewStream(key StreamKey) *Stream {
	return &Stream{
		key:         key,
		subscribers: make(map[uint64]*Subscriber),
		nextSubID:   1,
		done:        make(chan struct{}),
	}
}

// Key returns the stream's key.
func (s *Stream) Key() StreamKey {
	return s.key
}

// AttachPublisher attaches a publisher to the stream.
// Returns true if attached, false if a publisher is already attached.
func (s *Stream) AttachPublisher(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.publisher != nil {
		return false
	}

	s.publisher = &Publisher{id: id}
	return true
}

// DetachPublisher detaches the current publisher from the stream.
func (s *Stream) DetachPublisher() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = nil
}

// HasPublisher returns true if a publisher is currently attached.
func (s *Stream) HasPublisher() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publisher != nil
}

// SetFormat caches the stream's format blob (FLV header and metadata tag).
// Only the first call takes effect; returns true if this call stored the blob.
// Subscribers that attach after the format is known read it via Format.
func (s *Stream) SetFormat(blob []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != nil {
		return false
	}
	s.format = make([]byte, len(blob))
	copy(s.format, blob)
	return true
}

// Format returns the cached format blob, or nil if not yet known.
func (s *Stream) Format() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

// Close marks the stream as ended. Safe to call more than once; the done
// channel is closed exactly once and all blocked subscribers wake up.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done returns a channel that is closed when the stream ends.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Closed reports whether the stream has ended.
func (s *Stream) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// AttachSubscriber attaches a new subscriber to the stream.
// Returns the subscriber and a unique subscriber ID.
func (s *Stream) AttachSubscriber(capacity uint32, strategy BackpressureStrategy) (*Subscriber, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++

	sub := NewSubscriber(id, capacity, strategy)
	s.subscribers[id] = sub
	return sub, id
}

// DetachSubscriber detaches a subscriber from the stream.
func (s *Stream) DetachSubscriber(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
}

// Publish delivers a message to all subscribers.
// This is the hot path - must be allocation-light in steady state.
// Lock expectations: Read lock held only while snapshotting subscribers.
// NOTE: Each subscriber gets a reference to the same message. Subscribers
// must not modify the message. Ownership remains with the publisher until
// all subscribers have processed it.
func (s *Stream) Publish(msg *MediaMessage) {
	if msg == nil {
		return
	}

	s.mu.RLock()
	subs := make([]*Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	for _, sub := range subs {
		// Non-blocking write plus a wakeup ping for blocked consumers.
		sub.Buffer().Write(msg)
		sub.wake()
	}
}

// SubscriberCount returns the number of active subscribers.
func (s *Stream) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// IsEmpty returns true if the stream has no publisher and no subscribers.
func (s *Stream) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publisher == nil && len(s.subscribers) == 0
}
