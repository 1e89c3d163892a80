package events

import "sync"

// Sink accepts build events. Publish reports whether the consumer is
// still listening; producers treat a false return as a signal to stop
// working on the build.
type Sink interface {
	Publish(Event) bool
}

// Stream is the event channel for one build: a single producer (the
// pipeline) and a single consumer (the transport handler). A terminal
// event seals the stream; later publishes are dropped. The consumer
// cancels on disconnect, which unblocks and suppresses every later
// publish.
type Stream struct {
	ch   chan Event
	done chan struct{}

	mu       sync.Mutex
	sealed   bool
	canceled bool
	chClosed bool
}

// NewStream returns a stream with the given delivery buffer.
func NewStream(buffer int) *Stream {
	return &Stream{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

// Events is the consumer side. The channel closes once the terminal
// event has been delivered or the producer has finished.
func (s *Stream) Events() <-chan Event { return s.ch }

// Publish delivers ev to the consumer, blocking only while the buffer
// is full and the consumer is still attached. It reports false once
// the stream is sealed or canceled; ev is dropped in that case.
func (s *Stream) Publish(ev Event) bool {
	s.mu.Lock()
	if s.sealed || s.canceled {
		s.mu.Unlock()
		return false
	}
	if ev.Terminal() {
		s.sealed = true
	}
	s.mu.Unlock()

	select {
	case s.ch <- ev:
		if ev.Terminal() {
			s.Close()
		}
		return true
	case <-s.done:
		return false
	}
}

// Cancel detaches the consumer. Pending and future publishes return
// false. Safe to call more than once.
func (s *Stream) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled {
		return
	}
	s.canceled = true
	close(s.done)
}

// Close ends the consumer channel. The producer calls it when nothing
// more will be published; publishing after Close drops the event
// rather than panicking. Safe to call more than once.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
	if s.chClosed {
		return
	}
	s.chClosed = true
	close(s.ch)
}

// Multi fans events out to a primary sink plus any number of
// secondary observers. The return value reflects the primary only;
// secondary delivery is best-effort.
type Multi struct {
	primary Sink
	others  []Sink
}

// NewMulti wraps primary with extra observers.
func NewMulti(primary Sink, others ...Sink) *Multi {
	return &Multi{primary: primary, others: others}
}

// Publish implements Sink.
func (m *Multi) Publish(ev Event) bool {
	ok := m.primary.Publish(ev)
	for _, s := range m.others {
		s.Publish(ev)
	}
	return ok
}
