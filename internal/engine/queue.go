package engine

import (
	"sync"

	"github.com/roach88/collsync/internal/ir"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeStateChange carries a batch of live child states.
	EventTypeStateChange EventType = iota + 1
	// EventTypeTransform carries a whole-collection rewrite.
	EventTypeTransform
	// EventTypeClone forces a copy of the store.
	EventTypeClone
)

// String returns the trigger name recorded on rounds.
func (t EventType) String() string {
	switch t {
	case EventTypeStateChange:
		return ir.TriggerStateChange
	case EventTypeTransform:
		return ir.TriggerTransform
	case EventTypeClone:
		return ir.TriggerClone
	default:
		return "unknown"
	}
}

// Event is one unit of work for the Run loop. Exactly one of States or
// Transform is meaningful, depending on Type.
type Event[C any] struct {
	Type      EventType
	States    []ChildState
	Transform TransformFunc[C]
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue is unbounded so that producers (target forwarder, action
// forwarder, Dispatch callers) never block on a slow consumer.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type eventQueue[C any] struct {
	mu     sync.Mutex
	events []Event[C]
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue[C any]() *eventQueue[C] {
	return &eventQueue[C]{
		events: make([]Event[C], 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue[C]) Enqueue(e Event[C]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue[C]) TryDequeue() (Event[C], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event[C]{}, false
	}

	e := q.events[0]

	// Release the slot so batches and closures can be collected.
	q.events[0] = Event[C]{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed when the queue is closed.
func (q *eventQueue[C]) Wait() <-chan struct{} {
	return q.signal
}

// Closed reports whether Close has been called.
func (q *eventQueue[C]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the current queue length.
func (q *eventQueue[C]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued and drops anything
// still pending. Wakes any blocked waiters.
func (q *eventQueue[C]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	q.events = nil
	close(q.signal)
}
