package testutil

import (
	"context"
	"sync"

	"github.com/roach88/collsync/internal/engine"
)

// ChannelTarget is an engine.Target whose child population is pushed by
// the caller. Each Push delivers one full batch of live child states.
//
// Thread-safety: Push and Close are safe for concurrent use.
type ChannelTarget struct {
	mu     sync.Mutex
	ch     chan []engine.ChildState
	closed bool
}

// NewChannelTarget creates a target buffering up to size batches.
func NewChannelTarget(size int) *ChannelTarget {
	return &ChannelTarget{ch: make(chan []engine.ChildState, size)}
}

// Subscribe implements engine.Target.
func (t *ChannelTarget) Subscribe(ctx context.Context) (<-chan []engine.ChildState, error) {
	return t.ch, nil
}

// Push delivers a batch. Returns false once the target is closed.
// Blocks while the buffer is full.
func (t *ChannelTarget) Push(states ...engine.ChildState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	if states == nil {
		states = []engine.ChildState{}
	}
	t.ch <- states
	return true
}

// Close ends the population. Idempotent.
func (t *ChannelTarget) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.ch)
	}
}
