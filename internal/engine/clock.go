package engine

import "sync/atomic"

// Clock is a monotonic logical counter.
//
// The engine stamps every round with Clock.Next(), and CounterKeys renders
// its own Clock in base 36. Never wall-clock time: replaying the same events
// yields the same sequence numbers and keys.
//
// Clock is safe for concurrent use, though the engine's single consumer is
// normally the only caller.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific value.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
