package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collsync/internal/ir"
)

func stateEvent(id string) Event[Sequence] {
	return Event[Sequence]{
		Type:   EventTypeStateChange,
		States: []ChildState{{IDField: ir.IRString(id)}},
	}
}

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue[Sequence]()

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(stateEvent(id)))
	}
	require.True(t, q.Enqueue(Event[Sequence]{Type: EventTypeClone}))
	assert.Equal(t, 4, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, ir.IRString(want), e.States[0][IDField])
	}

	e, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, EventTypeClone, e.Type)

	_, ok = q.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_EnqueueAfterClose(t *testing.T) {
	q := newEventQueue[Sequence]()
	q.Enqueue(stateEvent("a"))
	q.Close()
	q.Close() // idempotent

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(stateEvent("b")))
	assert.Equal(t, 0, q.Len(), "close drops pending events")
}

func TestEventQueue_WaitSignalsOnEnqueue(t *testing.T) {
	q := newEventQueue[Sequence]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(stateEvent("a"))
	}()

	select {
	case <-q.Wait():
		_, ok := q.TryDequeue()
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("wait was not signalled")
	}
}

func TestEventQueue_WaitUnblocksOnClose(t *testing.T) {
	q := newEventQueue[Sequence]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Close()
	}()

	select {
	case <-q.Wait():
		assert.True(t, q.Closed())
	case <-time.After(time.Second):
		t.Fatal("wait did not unblock after close")
	}
}

func TestEventQueue_ConcurrentProducers(t *testing.T) {
	q := newEventQueue[Sequence]()

	const producers, perProducer = 10, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(Event[Sequence]{Type: EventTypeClone})
			}
		}()
	}
	wg.Wait()

	n := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, producers*perProducer, n)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, ir.TriggerStateChange, EventTypeStateChange.String())
	assert.Equal(t, ir.TriggerTransform, EventTypeTransform.String())
	assert.Equal(t, ir.TriggerClone, EventTypeClone.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
