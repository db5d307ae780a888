package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/collsync/internal/ir"
)

// Engine keeps one collection in sync with a live child population and
// with host commands.
//
// CRITICAL: All store mutation happens in the Run goroutine. Producers
// (target forwarder, action forwarder, Dispatch callers) only enqueue.
//
// Thread-safety model:
//   - Dispatch(), Transform(), Clone(), Stop(): safe from any goroutine
//   - Run(): called once, from exactly one goroutine
//   - Snapshots(): read by the host
type Engine[C any] struct {
	cfg   config[C]
	clock *Clock
	queue *eventQueue[C]
	out   chan Round[C]

	// store is owned by the Run goroutine.
	store C

	started atomic.Bool
}

// New validates opts and creates an engine holding a clone of opts.Empty().
// Missing Target or Empty, or a collection type with no accessor, is a
// *ConfigError.
func New[C any](opts Options[C]) (*Engine[C], error) {
	cfg, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	return &Engine[C]{
		cfg:   cfg,
		clock: NewClock(),
		queue: newEventQueue[C](),
		out:   make(chan Round[C], cfg.buffer),
		store: cfg.acc.Clone(cfg.empty()),
	}, nil
}

// Snapshots returns the output stream: one Round per processed event. The
// channel is closed when Run returns. The host must keep reading it or Run
// blocks.
func (e *Engine[C]) Snapshots() <-chan Round[C] {
	return e.out
}

// Dispatch submits a host action. TRANSFORM and CLONE are enqueued; any
// other type is ignored. Returns whether the action was accepted.
func (e *Engine[C]) Dispatch(a Action) bool {
	switch a.Type {
	case ActionTransform:
		fn, ok := transformOf[C](a.Payload)
		if !ok {
			e.cfg.logger.Warn("ignoring transform action with unusable payload",
				"payload_type", fmt.Sprintf("%T", a.Payload),
			)
			return false
		}
		return e.Transform(fn)
	case ActionClone:
		return e.Clone()
	default:
		e.cfg.logger.Debug("ignoring action", "type", a.Type)
		return false
	}
}

// Transform enqueues a whole-collection rewrite.
// Returns false if the engine has been stopped.
func (e *Engine[C]) Transform(fn TransformFunc[C]) bool {
	if fn == nil {
		return false
	}
	return e.queue.Enqueue(Event[C]{Type: EventTypeTransform, Transform: fn})
}

// Clone enqueues an unconditional copy of the store.
// Returns false if the engine has been stopped.
func (e *Engine[C]) Clone() bool {
	return e.queue.Enqueue(Event[C]{Type: EventTypeClone})
}

// Enqueue submits a raw event. Used by tests and by hosts that already
// batch child states themselves.
func (e *Engine[C]) Enqueue(ev Event[C]) bool {
	return e.queue.Enqueue(ev)
}

// QueueLen returns the number of pending events.
func (e *Engine[C]) QueueLen() int {
	return e.queue.Len()
}

// Clock exposes the round clock.
func (e *Engine[C]) Clock() *Clock {
	return e.clock
}

// Stop shuts the engine down. Pending events are dropped and Run returns
// nil once the current round is finished.
func (e *Engine[C]) Stop() {
	e.queue.Close()
}

// Run subscribes to the target and processes events until ctx is
// cancelled, Stop is called, or a collaborator fails.
//
// Events are processed strictly one at a time: a round is applied and
// emitted before the next event is dequeued.
//
// ERROR HANDLING: an error from a reducer or transform is logged with the
// round context and returned as a *CollaboratorError; the store may be
// partially mutated. Journal failures are logged and processing continues.
// Panics from caller code are not recovered.
func (e *Engine[C]) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return errors.New("engine: Run called more than once")
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		e.queue.Close()
		wg.Wait()
		close(e.out)
		var zero C
		e.store = zero
	}()

	states, err := e.cfg.target.Subscribe(ctx)
	if err != nil {
		return &CollaboratorError{Code: ErrCodeTargetFailed, Err: err}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.forwardStates(ctx, states)
	}()

	if e.cfg.actions != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.forwardActions(ctx)
		}()
	}

	e.cfg.logger.Info("engine starting",
		"clone_transform", e.cfg.policy.Transform,
		"clone_state_change", e.cfg.policy.StateChange,
	)

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			round, err := e.process(event)
			if err != nil {
				e.cfg.logger.Error("round failed",
					"type", event.Type.String(),
					"error", err,
				)
				return err
			}
			e.record(ctx, round)
			select {
			case e.out <- round:
			case <-ctx.Done():
				e.cfg.logger.Info("engine stopping: context cancelled")
				return ctx.Err()
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.cfg.logger.Info("engine stopping: context cancelled")
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue.
			if e.queue.Closed() {
				e.cfg.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// forwardStates enqueues each batch from the target until the target
// closes its channel or ctx is done.
func (e *Engine[C]) forwardStates(ctx context.Context, states <-chan []ChildState) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-states:
			if !ok {
				e.cfg.logger.Debug("target closed")
				return
			}
			if !e.queue.Enqueue(Event[C]{Type: EventTypeStateChange, States: batch}) {
				return
			}
		}
	}
}

func (e *Engine[C]) forwardActions(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-e.cfg.actions:
			if !ok {
				return
			}
			e.Dispatch(a)
		}
	}
}

// process applies one event to the store.
// CRITICAL: Called only from the Run goroutine.
func (e *Engine[C]) process(event Event[C]) (Round[C], error) {
	seq := e.clock.Next()
	previous := IDs(e.cfg.acc, e.store)

	var (
		changed []string
		cloned  bool
		err     error
	)
	switch event.Type {
	case EventTypeStateChange:
		changed, cloned, err = e.applyStates(seq, event.States)
	case EventTypeTransform:
		changed, cloned, err = e.applyTransform(seq, event.Transform)
	case EventTypeClone:
		e.store = e.cfg.acc.Clone(e.store)
		cloned = true
	default:
		e.cfg.logger.Warn("skipping event of unknown type", "type", int(event.Type))
	}
	if err != nil {
		return Round[C]{}, err
	}

	round := e.round(seq, event.Type, previous, changed, cloned)
	e.cfg.logger.Debug("round applied",
		"seq", round.Seq,
		"trigger", round.Trigger.String(),
		"changed", len(round.Changed),
		"entries", len(round.IDs),
		"cloned", round.Cloned,
	)
	return round, nil
}

// applyStates runs a state-change pass: every live child with a routable id
// is compared against its entry, and changed ones are reduced and written.
// Entries whose id is not live are left untouched.
func (e *Engine[C]) applyStates(seq int64, batch []ChildState) ([]string, bool, error) {
	cloned := e.cfg.policy.StateChange
	if cloned {
		e.store = e.cfg.acc.Clone(e.store)
	}

	order, live := routeStates(batch)
	current := valuesByID(e.cfg.acc.Entries(e.store))

	var changed []string
	for _, id := range order {
		state := live[id]
		previous := current[id]
		if !e.cfg.changed(previous, state) {
			continue
		}
		next, err := e.cfg.reducer(previous, Delta{Type: DeltaStateChange, Payload: state})
		if err != nil {
			return nil, cloned, &CollaboratorError{Code: ErrCodeReducerFailed, Seq: seq, ID: id, Err: err}
		}
		e.store = e.cfg.acc.SetValue(e.store, id, next)
		changed = append(changed, id)
	}

	e.assignKeys()
	return changed, cloned, nil
}

// applyTransform runs a transform pass: the caller's rewrite, then change
// detection and reduction for every id in the result, then key assignment.
func (e *Engine[C]) applyTransform(seq int64, fn TransformFunc[C]) ([]string, bool, error) {
	before := valuesByID(e.cfg.acc.Entries(e.store))

	cloned := e.cfg.policy.Transform
	if cloned {
		e.store = e.cfg.acc.Clone(e.store)
	}

	result, err := fn(e.store)
	if err != nil {
		return nil, cloned, &CollaboratorError{Code: ErrCodeTransformFailed, Seq: seq, Err: err}
	}
	e.store = result

	var changed []string
	for _, entry := range e.cfg.acc.Entries(e.store) {
		previous := before[entry.ID]
		if !e.cfg.changed(previous, entry.Value) {
			continue
		}
		next, err := e.cfg.reducer(previous, Delta{Type: DeltaTransform, Payload: entry.Value})
		if err != nil {
			return nil, cloned, &CollaboratorError{Code: ErrCodeReducerFailed, Seq: seq, ID: entry.ID, Err: err}
		}
		e.store = e.cfg.acc.SetValue(e.store, entry.ID, next)
		changed = append(changed, entry.ID)
	}

	e.assignKeys()
	return changed, cloned, nil
}

// assignKeys gives every keyless entry a fresh key. Existing keys are never
// touched.
func (e *Engine[C]) assignKeys() {
	var missing []string
	for _, entry := range e.cfg.acc.Entries(e.store) {
		if entry.Key == "" {
			missing = append(missing, entry.ID)
		}
	}
	for _, id := range missing {
		e.store = e.cfg.acc.SetKey(e.store, id, e.cfg.keys.Generate())
	}
}

func (e *Engine[C]) round(seq int64, trigger EventType, previous, changedIDs []string, cloned bool) Round[C] {
	ids := IDs(e.cfg.acc, e.store)

	reduced := make(map[string]bool, len(changedIDs))
	for _, id := range changedIDs {
		reduced[id] = true
	}
	var positions []int
	for i, id := range ids {
		if reduced[id] {
			positions = append(positions, i)
		}
	}

	return Round[C]{
		Seq:         seq,
		Trigger:     trigger,
		Collection:  e.store,
		Changed:     positions,
		ChangedIDs:  changedIDs,
		PreviousIDs: previous,
		IDs:         ids,
		Cloned:      cloned,
	}
}

// record writes the round to the journal, if any.
// Failures are logged and processing continues.
func (e *Engine[C]) record(ctx context.Context, r Round[C]) {
	if e.cfg.journal == nil {
		return
	}

	rec, err := e.RoundRecord(r)
	if err == nil {
		err = e.cfg.journal.Record(ctx, rec)
	}
	if err != nil {
		e.cfg.logger.Error("journal write failed",
			"seq", r.Seq,
			"trigger", r.Trigger.String(),
			"error", err,
		)
	}
}

// RoundRecord renders r for journals: canonical entry records plus digest.
func (e *Engine[C]) RoundRecord(r Round[C]) (ir.RoundRecord, error) {
	entries := e.cfg.acc.Entries(r.Collection)
	records := make(ir.IRArray, len(entries))
	for i, entry := range entries {
		records[i] = entry.Record()
	}

	digest, err := ir.SnapshotDigest(records)
	if err != nil {
		return ir.RoundRecord{}, err
	}

	return ir.RoundRecord{
		Seq:           r.Seq,
		Trigger:       r.Trigger.String(),
		Changed:       nonNil(r.ChangedIDs),
		PreviousIDs:   nonNil(r.PreviousIDs),
		IDs:           nonNil(r.IDs),
		Entries:       records,
		Digest:        digest,
		Cloned:        r.Cloned,
		EngineVersion: ir.EngineVersion,
	}, nil
}

// routeStates indexes a batch by routable id, keeping first-seen order.
// A later state for the same id replaces the earlier one; states without a
// non-empty string id are dropped.
func routeStates(batch []ChildState) ([]string, map[string]ChildState) {
	order := make([]string, 0, len(batch))
	live := make(map[string]ChildState, len(batch))
	for _, state := range batch {
		id, ok := state[IDField].(ir.IRString)
		if !ok || id == "" {
			continue
		}
		if _, seen := live[string(id)]; !seen {
			order = append(order, string(id))
		}
		live[string(id)] = state
	}
	return order, live
}

func valuesByID(entries []Entry) map[string]ir.IRValue {
	out := make(map[string]ir.IRValue, len(entries))
	for _, entry := range entries {
		out[entry.ID] = entry.Value
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

