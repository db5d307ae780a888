package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/collsync/internal/engine"
	"github.com/roach88/collsync/internal/ir"
	"github.com/roach88/collsync/internal/testutil"
)

// DefaultStepTimeout bounds how long Run waits for the round of one step.
const DefaultStepTimeout = 5 * time.Second

// Options configures a scenario run.
type Options struct {
	// Journal, if set, receives every round the engine emits.
	Journal engine.Journal

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// StepTimeout defaults to DefaultStepTimeout.
	StepTimeout time.Duration

	// Keys generates keys for scenarios that do not list their own.
	// Defaults to a fresh counter per run.
	Keys engine.KeyGenerator

	// Buffer is passed through to engine.Options.
	Buffer int
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause matched.
	Pass bool `json:"pass"`

	// Trace holds one record per step, in order.
	Trace []ir.RoundRecord `json:"trace"`

	// Errors holds failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.RoundRecord{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario against a fresh engine with default options.
func Run(s *Scenario) (*Result, error) {
	return RunWithOptions(context.Background(), s, Options{})
}

// RunWithOptions executes a scenario against a fresh engine.
//
// Each step is submitted only after the previous step's round has been
// received, so the trace order is the step order. Failed expectations are
// collected in the Result; an error is returned only when the scenario
// cannot be executed (bad values, engine failure, timeout).
func RunWithOptions(ctx context.Context, s *Scenario, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}

	switch s.collection() {
	case CollectionKeyed:
		return runScenario(ctx, s, opts, keyedOps())
	default:
		return runScenario(ctx, s, opts, sequenceOps())
	}
}

// collectionOps is what the harness needs to build transforms for C.
type collectionOps[C any] struct {
	empty  func() C
	acc    engine.Accessor[C]
	remove func(c C, id string) C
	move   func(c C, id string, to int) C
	filter func(c C, keep func(engine.Entry) bool) C
}

func sequenceOps() collectionOps[engine.Sequence] {
	return collectionOps[engine.Sequence]{
		empty:  func() engine.Sequence { return engine.Sequence{} },
		acc:    engine.SequenceAccessor{},
		remove: engine.Sequence.Remove,
		move:   engine.Sequence.Move,
		filter: engine.Sequence.Filter,
	}
}

func keyedOps() collectionOps[engine.Keyed] {
	return collectionOps[engine.Keyed]{
		empty:  func() engine.Keyed { return engine.Keyed{} },
		acc:    engine.KeyedAccessor{},
		remove: engine.Keyed.Delete,
		move:   func(c engine.Keyed, _ string, _ int) engine.Keyed { return c },
		filter: func(c engine.Keyed, keep func(engine.Entry) bool) engine.Keyed {
			for id, e := range c {
				if !keep(e) {
					delete(c, id)
				}
			}
			return c
		},
	}
}

func runScenario[C any](ctx context.Context, s *Scenario, opts Options, ops collectionOps[C]) (*Result, error) {
	target := testutil.NewChannelTarget(1)
	defer target.Close()

	keys, listed := keysFor(s.Keys, opts.Keys)

	eng, err := engine.New(engine.Options[C]{
		Target:   target,
		Empty:    ops.empty,
		Accessor: ops.acc,
		Changed:  detectorFor(s.Detector),
		CloneOn:  policyFor(s.CloneOn),
		Keys:     keys,
		Journal:  opts.Journal,
		Logger:   opts.Logger,
		Buffer:   opts.Buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		runErr = eng.Run(runCtx)
	}()
	defer func() {
		cancel()
		<-done
	}()
	stopped := func() error {
		<-done
		if runErr == nil {
			return errors.New("engine stopped")
		}
		return fmt.Errorf("engine stopped: %w", runErr)
	}

	result := NewResult()
	var (
		prev     engine.Round[C]
		prevKeys map[string]string
	)
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		if err := submit(eng, target, ops, step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}

		round, err := await(eng, stopped, opts.StepTimeout)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		if listed != nil {
			if short := listed.shortfall(); short > 0 {
				return nil, fmt.Errorf("steps[%d]: scenario lists %d keys, %d more needed", i, len(s.Keys), short)
			}
		}

		rec, err := eng.RoundRecord(round)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: record round: %w", i, err)
		}
		result.Trace = append(result.Trace, rec)

		keys := keysByID(ops.acc.Entries(round.Collection))
		if step.Expect != nil {
			check := roundCheck[C]{step: i, prev: prev, prevKeys: prevKeys, round: round, keys: keys, acc: ops.acc}
			for _, failure := range check.evaluate(step.Expect) {
				result.AddError(failure.Error())
			}
		}
		prev, prevKeys = round, keys
	}

	return result, nil
}

// submit turns one step into an engine event.
func submit[C any](eng *engine.Engine[C], target *testutil.ChannelTarget, ops collectionOps[C], step Step) error {
	switch {
	case step.States != nil:
		batch, err := childStates(step.States)
		if err != nil {
			return err
		}
		if !target.Push(batch...) {
			return errors.New("target closed")
		}
		return nil
	case step.Transform != nil:
		fn, err := transformFor(ops, step.Transform)
		if err != nil {
			return err
		}
		if !eng.Transform(fn) {
			return errors.New("engine stopped")
		}
		return nil
	case step.Clone:
		if !eng.Clone() {
			return errors.New("engine stopped")
		}
		return nil
	default:
		return errors.New("empty step")
	}
}

// await receives the next round, failing on engine exit or timeout.
func await[C any](eng *engine.Engine[C], stopped func() error, timeout time.Duration) (engine.Round[C], error) {
	select {
	case round, ok := <-eng.Snapshots():
		if !ok {
			return engine.Round[C]{}, stopped()
		}
		return round, nil
	case <-time.After(timeout):
		return engine.Round[C]{}, fmt.Errorf("no round within %s", timeout)
	}
}

func childStates(raw []map[string]any) ([]engine.ChildState, error) {
	batch := make([]engine.ChildState, len(raw))
	for i, m := range raw {
		v, err := ir.FromAny(m)
		if err != nil {
			return nil, fmt.Errorf("states[%d]: %w", i, err)
		}
		batch[i] = v.(ir.IRObject)
	}
	return batch, nil
}

// transformFor builds the rewrite for op. Values are converted up front so
// that bad input is a harness error, not an engine failure.
func transformFor[C any](ops collectionOps[C], op *TransformOp) (engine.TransformFunc[C], error) {
	switch op.Op {
	case OpAppend:
		v, err := ir.FromAny(op.Value)
		if err != nil {
			return nil, fmt.Errorf("append value: %w", err)
		}
		return func(c C) (C, error) {
			return ops.acc.SetValue(c, op.ID, v), nil
		}, nil

	case OpSet:
		v, err := ir.FromAny(op.Value)
		if err != nil {
			return nil, fmt.Errorf("set value: %w", err)
		}
		return func(c C) (C, error) {
			for _, e := range ops.acc.Entries(c) {
				if e.ID == op.ID {
					return ops.acc.SetValue(c, op.ID, v), nil
				}
			}
			return c, nil
		}, nil

	case OpRemove:
		return func(c C) (C, error) { return ops.remove(c, op.ID), nil }, nil

	case OpMove:
		return func(c C) (C, error) { return ops.move(c, op.ID, op.To), nil }, nil

	case OpFilter:
		equals, err := ir.FromAny(op.Equals)
		if err != nil {
			return nil, fmt.Errorf("filter equals: %w", err)
		}
		return func(c C) (C, error) {
			return ops.filter(c, func(e engine.Entry) bool {
				obj, ok := e.Value.(ir.IRObject)
				return !ok || !ir.Equal(obj[op.Field], equals)
			}), nil
		}, nil

	case OpReplace:
		values := make([]ir.IRValue, len(op.Entries))
		for i, e := range op.Entries {
			v, err := ir.FromAny(e.Value)
			if err != nil {
				return nil, fmt.Errorf("replace entries[%d]: %w", i, err)
			}
			values[i] = v
		}
		// Surviving ids keep their keys, as a host rebuilding its list
		// from ids would.
		return func(c C) (C, error) {
			keys := keysByID(ops.acc.Entries(c))
			out := ops.empty()
			for i, e := range op.Entries {
				out = ops.acc.SetValue(out, e.ID, values[i])
				if k := keys[e.ID]; k != "" {
					out = ops.acc.SetKey(out, e.ID, k)
				}
			}
			return out, nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown op %q", op.Op)
	}
}

func detectorFor(name string) engine.ChangeDetector {
	switch name {
	case DetectorIdentity:
		return engine.IdentityChanged
	case DetectorNever:
		return engine.NeverChanged
	default:
		return engine.ShallowChanged
	}
}

func policyFor(c *CloneOn) *engine.ClonePolicy {
	p := engine.DefaultClonePolicy()
	if c == nil {
		return &p
	}
	if c.Transform != nil {
		p.Transform = *c.Transform
	}
	if c.StateChange != nil {
		p.StateChange = *c.StateChange
	}
	return &p
}

// keysFor picks the key generator for a run. The second result is non-nil
// when the scenario lists its own keys.
func keysFor(keys []string, fallback engine.KeyGenerator) (engine.KeyGenerator, *scenarioKeys) {
	switch {
	case len(keys) > 0:
		listed := newScenarioKeys(keys)
		return listed, listed
	case fallback != nil:
		return fallback, nil
	default:
		return engine.NewCounterKeys(), nil
	}
}

func keysByID(entries []engine.Entry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.ID] = e.Key
	}
	return out
}
