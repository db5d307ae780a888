package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/collsync/internal/ir"
)

// DefaultBuffer is the capacity of the Snapshots channel when Options.Buffer
// is zero.
const DefaultBuffer = 16

// Target supplies the live child population. Each value received from the
// subscription is the full current set of child states; a closed channel
// means the population will not change again. The subscription must stop
// when ctx is cancelled.
type Target interface {
	Subscribe(ctx context.Context) (<-chan []ChildState, error)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(ctx context.Context) (<-chan []ChildState, error)

// Subscribe calls f.
func (f TargetFunc) Subscribe(ctx context.Context) (<-chan []ChildState, error) {
	return f(ctx)
}

// Journal receives a record of every emitted round. Failures are logged and
// do not stop the engine.
type Journal interface {
	Record(ctx context.Context, rec ir.RoundRecord) error
}

// ClonePolicy decides, per pass kind, whether the store is copied before it
// is mutated. The explicit Clone command copies regardless.
type ClonePolicy struct {
	Transform   bool
	StateChange bool
}

// DefaultClonePolicy copies before both kinds of pass.
func DefaultClonePolicy() ClonePolicy {
	return ClonePolicy{Transform: true, StateChange: true}
}

// Options configures an Engine. Target and Empty are required; everything
// else has a default.
type Options[C any] struct {
	// Target supplies live child states.
	Target Target

	// Empty builds the initial collection. The engine keeps a clone of it,
	// never the returned value itself.
	Empty func() C

	// Accessor reads and writes C. Defaults to the built-in accessor for
	// Sequence and Keyed.
	Accessor Accessor[C]

	// Per-operation overrides of Accessor.
	Entries  func(c C) []Entry
	SetValue func(c C, id string, v ir.IRValue) C
	SetKey   func(c C, id string, key string) C
	Clone    func(c C) C

	// Changed defaults to ShallowChanged.
	Changed ChangeDetector

	// Reducer defaults to DefaultReducer.
	Reducer Reducer

	// CloneOn defaults to DefaultClonePolicy when nil.
	CloneOn *ClonePolicy

	// Keys defaults to a fresh CounterKeys per engine.
	Keys KeyGenerator

	// Actions, if set, is read until closed and each action passed to
	// Dispatch. Actions of unknown type are ignored.
	Actions <-chan Action

	Journal Journal

	Logger *slog.Logger

	// Buffer is the Snapshots channel capacity.
	Buffer int
}

// config is Options resolved once by New; nothing downstream checks for
// absent fields.
type config[C any] struct {
	target  Target
	empty   func() C
	acc     Accessor[C]
	changed ChangeDetector
	reducer Reducer
	policy  ClonePolicy
	keys    KeyGenerator
	actions <-chan Action
	journal Journal
	logger  *slog.Logger
	buffer  int
}

func resolve[C any](opts Options[C]) (config[C], error) {
	if opts.Target == nil {
		return config[C]{}, &ConfigError{Code: ErrCodeMissingTarget, Message: "target is required"}
	}
	if opts.Empty == nil {
		return config[C]{}, &ConfigError{Code: ErrCodeMissingEmpty, Message: "empty is required"}
	}

	acc, err := resolveAccessor(opts)
	if err != nil {
		return config[C]{}, err
	}

	cfg := config[C]{
		target:  opts.Target,
		empty:   opts.Empty,
		acc:     acc,
		changed: opts.Changed,
		reducer: opts.Reducer,
		policy:  DefaultClonePolicy(),
		keys:    opts.Keys,
		actions: opts.Actions,
		journal: opts.Journal,
		logger:  opts.Logger,
		buffer:  opts.Buffer,
	}
	if cfg.changed == nil {
		cfg.changed = ShallowChanged
	}
	if cfg.reducer == nil {
		cfg.reducer = DefaultReducer
	}
	if opts.CloneOn != nil {
		cfg.policy = *opts.CloneOn
	}
	if cfg.keys == nil {
		cfg.keys = NewCounterKeys()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.buffer <= 0 {
		cfg.buffer = DefaultBuffer
	}
	return cfg, nil
}

// resolveAccessor picks the base accessor and layers per-field overrides.
func resolveAccessor[C any](opts Options[C]) (Accessor[C], error) {
	base := opts.Accessor
	if base == nil {
		base = builtinAccessor[C]()
	}

	noOverrides := opts.Entries == nil && opts.SetValue == nil && opts.SetKey == nil && opts.Clone == nil
	if noOverrides {
		if base == nil {
			var zero C
			return nil, &ConfigError{
				Code:    ErrCodeNoAccessor,
				Message: fmt.Sprintf("no accessor for collection type %T", zero),
			}
		}
		return base, nil
	}

	if base == nil {
		var missing []string
		if opts.Entries == nil {
			missing = append(missing, "Entries")
		}
		if opts.SetValue == nil {
			missing = append(missing, "SetValue")
		}
		if opts.SetKey == nil {
			missing = append(missing, "SetKey")
		}
		if opts.Clone == nil {
			missing = append(missing, "Clone")
		}
		if len(missing) > 0 {
			return nil, &ConfigError{
				Code:    ErrCodeNoAccessor,
				Message: "no base accessor and missing overrides: " + strings.Join(missing, ", "),
			}
		}
	}

	return &overrideAccessor[C]{
		base:     base,
		entries:  opts.Entries,
		setValue: opts.SetValue,
		setKey:   opts.SetKey,
		clone:    opts.Clone,
	}, nil
}

// builtinAccessor returns the accessor for Sequence or Keyed, or nil.
func builtinAccessor[C any]() Accessor[C] {
	var zero C
	switch any(zero).(type) {
	case Sequence:
		return any(SequenceAccessor{}).(Accessor[C])
	case Keyed:
		return any(KeyedAccessor{}).(Accessor[C])
	default:
		return nil
	}
}

// overrideAccessor prefers per-field functions over base.
type overrideAccessor[C any] struct {
	base     Accessor[C]
	entries  func(C) []Entry
	setValue func(C, string, ir.IRValue) C
	setKey   func(C, string, string) C
	clone    func(C) C
}

func (a *overrideAccessor[C]) Clone(c C) C {
	if a.clone != nil {
		return a.clone(c)
	}
	return a.base.Clone(c)
}

func (a *overrideAccessor[C]) Entries(c C) []Entry {
	if a.entries != nil {
		return a.entries(c)
	}
	return a.base.Entries(c)
}

func (a *overrideAccessor[C]) SetValue(c C, id string, v ir.IRValue) C {
	if a.setValue != nil {
		return a.setValue(c, id, v)
	}
	return a.base.SetValue(c, id, v)
}

func (a *overrideAccessor[C]) SetKey(c C, id string, key string) C {
	if a.setKey != nil {
		return a.setKey(c, id, key)
	}
	return a.base.SetKey(c, id, key)
}
