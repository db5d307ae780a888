package engine

import "github.com/roach88/collsync/internal/ir"

// DeltaType distinguishes the two kinds of incoming entry values.
type DeltaType string

const (
	// DeltaStateChange carries a fresh child state.
	DeltaStateChange DeltaType = "STATE_CHANGE"
	// DeltaTransform carries the post-transform candidate value.
	DeltaTransform DeltaType = "TRANSFORM"
)

// Delta is one incoming value for an entry.
type Delta struct {
	Type    DeltaType
	Payload ir.IRValue
}

// Reducer folds a delta into a new entry value. It is applied only when the
// change detector reported a change for that id. A returned error aborts the
// round and stops the engine.
type Reducer func(previous ir.IRValue, d Delta) (ir.IRValue, error)

// DefaultReducer takes the payload as the new value. State changes have the
// redundant "id" field stripped; an absent state payload keeps previous.
func DefaultReducer(previous ir.IRValue, d Delta) (ir.IRValue, error) {
	switch d.Type {
	case DeltaStateChange:
		if d.Payload == nil {
			return previous, nil
		}
		if obj, ok := d.Payload.(ir.IRObject); ok {
			return obj.Without(IDField), nil
		}
		return d.Payload, nil
	default:
		return d.Payload, nil
	}
}
