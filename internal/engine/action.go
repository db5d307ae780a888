package engine

// Action types the engine consumes from the action stream. Everything else
// is left to other consumers of the same stream.
const (
	ActionTransform = "TRANSFORM"
	ActionClone     = "CLONE"
)

// Action is a host command. For ActionTransform the payload is a
// TransformFunc[C] (or a plain func(C) (C, error) or func(C) C).
type Action struct {
	Type    string
	Payload any
}

// TransformFunc rewrites the whole collection. It runs on the engine's
// goroutine and receives the store itself (cloned first if the policy says
// so); it may mutate and return it. A returned error stops the engine.
type TransformFunc[C any] func(c C) (C, error)

// TransformAction builds a TRANSFORM action.
func TransformAction[C any](fn TransformFunc[C]) Action {
	return Action{Type: ActionTransform, Payload: fn}
}

// CloneAction builds a CLONE action.
func CloneAction() Action {
	return Action{Type: ActionClone}
}

// transformOf extracts the transform from an action payload.
func transformOf[C any](payload any) (TransformFunc[C], bool) {
	switch fn := payload.(type) {
	case TransformFunc[C]:
		return fn, fn != nil
	case func(C) (C, error):
		return fn, fn != nil
	case func(C) C:
		if fn == nil {
			return nil, false
		}
		return func(c C) (C, error) { return fn(c), nil }, true
	default:
		return nil, false
	}
}
