package engine

import "github.com/roach88/collsync/internal/ir"

// ChangeDetector decides whether candidate differs from previous.
//
// It is called once per live id per round. It must be side-effect free and
// must not panic on values of different shapes; a shape mismatch counts as
// a change.
type ChangeDetector func(previous, candidate ir.IRValue) bool

// ShallowChanged is the default detector. It strips the routing "id" field
// from an object candidate and compares one level deep, nested values by
// reference.
func ShallowChanged(previous, candidate ir.IRValue) bool {
	if obj, ok := candidate.(ir.IRObject); ok {
		if _, routed := obj[IDField]; routed {
			candidate = obj.Without(IDField)
		}
	}
	return !ir.ShallowEqual(previous, candidate)
}

// IdentityChanged reports a change whenever candidate is not the very same
// value as previous. Objects and arrays compare by reference, so every fresh
// child state counts as a change.
func IdentityChanged(previous, candidate ir.IRValue) bool {
	return !ir.Same(previous, candidate)
}

// NeverChanged never reports a change. Rounds still run the clone policy and
// key assignment, but no entry is reduced.
func NeverChanged(previous, candidate ir.IRValue) bool {
	return false
}
