// Package harness runs conformance scenarios against a real engine.
//
// A scenario fixes a collection representation, a change detector and a key
// sequence, then feeds the engine one event per step and checks the round
// each event produces.
//
// # Scenario Format
//
//	name: lifecycle
//	description: "An entry is created, updated and removed"
//	collection: sequence        # or keyed
//	detector: shallow           # or identity, never
//	keys: ["k1", "k2"]          # optional; counter keys otherwise
//	clone_on: { transform: false }
//	steps:
//	  - states: [{ id: a, value: 5 }]
//	    expect:
//	      ids: [a]
//	      changed: [a]
//	      values: { a: { value: 5 } }
//	      keys: { a: k1 }
//	  - transform: { op: remove, id: a }
//	    expect: { ids: [], pure: false }
//	  - clone: true
//	    expect: { pure: true, cloned: true }
//
// Files are validated against a CUE schema before decoding, then decoded
// strictly: unknown fields are errors.
//
// # Transform Ops
//
//   - append: add id with value at the end (overwrites if present)
//   - set: overwrite the value of an existing id
//   - remove: drop id
//   - move: move id to position to (sequence only)
//   - filter: drop entries whose object value has field equal to equals
//   - replace: rebuild the collection from entries, keeping known keys
//
// # Determinism
//
// Each scenario gets a fresh engine with its own counter or fixed keys, and
// every step waits for its round before the next event is sent. Traces are
// therefore identical across runs and can be compared against golden files
// (see RunWithGolden).
package harness
