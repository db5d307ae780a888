// Package engine implements the collsync reactive collection engine.
//
// The engine keeps one canonical collection (an ordered Sequence, a Keyed
// map, or any type with an Accessor) consistent with a changing population
// of live children, and applies host Transform and Clone commands to it.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Three producers feed one FIFO queue: the target forwarder (child state
// batches), the action forwarder (Options.Actions) and direct Dispatch
// calls. Engine.Run() is the only consumer and the only code that touches
// the store, so a round never observes a half-applied earlier round.
//
// Event Processing Flow:
//  1. Producer enqueues a state batch, transform or clone event
//  2. Run() dequeues one event
//  3. The clone policy decides whether the store is copied first
//  4. Change detector gates the reducer per id; accessor writes the result
//  5. Keyless entries get a key from the KeyGenerator
//  6. A Round (snapshot plus changed positions and id orders) is journaled
//     and sent on Snapshots()
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Rounds are stamped with Clock.Next(). Default keys come from a per-engine
// counter, never from process-wide state or wall-clock time.
//
// Identity by id:
// Entries are matched to child states and to transform results by id, never
// by position. Reordering or removal in a transform keeps each surviving
// entry's key.
//
// Known non-atomicity:
// A reducer or transform that fails mid-round leaves the store partially
// mutated. Run returns the error and the engine should be discarded.
package engine
