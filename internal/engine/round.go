package engine

import "slices"

// Round is the result of one processed event: the emitted collection plus
// what the round did to it.
//
// Collection aliases the live store unless the round cloned (see Cloned);
// a host that needs to mutate a snapshot must configure the clone policy
// accordingly.
type Round[C any] struct {
	// Seq is the engine's logical clock value for this round.
	Seq int64

	Trigger EventType

	Collection C

	// Changed holds the positions in IDs of entries that were reduced.
	Changed []int

	// ChangedIDs holds the reduced ids in the order they were reduced.
	ChangedIDs []string

	// PreviousIDs and IDs are the collection's id order before and after.
	PreviousIDs []string
	IDs         []string

	// Cloned reports whether the store was copied during the round.
	Cloned bool
}

// Unchanged reports whether the round neither reduced any entry nor changed
// the id order.
func (r Round[C]) Unchanged() bool {
	return len(r.Changed) == 0 && slices.Equal(r.PreviousIDs, r.IDs)
}

// StateEqual reports whether next carries no observable change relative to
// prev: no entry was reduced and the id order is the same. A round that only
// cloned compares equal.
func StateEqual[C any](prev, next Round[C]) bool {
	return len(next.Changed) == 0 && slices.Equal(prev.IDs, next.IDs)
}

// Gate lets a host skip recomputation for rounds that changed nothing.
// The zero value is ready to use and admits the first round.
type Gate[C any] struct {
	last    Round[C]
	primed  bool
	skipped int
}

// Admit reports whether r should be acted on. Admitted rounds become the
// new comparison baseline.
func (g *Gate[C]) Admit(r Round[C]) bool {
	if g.primed && StateEqual(g.last, r) {
		g.skipped++
		return false
	}
	g.last = r
	g.primed = true
	return true
}

// Last returns the most recently admitted round.
func (g *Gate[C]) Last() (Round[C], bool) {
	return g.last, g.primed
}

// Skipped returns how many rounds Admit has rejected.
func (g *Gate[C]) Skipped() int {
	return g.skipped
}
