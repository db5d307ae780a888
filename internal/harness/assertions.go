package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/collsync/internal/engine"
	"github.com/roach88/collsync/internal/ir"
)

// AssertionError is one failed expect clause.
type AssertionError struct {
	Step     int    // Index of the step whose round failed
	Type     string // Expect field, e.g. "ids" or "values.a"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("steps[%d]: %s: expected %s, got %s", e.Step, e.Type, e.Expected, e.Actual)
}

// roundCheck holds what is needed to evaluate one step's Expect.
// keys and prevKeys are captured when each round is received, since a round
// that did not clone shares its collection with later rounds.
type roundCheck[C any] struct {
	step     int
	prev     engine.Round[C]
	prevKeys map[string]string
	round    engine.Round[C]
	keys     map[string]string
	acc      engine.Accessor[C]
}

// evaluate returns one AssertionError per failed clause, in field order.
func (c roundCheck[C]) evaluate(e *Expect) []*AssertionError {
	var failures []*AssertionError
	fail := func(typ, expected, actual string) {
		failures = append(failures, &AssertionError{Step: c.step, Type: typ, Expected: expected, Actual: actual})
	}

	if e.IDs != nil && !slices.Equal(e.IDs, c.round.IDs) {
		fail("ids", formatIDs(e.IDs), formatIDs(c.round.IDs))
	}

	if e.Changed != nil && !slices.Equal(e.Changed, c.round.ChangedIDs) {
		fail("changed", formatIDs(e.Changed), formatIDs(c.round.ChangedIDs))
	}

	if len(e.Values) > 0 {
		values := make(map[string]ir.IRValue)
		for _, entry := range c.acc.Entries(c.round.Collection) {
			values[entry.ID] = entry.Value
		}
		for _, id := range sortedKeys(e.Values) {
			want, err := ir.FromAny(e.Values[id])
			if err != nil {
				fail("values."+id, "a valid value", err.Error())
				continue
			}
			got, ok := values[id]
			switch {
			case !ok:
				fail("values."+id, formatValue(want), "no entry")
			case !ir.Equal(want, got):
				fail("values."+id, formatValue(want), formatValue(got))
			}
		}
	}

	for _, id := range sortedKeys(e.Keys) {
		got, ok := c.keys[id]
		switch {
		case !ok:
			fail("keys."+id, fmt.Sprintf("%q", e.Keys[id]), "no entry")
		case got != e.Keys[id]:
			fail("keys."+id, fmt.Sprintf("%q", e.Keys[id]), fmt.Sprintf("%q", got))
		}
	}

	if e.Pure != nil {
		if got := engine.StateEqual(c.prev, c.round); got != *e.Pure {
			fail("pure", fmt.Sprint(*e.Pure), fmt.Sprint(got))
		}
	}

	if e.KeysStable {
		for _, id := range sortedKeys(c.prevKeys) {
			got, ok := c.keys[id]
			if ok && got != c.prevKeys[id] {
				fail("keys_stable", fmt.Sprintf("%s keeps key %q", id, c.prevKeys[id]), fmt.Sprintf("%q", got))
			}
		}
	}

	if e.Cloned != nil && *e.Cloned != c.round.Cloned {
		fail("cloned", fmt.Sprint(*e.Cloned), fmt.Sprint(c.round.Cloned))
	}

	return failures
}

func formatIDs(ids []string) string {
	return "[" + strings.Join(ids, ",") + "]"
}

func formatValue(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
