package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collsync/internal/ir"
	"github.com/roach88/collsync/internal/testutil"
)

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	s, err := ParseScenario(t.Name()+".yaml", []byte(yaml))
	require.NoError(t, err)
	return s
}

func TestRun_Pass(t *testing.T) {
	s := mustParse(t, `
name: pass
description: "single insert"
steps:
  - states: [{ id: a, title: milk }]
    expect:
      ids: [a]
      changed: [a]
      values: { a: { title: milk } }
      keys: { a: "1" }
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 1)

	rec := result.Trace[0]
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, ir.TriggerStateChange, rec.Trigger)
	assert.Equal(t, []string{}, rec.PreviousIDs)
	assert.Equal(t, ir.EngineVersion, rec.EngineVersion)
	assert.Equal(t, ir.MustSnapshotDigest(rec.Entries), rec.Digest)
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	s := mustParse(t, `
name: fail
description: "every clause is wrong"
steps:
  - states: [{ id: a, n: 1 }]
    expect:
      ids: [b]
      changed: []
      values: { a: { n: 2 }, z: 1 }
      keys: { a: "9" }
      pure: true
      cloned: false
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"steps[0]: ids: expected [b], got [a]",
		"steps[0]: changed: expected [], got [a]",
		`steps[0]: values.a: expected {"n":2}, got {"n":1}`,
		"steps[0]: values.z: expected 1, got no entry",
		`steps[0]: keys.a: expected "9", got "1"`,
		"steps[0]: pure: expected true, got false",
		"steps[0]: cloned: expected false, got true",
	}, result.Errors)
}

func TestRun_FailuresDoNotStopTheScenario(t *testing.T) {
	s := mustParse(t, `
name: continue
description: "a failed step is followed by the rest"
steps:
  - states: [{ id: a }]
    expect: { ids: [] }
  - states: [{ id: b }]
    expect: { ids: [a, b] }
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, result.Trace, 2)
}

func TestRun_KeysStableDetectsRekeying(t *testing.T) {
	// replace keeps keys; a host that drops them would get fresh ones.
	s := mustParse(t, `
name: stable
description: "replace keeps keys of surviving ids"
keys: [k1, k2, k3]
steps:
  - states: [{ id: a }, { id: b }]
  - transform:
      op: replace
      entries: [{ id: b, value: {} }, { id: c, value: {} }]
    expect:
      ids: [b, c]
      keys: { b: k2, c: k3 }
      keys_stable: true
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_Detectors(t *testing.T) {
	t.Run("identity reduces every fresh state", func(t *testing.T) {
		s := mustParse(t, `
name: identity
description: "fresh objects always differ"
detector: identity
steps:
  - states: [{ id: a, n: 1 }]
    expect: { changed: [a] }
  - states: [{ id: a, n: 1 }]
    expect: { changed: [a], pure: false }
`)
		result, err := Run(s)
		require.NoError(t, err)
		assert.True(t, result.Pass, result.Errors)
	})

	t.Run("never reduces nothing", func(t *testing.T) {
		s := mustParse(t, `
name: never
description: "no state is ever written"
detector: never
steps:
  - states: [{ id: a, n: 1 }]
    expect: { ids: [], changed: [], pure: true }
`)
		result, err := Run(s)
		require.NoError(t, err)
		assert.True(t, result.Pass, result.Errors)
	})
}

func TestRun_StateChangeClonePolicy(t *testing.T) {
	s := mustParse(t, `
name: no_clone
description: "state changes write in place"
clone_on: { state_change: false }
steps:
  - states: [{ id: a }]
    expect: { cloned: false }
  - transform: { op: remove, id: a }
    expect: { cloned: true }
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_Journal(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/lifecycle.yaml")
	require.NoError(t, err)

	journal := testutil.NewMemoryJournal()
	result, err := RunWithOptions(context.Background(), s, Options{Journal: journal})
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	assert.Equal(t, result.Trace, journal.Records())
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/replace.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	require.Len(t, second.Trace, len(first.Trace))
	for i := range first.Trace {
		assert.Equal(t, first.Trace[i].Digest, second.Trace[i].Digest, "round %d", i)
	}
}

func TestRun_BadValue(t *testing.T) {
	s := mustParse(t, `
name: bad
description: "fractional numbers are not values"
steps:
  - transform: { op: append, id: a, value: 1.5 }
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]: append value")
}

func TestRun_CancelledContext(t *testing.T) {
	s := mustParse(t, `
name: cancelled
description: "no round arrives after cancel"
steps:
  - clone: true
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunWithOptions(ctx, s, Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{Step: 2, Type: "ids", Expected: "[a]", Actual: "[]"}
	assert.Equal(t, "steps[2]: ids: expected [a], got []", err.Error())
}

func TestResultAddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestRun_ListedKeysExhausted(t *testing.T) {
	s := mustParse(t, `
name: short-keys
description: "two new ids, one listed key"
keys: [k1]
steps:
  - states: [{ id: a }, { id: b }]
`)

	result, err := Run(s)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "steps[0]: scenario lists 1 keys, 1 more needed")
}

func TestRun_ListedKeysExhaustedOnLaterStep(t *testing.T) {
	s := mustParse(t, `
name: short-keys-later
description: "second step needs a third key"
keys: [k1, k2]
steps:
  - states: [{ id: a }, { id: b }]
    expect: { keys: { a: k1, b: k2 } }
  - transform: { op: append, id: c, value: 1 }
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[1]: scenario lists 2 keys, 1 more needed")
}

func TestScenarioKeys(t *testing.T) {
	g := newScenarioKeys([]string{"x", "y"})

	assert.Equal(t, "x", g.Generate())
	assert.Equal(t, "y", g.Generate())
	assert.Equal(t, 0, g.shortfall())

	first := g.Generate()
	second := g.Generate()
	assert.NotEqual(t, first, second, "overflow keys stay unique")
	assert.Equal(t, 2, g.shortfall())
}
