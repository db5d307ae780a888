package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/collsync/internal/ir"
)

// TraceSnapshot renders a trace for golden comparison. Digests and engine
// versions are left out so that golden files only change when observable
// behavior does.
func TraceSnapshot(name string, trace []ir.RoundRecord) ([]byte, error) {
	rounds := make(ir.IRArray, len(trace))
	for i, rec := range trace {
		rounds[i] = ir.IRObject{
			"seq":     ir.IRInt(rec.Seq),
			"trigger": ir.IRString(rec.Trigger),
			"ids":     idArray(rec.IDs),
			"changed": idArray(rec.Changed),
			"entries": rec.Entries,
			"cloned":  ir.IRBool(rec.Cloned),
		}
	}
	return ir.MarshalCanonical(ir.IRObject{
		"scenario": ir.IRString(name),
		"rounds":   rounds,
	})
}

func idArray(ids []string) ir.IRArray {
	out := make(ir.IRArray, len(ids))
	for i, id := range ids {
		out[i] = ir.IRString(id)
	}
	return out
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be executed. A trace mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := TraceSnapshot(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
