package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collsync/internal/ir"
)

func TestGoldenScenarios(t *testing.T) {
	scenarios, _, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestTraceSnapshot(t *testing.T) {
	trace := []ir.RoundRecord{{
		Seq:           1,
		Trigger:       ir.TriggerClone,
		Changed:       []string{},
		IDs:           []string{"a"},
		Entries:       ir.IRArray{ir.EntryRecord("a", "1", ir.IRInt(3))},
		Digest:        "ignored",
		Cloned:        true,
		EngineVersion: "ignored",
	}}

	data, err := TraceSnapshot("snap", trace)
	require.NoError(t, err)
	assert.Equal(t,
		`{"rounds":[{"changed":[],"cloned":true,"entries":[{"id":"a","key":"1","value":3}],"ids":["a"],"seq":1,"trigger":"clone"}],"scenario":"snap"}`,
		string(data))
}

func TestTraceSnapshot_NilSlices(t *testing.T) {
	data, err := TraceSnapshot("empty", []ir.RoundRecord{{Seq: 1, Trigger: ir.TriggerTransform, Entries: ir.IRArray{}}})
	require.NoError(t, err)
	assert.Equal(t,
		`{"rounds":[{"changed":[],"cloned":false,"entries":[],"ids":[],"seq":1,"trigger":"transform"}],"scenario":"empty"}`,
		string(data))
}
