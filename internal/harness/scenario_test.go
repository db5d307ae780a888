package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/transforms.yaml")
	require.NoError(t, err)

	assert.Equal(t, "transforms", s.Name)
	assert.Equal(t, []string{"k1", "k2", "k3"}, s.Keys)
	require.NotNil(t, s.CloneOn)
	require.NotNil(t, s.CloneOn.Transform)
	assert.False(t, *s.CloneOn.Transform)
	assert.Nil(t, s.CloneOn.StateChange)
	require.Len(t, s.Steps, 6)

	first := s.Steps[0]
	require.NotNil(t, first.Transform)
	assert.Equal(t, OpAppend, first.Transform.Op)
	assert.Equal(t, "a", first.Transform.ID)
	assert.Equal(t, map[string]any{"title": "milk"}, first.Transform.Value)
	assert.Equal(t, []string{"a"}, first.Expect.IDs)

	assert.True(t, s.Steps[5].Clone)
}

func TestLoadScenario_EmptyExpectationsAreChecked(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/lifecycle.yaml")
	require.NoError(t, err)

	ex := s.Steps[3].Expect
	require.NotNil(t, ex)
	assert.NotNil(t, ex.IDs, "ids: [] must decode as an explicit empty list")
	assert.Empty(t, ex.IDs)
	assert.NotNil(t, ex.Changed)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	_, err := LoadScenario("testdata/invalid/unknown_field.yaml")
	require.Error(t, err)

	var se *SchemaError
	require.True(t, errors.As(err, &se), "got %T: %v", err, err)
	assert.Equal(t, "testdata/invalid/unknown_field.yaml", se.Filename)
}

func TestLoadScenario_OneEventPerStep(t *testing.T) {
	_, err := LoadScenario("testdata/invalid/two_events.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]: exactly one of states, transform or clone is required")
}

func TestLoadScenarios(t *testing.T) {
	scenarios, paths, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 4)
	require.Len(t, paths, 4)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"keyed", "lifecycle", "replace", "transforms"}, names)
}

func TestLoadScenarios_StopsAtFirstInvalid(t *testing.T) {
	_, _, err := LoadScenarios("testdata/invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "two_events.yaml")
}

func TestParseScenario_TransformRules(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "append without id",
			yaml: `
name: t
description: d
steps:
  - transform: { op: append, value: 1 }
`,
			wantErr: "id is required for append",
		},
		{
			name: "move on keyed",
			yaml: `
name: t
description: d
collection: keyed
steps:
  - transform: { op: move, id: a, to: 1 }
`,
			wantErr: "move is not supported on keyed collections",
		},
		{
			name: "filter without field",
			yaml: `
name: t
description: d
steps:
  - transform: { op: filter, equals: true }
`,
			wantErr: "field is required for filter",
		},
		{
			name: "duplicate replace ids",
			yaml: `
name: t
description: d
steps:
  - transform:
      op: replace
      entries: [{ id: a }, { id: a }]
`,
			wantErr: `duplicate id "a"`,
		},
		{
			name: "empty step",
			yaml: `
name: t
description: d
steps:
  - expect: { ids: [] }
`,
			wantErr: "exactly one of states, transform or clone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario("inline.yaml", []byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_DefaultsToSequence(t *testing.T) {
	s, err := ParseScenario("inline.yaml", []byte(`
name: t
description: d
steps:
  - clone: true
`))
	require.NoError(t, err)
	assert.Equal(t, CollectionSequence, s.collection())
}
