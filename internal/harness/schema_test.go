package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchema_Valid(t *testing.T) {
	err := ValidateSchema("ok.yaml", []byte(`
name: ok
description: "valid"
collection: keyed
detector: identity
clone_on: { transform: false }
steps:
  - states: [{ id: a, n: 1 }]
    expect: { ids: [a], pure: false }
`))
	assert.NoError(t, err)
}

func TestValidateSchema_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing description", "name: x\nsteps:\n  - clone: true\n"},
		{"empty steps", "name: x\ndescription: d\nsteps: []\n"},
		{"bad collection", "name: x\ndescription: d\ncollection: tree\nsteps:\n  - clone: true\n"},
		{"bad detector", "name: x\ndescription: d\ndetector: deep\nsteps:\n  - clone: true\n"},
		{"bad op", "name: x\ndescription: d\nsteps:\n  - transform: { op: sort }\n"},
		{"clone not bool", "name: x\ndescription: d\nsteps:\n  - clone: yes please\n"},
		{"unknown expect field", "name: x\ndescription: d\nsteps:\n  - clone: true\n    expect: { size: 1 }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema("bad.yaml", []byte(tt.yaml))
			require.Error(t, err)

			var se *SchemaError
			assert.True(t, errors.As(err, &se), "got %T: %v", err, err)
		})
	}
}

func TestValidateSchema_MalformedYAML(t *testing.T) {
	err := ValidateSchema("bad.yaml", []byte("name: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestSchemaError_Format(t *testing.T) {
	withPos := &SchemaError{Filename: "s.yaml", Line: 3, Column: 5, Message: "field not allowed"}
	assert.Equal(t, "s.yaml:3:5: field not allowed", withPos.Error())

	noPos := &SchemaError{Filename: "s.yaml", Message: "incomplete value"}
	assert.Equal(t, "s.yaml: incomplete value", noPos.Error())
}
