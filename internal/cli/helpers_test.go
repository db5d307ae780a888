package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const lifecycleScenario = `
name: lifecycle
description: "insert, update, remove"
steps:
  - states: [{ id: a, value: 5 }]
    expect: { ids: [a], changed: [a], keys: { a: "1" } }
  - states: [{ id: a, value: 10 }]
    expect: { changed: [a], values: { a: { value: 10 } } }
  - transform: { op: remove, id: a }
    expect: { ids: [] }
`

const failingScenario = `
name: failing
description: "expects the wrong id"
steps:
  - states: [{ id: a }]
    expect: { ids: [b] }
`

// writeFile writes content under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns its stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
