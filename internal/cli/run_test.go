package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collsync/internal/config"
	"github.com/roach88/collsync/internal/harness"
	"github.com/roach88/collsync/internal/ir"
	"github.com/roach88/collsync/internal/store"
)

func TestRunCommand_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "lifecycle.yaml", lifecycleScenario)

	out, err := execute(NewRunCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: lifecycle")
	assert.Contains(t, out, "   1  state_change ids=[a] changed=[a] cloned=true")
	assert.Contains(t, out, "   3  transform    ids=[] changed=[] cloned=true")
	assert.Contains(t, out, "✓ all expectations met")
	assert.NotContains(t, out, "Run:")
}

func TestRunCommand_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "lifecycle.yaml", lifecycleScenario)

	out, err := execute(NewRunCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Pass)
	require.Len(t, resp.Data.Rounds, 3)
	assert.Equal(t, ir.TriggerStateChange, resp.Data.Rounds[0].Trigger)
	assert.Equal(t, []string{"a"}, resp.Data.Rounds[0].IDs)
}

func TestRunCommand_FailedExpectation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "failing.yaml", failingScenario)

	out, err := execute(NewRunCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ steps[0]: ids: expected [b], got [a]")
}

func TestRunCommand_Journal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lifecycle.yaml", lifecycleScenario)
	dbPath := filepath.Join(dir, "rounds.db")

	out, err := execute(NewRunCommand(&RootOptions{Format: "json"}), "--db", dbPath, path)
	require.NoError(t, err)

	var resp struct {
		Data RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data.RunID)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), resp.Data.RunID)
	require.NoError(t, err)
	assert.Equal(t, "lifecycle", run.Label)
	assert.Equal(t, "sequence", run.Collection)

	rounds, err := st.ReadRounds(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	for i := range rounds {
		assert.Equal(t, resp.Data.Rounds[i].Digest, rounds[i].Digest)
	}
}

func TestRunCommand_JournalPathFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lifecycle.yaml", lifecycleScenario)
	dbPath := filepath.Join(dir, "configured.db")
	t.Setenv("COLLSYNC_JOURNAL_PATH", dbPath)

	out, err := execute(NewRunCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "Run: ")
	assert.FileExists(t, dbPath)
}

func TestRunCommand_MissingFile(t *testing.T) {
	_, err := execute(NewRunCommand(&RootOptions{Format: "text"}), "/nonexistent/s.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_InvalidScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "name: bad\n")

	_, err := execute(NewRunCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestApplyDefaults(t *testing.T) {
	cfg := &config.Config{Collection: "keyed", CloneOn: config.CloneOn{Transform: false, StateChange: true}}

	s := &harness.Scenario{}
	applyDefaults(s, cfg)
	assert.Equal(t, "keyed", s.Collection)
	require.NotNil(t, s.CloneOn)
	assert.False(t, *s.CloneOn.Transform)
	assert.True(t, *s.CloneOn.StateChange)

	own := false
	explicit := &harness.Scenario{Collection: "sequence", CloneOn: &harness.CloneOn{StateChange: &own}}
	applyDefaults(explicit, cfg)
	assert.Equal(t, "sequence", explicit.Collection)
	assert.Nil(t, explicit.CloneOn.Transform, "a scenario's own clone_on is kept as written")
}

const shortKeysScenario = `
name: short-keys
description: "more new ids than listed keys"
keys: [k1]
steps:
  - states: [{ id: a }, { id: b }]
`

func TestRunCommand_ListedKeysExhausted(t *testing.T) {
	path := writeFile(t, t.TempDir(), "short.yaml", shortKeysScenario)

	_, err := execute(NewRunCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario execution failed")
	assert.Contains(t, err.Error(), "1 more needed")
}
