package store

import (
	"context"

	"github.com/roach88/collsync/internal/ir"
)

// RunJournal writes an engine's rounds under one run id. It satisfies the
// engine's Journal interface.
type RunJournal struct {
	store *Store
	runID string
}

// Journal returns a journal bound to runID.
func (s *Store) Journal(runID string) *RunJournal {
	return &RunJournal{store: s, runID: runID}
}

// RunID returns the bound run id.
func (j *RunJournal) RunID() string {
	return j.runID
}

// Record writes one round.
func (j *RunJournal) Record(ctx context.Context, rec ir.RoundRecord) error {
	return j.store.WriteRound(ctx, j.runID, rec)
}
