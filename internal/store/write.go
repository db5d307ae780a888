package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/collsync/internal/ir"
)

// Run identifies one engine lifetime in the journal.
type Run struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Collection     string `json:"collection"`
	EngineVersion  string `json:"engine_version"`
	JournalVersion string `json:"journal_version"`
}

// CreateRun registers a new run with a fresh UUIDv7 id and returns it.
// UUIDv7 ids sort by creation time, which ListRuns relies on.
func (s *Store) CreateRun(ctx context.Context, label, collection string) (Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}

	run := Run{
		ID:             id.String(),
		Label:          label,
		Collection:     collection,
		EngineVersion:  ir.EngineVersion,
		JournalVersion: ir.JournalVersion,
	}
	if err := s.WriteRun(ctx, run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label, collection, engine_version, journal_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Label,
		run.Collection,
		run.EngineVersion,
		run.JournalVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteRound inserts one round record for a run.
// Uses ON CONFLICT(run_id, seq) DO NOTHING: rewriting a round is a no-op.
//
// Note: the run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteRound(ctx context.Context, runID string, rec ir.RoundRecord) error {
	changed, err := marshalIDs(rec.Changed)
	if err != nil {
		return fmt.Errorf("write round: %w", err)
	}
	previous, err := marshalIDs(rec.PreviousIDs)
	if err != nil {
		return fmt.Errorf("write round: %w", err)
	}
	next, err := marshalIDs(rec.IDs)
	if err != nil {
		return fmt.Errorf("write round: %w", err)
	}
	entries, err := marshalEntries(rec.Entries)
	if err != nil {
		return fmt.Errorf("write round: %w", err)
	}

	cloned := 0
	if rec.Cloned {
		cloned = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds
		(run_id, seq, kind, changed, previous_ids, next_ids, entries, digest, cloned, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		runID,
		rec.Seq,
		rec.Trigger,
		changed,
		previous,
		next,
		entries,
		rec.Digest,
		cloned,
		rec.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write round %d: %w", rec.Seq, err)
	}

	return nil
}
