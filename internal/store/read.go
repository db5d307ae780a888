package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/collsync/internal/ir"
	"github.com/roach88/collsync/internal/queryir"
)

// ErrRunNotFound is returned by ReadRun for unknown ids.
var ErrRunNotFound = errors.New("run not found")

// ReadRun retrieves a single run by id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, collection, engine_version, journal_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Label, &run.Collection, &run.EngineVersion, &run.JournalVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run, oldest first.
// Returns an empty slice (not nil) when the journal is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, collection, engine_version, journal_version
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Label, &run.Collection, &run.EngineVersion, &run.JournalVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRounds returns every round of a run in seq order.
// Returns an empty slice (not nil) if the run has no rounds.
func (s *Store) ReadRounds(ctx context.Context, runID string) ([]ir.RoundRecord, error) {
	return s.QueryRounds(ctx, queryir.Select{
		From:   queryir.TableRounds,
		Filter: queryir.Equals{Field: "run_id", Value: ir.IRString(runID)},
	})
}

// LastSeq returns the highest seq journaled for a run, or 0.
func (s *Store) LastSeq(ctx context.Context, runID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM rounds WHERE run_id = ?`, runID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func scanRound(rows *sql.Rows) (ir.RoundRecord, error) {
	var (
		rec                            ir.RoundRecord
		changed, previous, next, items string
		cloned                         int
	)
	if err := rows.Scan(&rec.Seq, &rec.Trigger, &changed, &previous, &next, &items, &rec.Digest, &cloned, &rec.EngineVersion); err != nil {
		return ir.RoundRecord{}, fmt.Errorf("scan round: %w", err)
	}

	var err error
	if rec.Changed, err = unmarshalIDs(changed); err != nil {
		return ir.RoundRecord{}, fmt.Errorf("round %d: %w", rec.Seq, err)
	}
	if rec.PreviousIDs, err = unmarshalIDs(previous); err != nil {
		return ir.RoundRecord{}, fmt.Errorf("round %d: %w", rec.Seq, err)
	}
	if rec.IDs, err = unmarshalIDs(next); err != nil {
		return ir.RoundRecord{}, fmt.Errorf("round %d: %w", rec.Seq, err)
	}
	if rec.Entries, err = unmarshalEntries(items); err != nil {
		return ir.RoundRecord{}, fmt.Errorf("round %d: %w", rec.Seq, err)
	}
	rec.Cloned = cloned != 0

	return rec, nil
}
