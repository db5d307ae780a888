package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/collsync/internal/ir"
)

// MemoryJournal is an in-memory engine.Journal for tests and replays.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemoryJournal struct {
	mu      sync.Mutex
	records []ir.RoundRecord
}

// NewMemoryJournal creates an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Record appends rec.
func (j *MemoryJournal) Record(_ context.Context, rec ir.RoundRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (j *MemoryJournal) Records() []ir.RoundRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.records)
}

// Reset drops all records. Used for test reuse.
func (j *MemoryJournal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = nil
}
