// Package store provides the SQLite round journal for collsync.
//
// The journal is a debugging and determinism aid, not engine persistence:
// the engine writes every emitted round through a RunJournal and never
// reads it back.
//
//   - Runs: one row per engine lifetime, keyed by UUIDv7
//   - Rounds: one row per emitted round, keyed by (run_id, seq)
//
// # Critical Patterns
//
// Logical Time:
//   - Ordering uses seq INTEGER (the engine's logical clock), never timestamps
//   - Reads use ORDER BY seq ASC
//
// Idempotent Writes:
//   - INSERT ... ON CONFLICT DO NOTHING on every table
//
// Content Digests:
//   - Entries are stored as RFC 8785 canonical JSON next to their
//     ir.SnapshotDigest, so a replay can be checked digest by digest
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
