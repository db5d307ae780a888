// Package queryir is the query representation for reading the round journal.
//
// Commands describe which journaled rounds they want as a small tree of
// predicates; querysql compiles that tree to parameterized SQLite. Keeping
// the tree separate from SQL lets callers build and validate filters
// without string concatenation.
//
// ARCHITECTURE:
//
//	[trace flags] → [queryir.Select] → Validate → [querysql] → store.QueryRounds
//
// Every field a predicate names must exist in the Catalog with a kind that
// fits the predicate:
//   - Equals: scalar fields (text, int, bool); the value's type must match
//   - Contains: id-list fields (JSON arrays of strings)
//   - Between: int fields
//   - And: any predicates; empty means always true
//
// Null values are never valid: journal columns are NOT NULL.
package queryir
