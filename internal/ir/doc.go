// Package ir provides the value model shared by the collection engine, the
// round journal and the scenario harness.
//
// This package contains value types and pure helpers only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers, digests must be stable
//   - Identity (Same) and structural (Equal) comparison are distinct on purpose:
//     change detection defaults to identity of nested values
//   - All JSON tags use snake_case
package ir
