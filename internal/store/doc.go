// Package store provides SQLite-backed generation history.
//
// Every generation pass records a run: which module interface went in
// (by content hash), which options were applied, which header came out,
// and the diagnostics the pass produced. The CLI uses the latest run of a
// module to skip regeneration when neither the interface nor the options
// changed.
//
// # Ordering
//
// Runs are ordered by seq INTEGER, assigned on insert, never by wall time.
// Diagnostics keep the order the pass reported them in via their idx.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Hashes are computed by internal/ir/hash.go.
package store
