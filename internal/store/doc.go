// Package store provides SQLite-backed durable storage for simulated runs.
//
// A run is one parameter set simulated for N breaths. The store keeps:
//   - Runs: resolved parameters, timing, sample digest and versions
//   - Samples: the single-breath trace, one row per grid sample
//
// # Identity and Ordering
//
// Run IDs are content hashes computed by internal/ident, so saving the same
// configuration twice is a no-op (ON CONFLICT(id) DO NOTHING). Rows are
// ordered by seq, a logical counter assigned at insert, never by wall time.
// Queries include ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Replay
//
// Replay re-simulates a stored run from its parameters and compares every
// sample bit for bit. A mismatch means the model changed without a
// ModelVersion bump.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
