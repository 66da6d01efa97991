// Package snapshot defines the core metadata model for point-in-time
// snapshots: the Snapshot record, its one-way status lifecycle, the
// Registry interface for durable metadata storage, and the error
// taxonomy shared by the retention pipeline.
//
// # Lifecycle
//
// A snapshot is captured externally, registered Active, evaluated each
// retention cycle, and eventually transitions to Pruned (storage
// deleted) or Corrupt (integrity check failed). Transitions are
// one-way; metadata rows are never physically deleted, so the registry
// doubles as an audit trail.
//
// # Error classes
//
//   - ConfigError: invalid policy or configuration; fatal before I/O.
//   - IntegrityError: checksum mismatch or unreadable content; the
//     snapshot is marked Corrupt but keeps its place in the timeline.
//   - StorageError: per-item backend failure; surfaced for retry.
//   - ConcurrencyError: cycle lease held elsewhere; the cycle never
//     starts.
package snapshot
