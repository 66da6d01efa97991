// Package orchestrator drives one full retention cycle: acquire the
// mutual-exclusion lease, load the snapshot metadata in a single
// atomic read, run the tiered evaluation and quota enforcement in
// memory, then either report (dry run) or execute the prune batch and
// persist statuses.
//
// The state machine is Idle -> Evaluating -> {DryRunComplete |
// Pruning} -> {Complete | Failed}. A cycle that fails mid-prune moves
// to Failed but keeps every already-applied deletion committed; there
// is no global rollback.
//
// Concurrent cycles against the same registry are excluded by a
// TTL-bounded lease (SQLite-backed across processes, in-memory within
// one). A cycle that cannot take the lease never starts.
package orchestrator
