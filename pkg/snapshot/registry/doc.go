// Package registry provides implementations of the snapshot.Registry
// interface: a SQLite backend (WAL mode, audit-preserving status
// transitions) for production use and an in-memory backend for tests.
//
// Both backends enforce the one-way lifecycle at the storage layer:
// the SQLite implementation guards transitions with a status predicate
// in the UPDATE itself, so concurrent writers cannot resurrect a
// pruned or corrupt snapshot.
package registry
