// Package quota enforces hard storage caps (total bytes and snapshot
// count) on the kept set produced by retention evaluation.
//
// Enforcement evicts from coarse tiers before fine ones, oldest first
// within a tier, and never evicts the single most recent snapshot: a
// quota that only the newest snapshot violates yields a warning, not
// an empty kept set. Like the evaluator, enforcement is pure and
// performs no I/O.
package quota
