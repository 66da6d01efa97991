// Package retention implements the grandfather-father-son (GFS)
// retention evaluator: given an unordered snapshot list and a tiered
// policy, it decides which snapshots to keep and attributes each kept
// snapshot to exactly one tier.
//
// # Algorithm
//
// Snapshots are scanned newest to oldest. Every tier keeps a set of
// claimed bucket keys (the snapshot timestamp truncated to the tier's
// granularity) and a remaining-claims counter. A snapshot is kept by
// the first tier, finest to coarsest, whose bucket is unclaimed and
// whose budget has room; once claimed, no coarser tier is consulted.
// Snapshots claiming nothing are prune-eligible.
//
// The evaluator is a pure function: no I/O, no clock access, and
// identical inputs always produce identical decisions, so a dry run
// faithfully predicts a subsequent apply over the same metadata.
package retention
