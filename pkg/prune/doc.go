// Package prune executes retention decisions against snapshot content
// storage. The executor works strictly per item: each candidate is
// re-validated against the current policy, gated on a confirmed
// integrity check (corrupt snapshots excepted), deleted with a bounded
// timeout, and recorded as a status transition. One failure never
// aborts the batch, and completed deletes are never rolled back; the
// report separates successes from failures so operators can retry
// precisely what failed.
package prune
