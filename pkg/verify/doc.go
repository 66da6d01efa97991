// Package verify implements integrity checking for snapshot content:
// recomputing SHA-256 checksums and comparing them against the digest
// recorded at capture time.
//
// Every check resolves to one of three outcomes: Ok, Mismatch (content
// readable, digest differs), or Unreadable (content could not be read,
// including timeouts). Unreadable is distinct from
// Mismatch so a transient storage failure is never recorded as
// corruption.
//
// The verifier runs at capture time (to populate the checksum), on
// demand, and again before pruning when a snapshot's last
// confirmation has fallen outside the freshness window.
package verify
