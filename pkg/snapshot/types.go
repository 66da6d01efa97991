package snapshot

import (
	"context"
	"time"
)

// Status is the lifecycle state of a snapshot. Transitions are one-way:
// a snapshot is registered Active and later moves to Pruned (storage
// deleted) or Corrupt (integrity check failed). There is no path back
// to Active.
type Status string

const (
	// StatusActive marks a snapshot whose storage exists and whose
	// metadata is trusted for retention decisions.
	StatusActive Status = "active"

	// StatusPruned marks a snapshot whose underlying storage has been
	// deleted. The metadata row is kept as an audit record.
	StatusPruned Status = "pruned"

	// StatusCorrupt marks a snapshot whose recomputed checksum did not
	// match the recorded one. Corrupt snapshots keep their place in the
	// timeline and remain subject to normal pruning.
	StatusCorrupt Status = "corrupt"
)

// Valid reports whether s is one of the defined status values.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPruned, StatusCorrupt:
		return true
	}
	return false
}

// Snapshot is the metadata record for one point-in-time capture of
// application state. The content itself lives in a storage backend and
// is never inspected here; only the checksum ties the two together.
type Snapshot struct {
	// ID is an opaque unique identifier (UUID v4 for snapshots
	// registered through this tool).
	ID string `json:"id"`

	// CreatedAt is the capture instant in UTC. Immutable after
	// registration; insertion order is monotonic in CreatedAt.
	CreatedAt time.Time `json:"created_at"`

	// SizeBytes is the stored size of the snapshot content.
	SizeBytes int64 `json:"size_bytes"`

	// Checksum is the hex-encoded SHA-256 digest of the content,
	// populated at capture time.
	Checksum string `json:"checksum"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Label is an optional operator-supplied annotation.
	Label string `json:"label,omitempty"`

	// Location is the storage backend reference for the content.
	Location string `json:"location"`

	// ClaimedTier records which retention tier kept this snapshot in
	// the most recent cycle. Informational only: every cycle recomputes
	// attribution from scratch and overwrites this field.
	ClaimedTier string `json:"claimed_tier,omitempty"`

	// VerifiedAt is the time of the last successful integrity check.
	// Zero if the snapshot has never been verified after registration.
	VerifiedAt time.Time `json:"verified_at,omitempty"`
}

// Registry is the durable metadata store for all known snapshots.
// Implementations must be safe for concurrent use. Rows are never
// physically deleted; every mutation is a status transition or a
// bookkeeping update, preserving a full audit trail.
type Registry interface {
	// Register persists a new snapshot record with status Active.
	// Returns an error if a record with the same ID already exists.
	Register(ctx context.Context, snap *Snapshot) error

	// Get returns the snapshot with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns all snapshots with any of the given statuses,
	// ordered by CreatedAt ascending. With no statuses it returns
	// every record.
	List(ctx context.Context, statuses ...Status) ([]*Snapshot, error)

	// MarkPruned transitions a snapshot from Active or Corrupt to
	// Pruned. Any other starting state returns ErrInvalidTransition.
	MarkPruned(ctx context.Context, id string) error

	// MarkCorrupt transitions a snapshot from Active to Corrupt.
	// Any other starting state returns ErrInvalidTransition.
	MarkCorrupt(ctx context.Context, id string) error

	// SetClaimedTier records the tier attribution from the latest
	// retention cycle. An empty tier clears the attribution.
	SetClaimedTier(ctx context.Context, id string, tier string) error

	// SetVerifiedAt records the time of a successful integrity check.
	SetVerifiedAt(ctx context.Context, id string, at time.Time) error

	// Count returns the number of snapshots with the given status.
	Count(ctx context.Context, status Status) (int64, error)

	// Close releases resources held by the registry.
	Close() error
}
