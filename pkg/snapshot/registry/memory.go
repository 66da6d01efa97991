package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

// MemoryRegistry implements snapshot.Registry with an in-memory map.
// Intended for tests; it enforces the same one-way transition rules as
// the SQLite backend.
type MemoryRegistry struct {
	mu    sync.RWMutex
	snaps map[string]*snapshot.Snapshot
}

var _ snapshot.Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{snaps: make(map[string]*snapshot.Snapshot)}
}

// Register persists a new snapshot record with status Active.
func (r *MemoryRegistry) Register(ctx context.Context, snap *snapshot.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.ID == "" {
		return snapshot.NewStorageError("memory", "register", fmt.Errorf("snapshot ID must not be empty"))
	}
	if _, exists := r.snaps[snap.ID]; exists {
		return snapshot.NewStorageError("memory", "register",
			fmt.Errorf("snapshot %s already registered", snap.ID))
	}

	cp := *snap
	cp.Status = snapshot.StatusActive
	r.snaps[snap.ID] = &cp
	return nil
}

// Get returns the snapshot with the given ID.
func (r *MemoryRegistry) Get(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.snaps[id]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	cp := *snap
	return &cp, nil
}

// List returns snapshots with any of the given statuses, ordered by
// CreatedAt ascending with ID as tie-break.
func (r *MemoryRegistry) List(ctx context.Context, statuses ...snapshot.Status) ([]*snapshot.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[snapshot.Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	var out []*snapshot.Snapshot
	for _, snap := range r.snaps {
		if len(want) > 0 && !want[snap.Status] {
			continue
		}
		cp := *snap
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// transition applies a one-way status change.
func (r *MemoryRegistry) transition(id string, to snapshot.Status, from ...snapshot.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok := r.snaps[id]
	if !ok {
		return snapshot.ErrNotFound
	}
	for _, s := range from {
		if snap.Status == s {
			snap.Status = to
			return nil
		}
	}
	return fmt.Errorf("snapshot %s: %w", id, snapshot.ErrInvalidTransition)
}

// MarkPruned transitions a snapshot from Active or Corrupt to Pruned.
func (r *MemoryRegistry) MarkPruned(ctx context.Context, id string) error {
	return r.transition(id, snapshot.StatusPruned, snapshot.StatusActive, snapshot.StatusCorrupt)
}

// MarkCorrupt transitions a snapshot from Active to Corrupt.
func (r *MemoryRegistry) MarkCorrupt(ctx context.Context, id string) error {
	return r.transition(id, snapshot.StatusCorrupt, snapshot.StatusActive)
}

// SetClaimedTier records the tier attribution from the latest cycle.
func (r *MemoryRegistry) SetClaimedTier(ctx context.Context, id string, tier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok := r.snaps[id]
	if !ok {
		return snapshot.ErrNotFound
	}
	snap.ClaimedTier = tier
	return nil
}

// SetVerifiedAt records the time of a successful integrity check.
func (r *MemoryRegistry) SetVerifiedAt(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok := r.snaps[id]
	if !ok {
		return snapshot.ErrNotFound
	}
	snap.VerifiedAt = at
	return nil
}

// Count returns the number of snapshots with the given status.
func (r *MemoryRegistry) Count(ctx context.Context, status snapshot.Status) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, snap := range r.snaps {
		if snap.Status == status {
			count++
		}
	}
	return count, nil
}

// Close is a no-op for the in-memory registry.
func (r *MemoryRegistry) Close() error {
	return nil
}
