package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

// MemoryBackend holds snapshot content in a map. Intended for tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailReads and FailDeletes, when set, make the corresponding
	// operation return the given error. Used to exercise per-item
	// failure paths in tests.
	FailReads   error
	FailDeletes error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string][]byte)}
}

// Put stores content under a reference, standing in for the external
// capture step.
func (b *MemoryBackend) Put(ref string, content []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(content))
	copy(cp, content)
	b.objects[ref] = cp
}

// Read returns the content stored under ref.
func (b *MemoryBackend) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, snapshot.NewStorageError("memory", "read", err)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.FailReads != nil {
		return nil, snapshot.NewStorageError("memory", "read", b.FailReads)
	}
	content, ok := b.objects[ref]
	if !ok {
		return nil, snapshot.NewStorageError("memory", "read", fmt.Errorf("no content at %q", ref))
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	return cp, nil
}

// Delete removes the content stored under ref. Missing content is not
// an error.
func (b *MemoryBackend) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return snapshot.NewStorageError("memory", "delete", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDeletes != nil {
		return snapshot.NewStorageError("memory", "delete", b.FailDeletes)
	}
	delete(b.objects, ref)
	return nil
}

// Stat returns the size of the content stored under ref.
func (b *MemoryBackend) Stat(ctx context.Context, ref string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, snapshot.NewStorageError("memory", "stat", err)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	content, ok := b.objects[ref]
	if !ok {
		return 0, snapshot.NewStorageError("memory", "stat", fmt.Errorf("no content at %q", ref))
	}
	return int64(len(content)), nil
}

// Len returns the number of stored objects.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// Has reports whether content exists under ref.
func (b *MemoryBackend) Has(ref string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[ref]
	return ok
}
