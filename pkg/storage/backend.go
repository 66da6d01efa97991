package storage

import "context"

// Backend is the opaque capability over snapshot content storage. The
// retention core only ever reads content (to recompute checksums) and
// deletes it (to prune); it never writes or inspects content, and it
// is not tied to any particular backend technology.
//
// Implementations must be safe for concurrent use. Calls should honor
// context cancellation and deadlines; callers bound every call with a
// timeout, and a deadline overrun is reported as a per-item failure,
// never conflated with corruption or a completed delete.
type Backend interface {
	// Read returns the full content for a snapshot reference.
	Read(ctx context.Context, ref string) ([]byte, error)

	// Delete removes the content for a snapshot reference. Deleting a
	// reference that no longer exists is not an error: the outcome the
	// caller asked for already holds.
	Delete(ctx context.Context, ref string) error

	// Stat returns the stored size in bytes for a snapshot reference.
	Stat(ctx context.Context, ref string) (int64, error)
}
