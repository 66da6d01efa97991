package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

// FSBackend stores snapshot content as plain files under a root
// directory. References are slash-separated paths relative to the
// root; references escaping the root are rejected.
type FSBackend struct {
	root   string
	logger *slog.Logger
}

// NewFSBackend creates a filesystem backend rooted at dir. The
// directory is created if it does not exist.
func NewFSBackend(dir string) (*FSBackend, error) {
	if dir == "" {
		return nil, snapshot.NewConfigError("storage.root", "root directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, snapshot.NewStorageError("fs", "init", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, snapshot.NewStorageError("fs", "init", err)
	}
	return &FSBackend{
		root:   abs,
		logger: slog.Default().With("component", "storage.fs"),
	}, nil
}

// Root returns the absolute root directory of the backend.
func (b *FSBackend) Root() string {
	return b.root
}

// resolve maps a reference onto a path under the root, rejecting
// absolute references and any path that would climb out of it.
func (b *FSBackend) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty storage reference")
	}
	if filepath.IsAbs(ref) {
		return "", fmt.Errorf("absolute storage reference %q not allowed", ref)
	}
	path := filepath.Join(b.root, filepath.FromSlash(ref))
	if path != b.root && !strings.HasPrefix(path, b.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage reference %q escapes backend root", ref)
	}
	return path, nil
}

// Read returns the full content of the referenced file.
func (b *FSBackend) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, snapshot.NewStorageError("fs", "read", err)
	}
	path, err := b.resolve(ref)
	if err != nil {
		return nil, snapshot.NewStorageError("fs", "read", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, snapshot.NewStorageError("fs", "read", err)
	}
	return data, nil
}

// Delete removes the referenced file. A missing file is treated as an
// already-completed delete.
func (b *FSBackend) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return snapshot.NewStorageError("fs", "delete", err)
	}
	path, err := b.resolve(ref)
	if err != nil {
		return snapshot.NewStorageError("fs", "delete", err)
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Debug("delete of missing content treated as complete", "ref", ref)
			return nil
		}
		return snapshot.NewStorageError("fs", "delete", err)
	}
	return nil
}

// Stat returns the size of the referenced file.
func (b *FSBackend) Stat(ctx context.Context, ref string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, snapshot.NewStorageError("fs", "stat", err)
	}
	path, err := b.resolve(ref)
	if err != nil {
		return 0, snapshot.NewStorageError("fs", "stat", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, snapshot.NewStorageError("fs", "stat", err)
	}
	return info.Size(), nil
}
