package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestFS(t *testing.T) *FSBackend {
	t.Helper()
	backend, err := NewFSBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSBackend: %v", err)
	}
	return backend
}

func TestFSBackend_ReadStatDelete(t *testing.T) {
	backend := newTestFS(t)
	ctx := context.Background()
	content := []byte("snapshot payload")

	path := filepath.Join(backend.Root(), "2026", "dump.bin")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := backend.Read(ctx, "2026/dump.bin")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Read = %q, want %q", got, content)
	}

	size, err := backend.Stat(ctx, "2026/dump.bin")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("Stat = %d, want %d", size, len(content))
	}

	if err := backend.Delete(ctx, "2026/dump.bin"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := backend.Read(ctx, "2026/dump.bin"); err == nil {
		t.Error("Read after Delete should fail")
	}
}

func TestFSBackend_DeleteMissingIsIdempotent(t *testing.T) {
	backend := newTestFS(t)
	if err := backend.Delete(context.Background(), "never/existed"); err != nil {
		t.Errorf("Delete of missing content: %v, want nil", err)
	}
}

func TestFSBackend_RejectsEscapingRefs(t *testing.T) {
	backend := newTestFS(t)
	ctx := context.Background()

	for _, ref := range []string{"", "../outside", "a/../../outside", "/etc/passwd"} {
		if _, err := backend.Read(ctx, ref); err == nil {
			t.Errorf("Read(%q) should be rejected", ref)
		}
		if err := backend.Delete(ctx, ref); err == nil {
			t.Errorf("Delete(%q) should be rejected", ref)
		}
	}
}

func TestFSBackend_CancelledContext(t *testing.T) {
	backend := newTestFS(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := backend.Read(ctx, "x"); err == nil {
		t.Error("Read with cancelled context should fail")
	}
	if err := backend.Delete(ctx, "x"); err == nil {
		t.Error("Delete with cancelled context should fail")
	}
}

func TestNewFSBackend_EmptyRoot(t *testing.T) {
	if _, err := NewFSBackend(""); err == nil {
		t.Error("empty root should be rejected")
	}
}
