package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

// The SQLite and in-memory registries must behave identically; every
// test below runs against both.
func forEachRegistry(t *testing.T, fn func(t *testing.T, r snapshot.Registry)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		r := NewMemoryRegistry()
		defer r.Close()
		fn(t, r)
	})

	t.Run("sqlite", func(t *testing.T) {
		config := DefaultSQLiteConfig()
		config.Path = filepath.Join(t.TempDir(), "registry.db")
		r, err := NewSQLiteRegistry(config)
		if err != nil {
			t.Fatalf("NewSQLiteRegistry: %v", err)
		}
		defer r.Close()
		fn(t, r)
	})
}

func testSnap(id string, ts time.Time) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		ID:        id,
		CreatedAt: ts.UTC(),
		SizeBytes: 42,
		Checksum:  "deadbeef",
		Status:    snapshot.StatusActive,
		Label:     "nightly",
		Location:  "snaps/" + id,
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	forEachRegistry(t, func(t *testing.T, r snapshot.Registry) {
		ctx := context.Background()
		ts := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)

		if err := r.Register(ctx, testSnap("s1", ts)); err != nil {
			t.Fatalf("Register: %v", err)
		}

		got, err := r.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.ID != "s1" || !got.CreatedAt.Equal(ts) || got.SizeBytes != 42 ||
			got.Checksum != "deadbeef" || got.Status != snapshot.StatusActive ||
			got.Label != "nightly" || got.Location != "snaps/s1" {
			t.Errorf("Get returned %+v", got)
		}

		if _, err := r.Get(ctx, "absent"); !errors.Is(err, snapshot.ErrNotFound) {
			t.Errorf("Get(absent) = %v, want ErrNotFound", err)
		}
	})
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	forEachRegistry(t, func(t *testing.T, r snapshot.Registry) {
		ctx := context.Background()
		ts := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)

		if err := r.Register(ctx, testSnap("dup", ts)); err != nil {
			t.Fatalf("Register: %v", err)
		}
		err := r.Register(ctx, testSnap("dup", ts))
		if err == nil {
			t.Fatal("duplicate Register should fail")
		}
		var serr *snapshot.StorageError
		if !errors.As(err, &serr) {
			t.Errorf("want *snapshot.StorageError, got %T", err)
		}
	})
}

func TestRegistry_ListFiltersAndOrders(t *testing.T) {
	forEachRegistry(t, func(t *testing.T, r snapshot.Registry) {
		ctx := context.Background()
		base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

		for _, s := range []*snapshot.Snapshot{
			testSnap("c", base.Add(2*time.Hour)),
			testSnap("a", base),
			testSnap("b", base.Add(time.Hour)),
		} {
			if err := r.Register(ctx, s); err != nil {
				t.Fatalf("Register(%s): %v", s.ID, err)
			}
		}
		if err := r.MarkCorrupt(ctx, "b"); err != nil {
			t.Fatalf("MarkCorrupt: %v", err)
		}
		if err := r.MarkPruned(ctx, "c"); err != nil {
			t.Fatalf("MarkPruned: %v", err)
		}

		active, err := r.List(ctx, snapshot.StatusActive)
		if err != nil {
			t.Fatalf("List(active): %v", err)
		}
		if len(active) != 1 || active[0].ID != "a" {
			t.Errorf("List(active) = %v", ids(active))
		}

		live, err := r.List(ctx, snapshot.StatusActive, snapshot.StatusCorrupt)
		if err != nil {
			t.Fatalf("List(active, corrupt): %v", err)
		}
		if len(live) != 2 || live[0].ID != "a" || live[1].ID != "b" {
			t.Errorf("List(active, corrupt) = %v, want [a b] ordered by created_at", ids(live))
		}
	})
}

func TestRegistry_OneWayTransitions(t *testing.T) {
	forEachRegistry(t, func(t *testing.T, r snapshot.Registry) {
		ctx := context.Background()
		ts := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

		for _, id := range []string{"p", "c"} {
			if err := r.Register(ctx, testSnap(id, ts)); err != nil {
				t.Fatalf("Register(%s): %v", id, err)
			}
		}

		// Active -> Pruned is terminal.
		if err := r.MarkPruned(ctx, "p"); err != nil {
			t.Fatalf("MarkPruned: %v", err)
		}
		if err := r.MarkCorrupt(ctx, "p"); !errors.Is(err, snapshot.ErrInvalidTransition) {
			t.Errorf("MarkCorrupt on pruned = %v, want ErrInvalidTransition", err)
		}
		if err := r.MarkPruned(ctx, "p"); !errors.Is(err, snapshot.ErrInvalidTransition) {
			t.Errorf("second MarkPruned = %v, want ErrInvalidTransition", err)
		}

		// Active -> Corrupt -> Pruned is the only multi-step path.
		if err := r.MarkCorrupt(ctx, "c"); err != nil {
			t.Fatalf("MarkCorrupt: %v", err)
		}
		if err := r.MarkCorrupt(ctx, "c"); !errors.Is(err, snapshot.ErrInvalidTransition) {
			t.Errorf("second MarkCorrupt = %v, want ErrInvalidTransition", err)
		}
		if err := r.MarkPruned(ctx, "c"); err != nil {
			t.Errorf("MarkPruned on corrupt: %v", err)
		}

		if err := r.MarkPruned(ctx, "ghost"); !errors.Is(err, snapshot.ErrNotFound) {
			t.Errorf("MarkPruned(ghost) = %v, want ErrNotFound", err)
		}
	})
}

func TestRegistry_SetClaimedTierAndVerifiedAt(t *testing.T) {
	forEachRegistry(t, func(t *testing.T, r snapshot.Registry) {
		ctx := context.Background()
		ts := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

		if err := r.Register(ctx, testSnap("s", ts)); err != nil {
			t.Fatalf("Register: %v", err)
		}

		if err := r.SetClaimedTier(ctx, "s", "daily"); err != nil {
			t.Fatalf("SetClaimedTier: %v", err)
		}
		verified := ts.Add(time.Hour)
		if err := r.SetVerifiedAt(ctx, "s", verified); err != nil {
			t.Fatalf("SetVerifiedAt: %v", err)
		}

		got, err := r.Get(ctx, "s")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.ClaimedTier != "daily" {
			t.Errorf("ClaimedTier = %q, want daily", got.ClaimedTier)
		}
		if !got.VerifiedAt.Equal(verified) {
			t.Errorf("VerifiedAt = %v, want %v", got.VerifiedAt, verified)
		}

		if err := r.SetClaimedTier(ctx, "ghost", "daily"); !errors.Is(err, snapshot.ErrNotFound) {
			t.Errorf("SetClaimedTier(ghost) = %v, want ErrNotFound", err)
		}
		if err := r.SetVerifiedAt(ctx, "ghost", verified); !errors.Is(err, snapshot.ErrNotFound) {
			t.Errorf("SetVerifiedAt(ghost) = %v, want ErrNotFound", err)
		}
	})
}

func TestRegistry_Count(t *testing.T) {
	forEachRegistry(t, func(t *testing.T, r snapshot.Registry) {
		ctx := context.Background()
		base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

		for i, id := range []string{"a", "b", "c"} {
			if err := r.Register(ctx, testSnap(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatalf("Register(%s): %v", id, err)
			}
		}
		if err := r.MarkPruned(ctx, "a"); err != nil {
			t.Fatalf("MarkPruned: %v", err)
		}

		active, err := r.Count(ctx, snapshot.StatusActive)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if active != 2 {
			t.Errorf("Count(active) = %d, want 2", active)
		}
		pruned, err := r.Count(ctx, snapshot.StatusPruned)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if pruned != 1 {
			t.Errorf("Count(pruned) = %d, want 1", pruned)
		}
	})
}

func TestRegistry_RegisterValidation(t *testing.T) {
	forEachRegistry(t, func(t *testing.T, r snapshot.Registry) {
		ctx := context.Background()
		if err := r.Register(ctx, &snapshot.Snapshot{}); err == nil {
			t.Error("Register with empty ID should fail")
		}
	})
}

func ids(snaps []*snapshot.Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.ID
	}
	return out
}
