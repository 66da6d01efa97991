package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

// Leaser hands out the cycle-scoped lease that makes retention cycles
// mutually exclusive. Two evaluators racing on bucket-claim bookkeeping
// could produce conflicting decisions, so a cycle that cannot take the
// lease never starts.
type Leaser interface {
	// Acquire takes the lease for the given owner, or returns a
	// *snapshot.ConcurrencyError when a live lease is held by someone
	// else. An expired lease is reclaimed.
	Acquire(ctx context.Context, owner string, ttl time.Duration) (Lease, error)
}

// Lease is a held cycle lease.
type Lease interface {
	// Release gives the lease up. Releasing an already-lapsed lease is
	// not an error.
	Release(ctx context.Context) error
}

const leaseName = "retention-cycle"

// SQLiteLeaser implements Leaser with a single-row SQLite table, so
// mutual exclusion holds across processes sharing the lease database.
type SQLiteLeaser struct {
	db *sql.DB
}

// NewSQLiteLeaser opens (or creates) the lease database at dbPath.
func NewSQLiteLeaser(dbPath string) (*SQLiteLeaser, error) {
	if dbPath == "" {
		return nil, snapshot.NewConfigError("orchestrator.lease_path", "lease database path must not be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, snapshot.NewStorageError("sqlite", "open_lease", err)
	}

	// Single writer keeps lease updates strictly serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS leases (
			name TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, snapshot.NewStorageError("sqlite", "init_lease_schema", err)
	}

	return &SQLiteLeaser{db: db}, nil
}

// Acquire takes the cycle lease, reclaiming it if the previous holder's
// TTL has lapsed.
func (l *SQLiteLeaser) Acquire(ctx context.Context, owner string, ttl time.Duration) (Lease, error) {
	now := time.Now().UTC()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, snapshot.NewStorageError("sqlite", "acquire_lease", err)
	}
	defer tx.Rollback()

	var holder string
	var expires time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT owner, expires_at FROM leases WHERE name = ?", leaseName).Scan(&holder, &expires)
	switch {
	case err == sql.ErrNoRows:
		// No lease yet; fall through to the insert.
	case err != nil:
		return nil, snapshot.NewStorageError("sqlite", "acquire_lease", err)
	case holder != owner && expires.After(now):
		return nil, &snapshot.ConcurrencyError{Holder: holder, Expires: expires}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO leases (name, owner, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET owner = excluded.owner, expires_at = excluded.expires_at
	`, leaseName, owner, now.Add(ttl))
	if err != nil {
		return nil, snapshot.NewStorageError("sqlite", "acquire_lease", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, snapshot.NewStorageError("sqlite", "acquire_lease", err)
	}

	return &sqliteLease{db: l.db, owner: owner}, nil
}

// Close closes the lease database.
func (l *SQLiteLeaser) Close() error {
	return l.db.Close()
}

type sqliteLease struct {
	db    *sql.DB
	owner string
}

func (l *sqliteLease) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx,
		"DELETE FROM leases WHERE name = ? AND owner = ?", leaseName, l.owner)
	if err != nil {
		return snapshot.NewStorageError("sqlite", "release_lease", err)
	}
	return nil
}

// MemoryLeaser implements Leaser for single-process deployments and
// tests. Mutual exclusion holds only within the process.
type MemoryLeaser struct {
	mu      sync.Mutex
	holder  string
	expires time.Time
}

// NewMemoryLeaser creates an in-process leaser.
func NewMemoryLeaser() *MemoryLeaser {
	return &MemoryLeaser{}
}

// Acquire takes the in-process lease.
func (l *MemoryLeaser) Acquire(ctx context.Context, owner string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	if l.holder != "" && l.holder != owner && l.expires.After(now) {
		return nil, &snapshot.ConcurrencyError{Holder: l.holder, Expires: l.expires}
	}

	l.holder = owner
	l.expires = now.Add(ttl)
	return &memoryLease{leaser: l, owner: owner}, nil
}

type memoryLease struct {
	leaser *MemoryLeaser
	owner  string
}

func (l *memoryLease) Release(ctx context.Context) error {
	l.leaser.mu.Lock()
	defer l.leaser.mu.Unlock()
	if l.leaser.holder == l.owner {
		l.leaser.holder = ""
		l.leaser.expires = time.Time{}
	}
	return nil
}
