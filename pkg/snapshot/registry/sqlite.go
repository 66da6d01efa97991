package registry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

// SQLiteConfig contains configuration for the SQLite registry backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/registry.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteRegistry implements snapshot.Registry using SQLite.
type SQLiteRegistry struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

var _ snapshot.Registry = (*SQLiteRegistry)(nil)

// NewSQLiteRegistry creates a new SQLite registry backend. It
// initializes the schema and enables WAL mode if configured.
func NewSQLiteRegistry(config *SQLiteConfig) (*SQLiteRegistry, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "registry.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, snapshot.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	r := &SQLiteRegistry{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := r.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("snapshot registry initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return r, nil
}

// initialize sets up the schema and database pragmas.
func (r *SQLiteRegistry) initialize() error {
	if r.config.WALMode {
		if _, err := r.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return snapshot.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := r.config.BusyTimeout.Milliseconds()
	if _, err := r.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return snapshot.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := r.db.Exec(Schema); err != nil {
		return snapshot.NewStorageError("sqlite", "create_schema", err)
	}

	var version int
	err := r.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return snapshot.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return snapshot.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Register persists a new snapshot record with status Active.
func (r *SQLiteRegistry) Register(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap.ID == "" {
		return snapshot.NewStorageError("sqlite", "register", fmt.Errorf("snapshot ID must not be empty"))
	}
	if snap.SizeBytes < 0 {
		return snapshot.NewStorageError("sqlite", "register",
			fmt.Errorf("snapshot size must be non-negative, got %d", snap.SizeBytes))
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO snapshots (
			id, created_at, size_bytes, checksum, status, label, location,
			claimed_tier, verified_at, registered_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var verifiedAt interface{}
	if !snap.VerifiedAt.IsZero() {
		verifiedAt = snap.VerifiedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		snap.ID, snap.CreatedAt.UTC(), snap.SizeBytes, snap.Checksum,
		string(snapshot.StatusActive), snap.Label, snap.Location,
		snap.ClaimedTier, verifiedAt, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return snapshot.NewStorageError("sqlite", "register",
				fmt.Errorf("snapshot %s already registered", snap.ID))
		}
		return snapshot.NewStorageError("sqlite", "register", err)
	}

	r.logger.Debug("snapshot registered",
		"snapshot_id", snap.ID,
		"size_bytes", snap.SizeBytes,
	)
	return nil
}

const snapshotColumns = `id, created_at, size_bytes, checksum, status,
	COALESCE(label, ''), location, COALESCE(claimed_tier, ''), verified_at`

// scanSnapshot reads one snapshot row.
func scanSnapshot(scan func(dest ...interface{}) error) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	var status string
	var verifiedAt sql.NullTime

	err := scan(&snap.ID, &snap.CreatedAt, &snap.SizeBytes, &snap.Checksum,
		&status, &snap.Label, &snap.Location, &snap.ClaimedTier, &verifiedAt)
	if err != nil {
		return nil, err
	}

	snap.Status = snapshot.Status(status)
	if verifiedAt.Valid {
		snap.VerifiedAt = verifiedAt.Time.UTC()
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	return &snap, nil
}

// Get returns the snapshot with the given ID.
func (r *SQLiteRegistry) Get(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE id = ?", id)

	snap, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, snapshot.ErrNotFound
	}
	if err != nil {
		return nil, snapshot.NewStorageError("sqlite", "get", err)
	}
	return snap, nil
}

// List returns snapshots with any of the given statuses, ordered by
// CreatedAt ascending (ID as tie-break). With no statuses it returns
// every record.
func (r *SQLiteRegistry) List(ctx context.Context, statuses ...snapshot.Status) ([]*snapshot.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots"
	args := make([]interface{}, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, snapshot.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	var snaps []*snapshot.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, snapshot.NewStorageError("sqlite", "list", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, snapshot.NewStorageError("sqlite", "list", err)
	}
	return snaps, nil
}

// transition moves a snapshot from one of the allowed starting
// statuses to a new status. The WHERE clause makes the one-way rule
// atomic: a row already past the allowed states is simply not matched.
func (r *SQLiteRegistry) transition(ctx context.Context, id string, to snapshot.Status, from ...snapshot.Status) error {
	placeholders := make([]string, len(from))
	args := []interface{}{string(to), time.Now().UTC()}
	for i, s := range from {
		placeholders[i] = "?"
		args = append(args, string(s))
	}
	args = append(args, id)

	query := "UPDATE snapshots SET status = ?, updated_at = ? WHERE status IN (" +
		strings.Join(placeholders, ", ") + ") AND id = ?"

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return snapshot.NewStorageError("sqlite", "transition", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return snapshot.NewStorageError("sqlite", "transition", err)
	}
	if affected == 0 {
		// Distinguish a missing row from a forbidden transition.
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("snapshot %s: %w", id, snapshot.ErrInvalidTransition)
	}

	r.logger.Info("snapshot status changed", "snapshot_id", id, "status", string(to))
	return nil
}

// MarkPruned transitions a snapshot from Active or Corrupt to Pruned.
func (r *SQLiteRegistry) MarkPruned(ctx context.Context, id string) error {
	return r.transition(ctx, id, snapshot.StatusPruned, snapshot.StatusActive, snapshot.StatusCorrupt)
}

// MarkCorrupt transitions a snapshot from Active to Corrupt.
func (r *SQLiteRegistry) MarkCorrupt(ctx context.Context, id string) error {
	return r.transition(ctx, id, snapshot.StatusCorrupt, snapshot.StatusActive)
}

// SetClaimedTier records the tier attribution from the latest cycle.
func (r *SQLiteRegistry) SetClaimedTier(ctx context.Context, id string, tier string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE snapshots SET claimed_tier = ?, updated_at = ? WHERE id = ?",
		tier, time.Now().UTC(), id)
	if err != nil {
		return snapshot.NewStorageError("sqlite", "set_claimed_tier", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return snapshot.ErrNotFound
	}
	return nil
}

// SetVerifiedAt records the time of a successful integrity check.
func (r *SQLiteRegistry) SetVerifiedAt(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE snapshots SET verified_at = ?, updated_at = ? WHERE id = ?",
		at.UTC(), time.Now().UTC(), id)
	if err != nil {
		return snapshot.NewStorageError("sqlite", "set_verified_at", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return snapshot.ErrNotFound
	}
	return nil
}

// Count returns the number of snapshots with the given status.
func (r *SQLiteRegistry) Count(ctx context.Context, status snapshot.Status) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM snapshots WHERE status = ?", string(status)).Scan(&count)
	if err != nil {
		return 0, snapshot.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Close closes the database connection.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}
