package registry

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the snapshot registry schema.
const Schema = `
-- Snapshot metadata table. Rows are never deleted: status transitions
-- (active -> pruned, active -> corrupt) preserve a full audit trail.
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    size_bytes INTEGER NOT NULL,
    checksum TEXT NOT NULL,
    status TEXT NOT NULL,
    label TEXT,
    location TEXT NOT NULL,

    -- Informational: last cycle's tier attribution. Recomputed fresh
    -- every cycle, never trusted as input to the next one.
    claimed_tier TEXT,

    -- Last successful integrity confirmation.
    verified_at TIMESTAMP,

    registered_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

INSERT OR IGNORE INTO schema_version (version) VALUES (1);

-- Indexes for cycle loads and status queries
CREATE INDEX IF NOT EXISTS idx_snapshots_status ON snapshots(status);
CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
`

// GetSchemaVersion is the query to read the current schema version.
const GetSchemaVersion = `SELECT version FROM schema_version LIMIT 1`
