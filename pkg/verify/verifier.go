package verify

import (
	"context"
	"log/slog"
	"time"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
	"github.com/snapvault-io/snapvault/pkg/storage"
)

// Code classifies the outcome of one integrity check.
type Code string

const (
	// CodeOk means the recomputed checksum matched the recorded one.
	CodeOk Code = "ok"

	// CodeMismatch means the content was readable but its checksum
	// differs from the recorded one.
	CodeMismatch Code = "mismatch"

	// CodeUnreadable means the content could not be read at all,
	// including reads that hit the verification timeout. Unreadable is
	// a transient storage condition, not proof of corruption.
	CodeUnreadable Code = "unreadable"
)

// Result is the outcome of verifying one snapshot. Verification never
// panics or returns a bare error; every failure mode is expressed here.
type Result struct {
	Code     Code
	Expected string // recorded checksum (mismatch only)
	Actual   string // recomputed checksum (mismatch only)
	Err      error  // underlying error (unreadable only)
}

// Ok reports whether the check confirmed integrity.
func (r Result) Ok() bool {
	return r.Code == CodeOk
}

// IntegrityError converts a failed result into the shared error type,
// or nil for an Ok result.
func (r Result) IntegrityError(snapshotID string) *snapshot.IntegrityError {
	switch r.Code {
	case CodeMismatch:
		return &snapshot.IntegrityError{SnapshotID: snapshotID, Expected: r.Expected, Actual: r.Actual}
	case CodeUnreadable:
		return &snapshot.IntegrityError{SnapshotID: snapshotID, Cause: r.Err}
	default:
		return nil
	}
}

// Config contains configuration for the integrity verifier.
type Config struct {
	// Timeout bounds each content read. A read exceeding it is
	// reported as unreadable, never as a mismatch.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// FreshnessWindow is how recently a snapshot must have passed
	// verification for the prune executor to trust it without a fresh
	// check. Default: 24h
	FreshnessWindow time.Duration `yaml:"freshness_window"`
}

// DefaultConfig returns the default verifier configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		FreshnessWindow: 24 * time.Hour,
	}
}

// Verifier recomputes and compares content checksums for snapshots.
type Verifier struct {
	backend storage.Backend
	config  *Config
	logger  *slog.Logger
}

// NewVerifier creates a verifier over the given content backend.
func NewVerifier(backend storage.Backend, config *Config) *Verifier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.FreshnessWindow <= 0 {
		config.FreshnessWindow = DefaultConfig().FreshnessWindow
	}
	return &Verifier{
		backend: backend,
		config:  config,
		logger:  slog.Default().With("component", "verify"),
	}
}

// Verify reads the snapshot's content and compares its SHA-256 digest
// against the recorded checksum. A snapshot registered without a
// checksum can never be confirmed and is reported as a mismatch.
func (v *Verifier) Verify(ctx context.Context, snap *snapshot.Snapshot) Result {
	ctx, cancel := context.WithTimeout(ctx, v.config.Timeout)
	defer cancel()

	content, err := v.backend.Read(ctx, snap.Location)
	if err != nil {
		v.logger.Warn("snapshot content unreadable",
			"snapshot_id", snap.ID,
			"location", snap.Location,
			"error", err,
		)
		return Result{Code: CodeUnreadable, Err: err}
	}

	actual := HashContent(content)
	if snap.Checksum == "" || actual != snap.Checksum {
		v.logger.Warn("snapshot checksum mismatch",
			"snapshot_id", snap.ID,
			"expected", snap.Checksum,
			"actual", actual,
		)
		return Result{Code: CodeMismatch, Expected: snap.Checksum, Actual: actual}
	}

	v.logger.Debug("snapshot integrity confirmed", "snapshot_id", snap.ID)
	return Result{Code: CodeOk}
}

// Checksum reads the content at ref and returns its hex-encoded
// SHA-256 digest. Used at capture time to populate a new snapshot's
// recorded checksum.
func (v *Verifier) Checksum(ctx context.Context, ref string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.config.Timeout)
	defer cancel()

	content, err := v.backend.Read(ctx, ref)
	if err != nil {
		return "", err
	}
	return HashContent(content), nil
}

// Fresh reports whether the snapshot passed verification within the
// freshness window, measured back from now.
func (v *Verifier) Fresh(snap *snapshot.Snapshot, now time.Time) bool {
	if snap.VerifiedAt.IsZero() {
		return false
	}
	return now.Sub(snap.VerifiedAt) <= v.config.FreshnessWindow
}
