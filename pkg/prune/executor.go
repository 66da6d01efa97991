package prune

import (
	"context"
	"log/slog"
	"time"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
	"github.com/snapvault-io/snapvault/pkg/storage"
	"github.com/snapvault-io/snapvault/pkg/verify"
)

// Outcome classifies the result of one prune item.
type Outcome string

const (
	// OutcomeDeleted means the content was deleted (or would be, in a
	// dry run) and the registry updated.
	OutcomeDeleted Outcome = "deleted"

	// OutcomeSkipped means the item was intentionally not deleted; the
	// reason says why.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means the delete was attempted and failed; the
	// error is kept for operator retry in a later cycle.
	OutcomeFailed Outcome = "failed"
)

// Item is one prune candidate with the reason it was selected.
type Item struct {
	Snapshot *snapshot.Snapshot
	Reason   string
}

// ItemResult is the per-item outcome of executing a prune batch.
type ItemResult struct {
	SnapshotID string  `json:"snapshot_id"`
	Outcome    Outcome `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
	Err        error   `json:"-"`
	BytesFreed int64   `json:"bytes_freed,omitempty"`
}

// Report aggregates the results of one prune batch. Successes and
// failures are separated so operators can retry exactly what failed.
type Report struct {
	DryRun     bool         `json:"dry_run"`
	Items      []ItemResult `json:"items"`
	Deleted    int          `json:"deleted"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	BytesFreed int64        `json:"bytes_freed"`
}

func (r *Report) add(res ItemResult) {
	r.Items = append(r.Items, res)
	switch res.Outcome {
	case OutcomeDeleted:
		r.Deleted++
		r.BytesFreed += res.BytesFreed
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// Config contains configuration for the prune executor.
type Config struct {
	// DeleteTimeout bounds each content delete call.
	// Default: 30s
	DeleteTimeout time.Duration `yaml:"delete_timeout"`
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() *Config {
	return &Config{DeleteTimeout: 30 * time.Second}
}

// Executor deletes the underlying storage for prune candidates and
// records the resulting status transitions. Execution is strictly
// per-item: one failure is logged and reported, never aborting the
// rest of the batch, and there is no rollback of completed deletes.
type Executor struct {
	registry snapshot.Registry
	backend  storage.Backend
	verifier *verify.Verifier
	config   *Config
	logger   *slog.Logger
}

// NewExecutor creates a prune executor.
func NewExecutor(registry snapshot.Registry, backend storage.Backend, verifier *verify.Verifier, config *Config) *Executor {
	if config == nil {
		config = DefaultConfig()
	}
	if config.DeleteTimeout <= 0 {
		config.DeleteTimeout = DefaultConfig().DeleteTimeout
	}
	return &Executor{
		registry: registry,
		backend:  backend,
		verifier: verifier,
		config:   config,
		logger:   slog.Default().With("component", "prune"),
	}
}

// Execute processes a prune batch. keep is the execution-time
// re-validation predicate: it reflects the keep-set recomputed against
// the registry's current state, so an item retained by a policy that
// changed between decision and execution is skipped rather than
// deleted.
//
// In dry-run mode every decision step runs but no destructive storage
// call and no registry write is issued.
//
// Cancellation is cooperative between items: the in-flight item is
// finished, the remaining ones are reported as skipped.
func (e *Executor) Execute(ctx context.Context, items []Item, keep func(id string) bool, dryRun bool) *Report {
	report := &Report{DryRun: dryRun}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			for _, rest := range items[i:] {
				report.add(ItemResult{
					SnapshotID: rest.Snapshot.ID,
					Outcome:    OutcomeSkipped,
					Reason:     "cycle cancelled before this item",
				})
			}
			break
		}
		report.add(e.executeOne(ctx, item, keep, dryRun))
	}

	e.logger.Info("prune batch finished",
		"dry_run", dryRun,
		"deleted", report.Deleted,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"bytes_freed", report.BytesFreed,
	)
	return report
}

// executeOne runs the full decision chain for one candidate.
func (e *Executor) executeOne(ctx context.Context, item Item, keep func(id string) bool, dryRun bool) ItemResult {
	snap := item.Snapshot

	// Execution-time guard: the decision may predate a policy change.
	if keep != nil && keep(snap.ID) {
		e.logger.Info("prune candidate retained by current policy", "snapshot_id", snap.ID)
		return ItemResult{
			SnapshotID: snap.ID,
			Outcome:    OutcomeSkipped,
			Reason:     "retained by current policy at execution time",
		}
	}

	if dryRun {
		return ItemResult{
			SnapshotID: snap.ID,
			Outcome:    OutcomeDeleted,
			Reason:     item.Reason,
			BytesFreed: snap.SizeBytes,
		}
	}

	// Integrity gate: only confirmed-intact or already-corrupt
	// snapshots may be deleted. Corrupt ones need no re-check; a stale
	// confirmation triggers an inline verification.
	if snap.Status != snapshot.StatusCorrupt && !e.verifier.Fresh(snap, time.Now().UTC()) {
		result := e.verifier.Verify(ctx, snap)
		switch result.Code {
		case verify.CodeOk:
			if err := e.registry.SetVerifiedAt(ctx, snap.ID, time.Now().UTC()); err != nil {
				e.logger.Warn("failed to record verification time", "snapshot_id", snap.ID, "error", err)
			}
		case verify.CodeMismatch:
			// Corrupt content is still prune-eligible; record the
			// finding before deleting.
			e.logger.Warn("prune candidate failed integrity check",
				"snapshot_id", snap.ID, "expected", result.Expected, "actual", result.Actual)
			if err := e.registry.MarkCorrupt(ctx, snap.ID); err != nil {
				e.logger.Warn("failed to mark snapshot corrupt", "snapshot_id", snap.ID, "error", err)
			}
		case verify.CodeUnreadable:
			// A transient read failure must not be treated as either
			// corruption or a completed delete.
			return ItemResult{
				SnapshotID: snap.ID,
				Outcome:    OutcomeFailed,
				Reason:     "integrity could not be confirmed before delete",
				Err:        result.IntegrityError(snap.ID),
			}
		}
	}

	deleteCtx, cancel := context.WithTimeout(ctx, e.config.DeleteTimeout)
	err := e.backend.Delete(deleteCtx, snap.Location)
	cancel()
	if err != nil {
		e.logger.Error("content delete failed",
			"snapshot_id", snap.ID,
			"location", snap.Location,
			"error", err,
		)
		return ItemResult{
			SnapshotID: snap.ID,
			Outcome:    OutcomeFailed,
			Reason:     "content delete failed",
			Err:        err,
		}
	}

	if err := e.registry.MarkPruned(ctx, snap.ID); err != nil {
		// The content is gone; surface the registry failure so the
		// operator can reconcile the metadata.
		e.logger.Error("content deleted but status update failed",
			"snapshot_id", snap.ID,
			"error", err,
		)
		return ItemResult{
			SnapshotID: snap.ID,
			Outcome:    OutcomeFailed,
			Reason:     "content deleted but registry update failed",
			Err:        err,
		}
	}

	e.logger.Info("snapshot pruned",
		"snapshot_id", snap.ID,
		"bytes_freed", snap.SizeBytes,
		"reason", item.Reason,
	)
	return ItemResult{
		SnapshotID: snap.ID,
		Outcome:    OutcomeDeleted,
		Reason:     item.Reason,
		BytesFreed: snap.SizeBytes,
	}
}
