package orchestrator

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/snapvault-io/snapvault/pkg/prune"
)

// State is the position of a cycle in its state machine:
// Idle -> Evaluating -> {DryRunComplete | Pruning} -> {Complete | Failed}.
type State string

const (
	StateIdle           State = "idle"
	StateEvaluating     State = "evaluating"
	StateDryRunComplete State = "dry_run_complete"
	StatePruning        State = "pruning"
	StateComplete       State = "complete"
	StateFailed         State = "failed"
)

// Summary is the structured outcome of one retention cycle, emitted to
// the observability collaborator and rendered for CLI use.
type Summary struct {
	CycleID    string    `json:"cycle_id"`
	State      State     `json:"state"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// SnapshotsConsidered is the size of the metadata set loaded
	// atomically at cycle start.
	SnapshotsConsidered int `json:"snapshots_considered"`

	// KeptPerTier maps tier name to the number of snapshots it kept
	// after quota enforcement.
	KeptPerTier map[string]int `json:"kept_per_tier"`

	Kept            int   `json:"kept"`
	PruneCandidates int   `json:"prune_candidates"`
	QuotaEvictions  int   `json:"quota_evictions"`
	BytesReclaimed  int64 `json:"bytes_reclaimed"`

	Warnings []string `json:"warnings,omitempty"`

	// Report carries the per-item prune results (nil until the prune
	// phase runs).
	Report *prune.Report `json:"report,omitempty"`
}

// Emit writes the summary as one structured log event.
func (s *Summary) Emit(logger *slog.Logger) {
	attrs := []any{
		"cycle_id", s.CycleID,
		"state", string(s.State),
		"dry_run", s.DryRun,
		"duration", s.FinishedAt.Sub(s.StartedAt).String(),
		"snapshots_considered", s.SnapshotsConsidered,
		"kept", s.Kept,
		"prune_candidates", s.PruneCandidates,
		"quota_evictions", s.QuotaEvictions,
		"bytes_reclaimed", s.BytesReclaimed,
	}
	if s.Report != nil {
		attrs = append(attrs,
			"deleted", s.Report.Deleted,
			"skipped", s.Report.Skipped,
			"failed", s.Report.Failed,
		)
	}
	for _, w := range s.Warnings {
		logger.Warn("cycle warning", "cycle_id", s.CycleID, "warning", w)
	}
	logger.Info("retention cycle finished", attrs...)
}

// Render writes a human-readable summary, for CLI output.
func (s *Summary) Render(w io.Writer) {
	mode := "apply"
	if s.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "cycle %s (%s): %s in %s\n",
		s.CycleID, mode, s.State, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  considered: %d  kept: %d  prune candidates: %d (quota evictions: %d)\n",
		s.SnapshotsConsidered, s.Kept, s.PruneCandidates, s.QuotaEvictions)

	tiers := make([]string, 0, len(s.KeptPerTier))
	for tier := range s.KeptPerTier {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		fmt.Fprintf(w, "  tier %-12s kept %d\n", tier, s.KeptPerTier[tier])
	}

	if s.Report != nil {
		fmt.Fprintf(w, "  deleted: %d  skipped: %d  failed: %d  reclaimed: %d bytes\n",
			s.Report.Deleted, s.Report.Skipped, s.Report.Failed, s.BytesReclaimed)
		for _, item := range s.Report.Items {
			if item.Outcome == prune.OutcomeFailed {
				fmt.Fprintf(w, "  FAILED %s: %s (%v)\n", item.SnapshotID, item.Reason, item.Err)
			}
		}
	}
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "  WARNING: %s\n", warning)
	}
}
