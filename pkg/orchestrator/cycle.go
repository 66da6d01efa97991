package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snapvault-io/snapvault/pkg/prune"
	"github.com/snapvault-io/snapvault/pkg/quota"
	"github.com/snapvault-io/snapvault/pkg/retention"
	"github.com/snapvault-io/snapvault/pkg/snapshot"
	"github.com/snapvault-io/snapvault/pkg/telemetry/metrics"
	"github.com/snapvault-io/snapvault/pkg/verify"
)

// Config contains configuration for the orchestrator.
type Config struct {
	// LeaseTTL is how long a cycle may hold the mutual-exclusion lease
	// before a competing invocation may reclaim it.
	// Default: 15 minutes
	LeaseTTL time.Duration `yaml:"lease_ttl"`
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() *Config {
	return &Config{LeaseTTL: 15 * time.Minute}
}

// Orchestrator runs retention cycles: load metadata atomically,
// evaluate the tiered policy, enforce the quota, then either report
// (dry run) or prune and persist statuses.
type Orchestrator struct {
	registry snapshot.Registry
	verifier *verify.Verifier
	executor *prune.Executor
	leaser   Leaser
	config   *Config
	metrics  *metrics.Collector
	logger   *slog.Logger

	// Policies are swappable between cycles (config reload); the mutex
	// guarantees a swap never lands mid-cycle.
	mu        sync.Mutex
	retention retention.Policy
	quota     quota.Policy
}

// New creates an orchestrator. Both policies are validated up front so
// a misconfiguration surfaces before any I/O. collector may be nil.
func New(
	registry snapshot.Registry,
	verifier *verify.Verifier,
	executor *prune.Executor,
	leaser Leaser,
	retentionPolicy retention.Policy,
	quotaPolicy quota.Policy,
	config *Config,
	collector *metrics.Collector,
) (*Orchestrator, error) {
	if err := retentionPolicy.Validate(); err != nil {
		return nil, err
	}
	if err := quotaPolicy.Validate(); err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.LeaseTTL <= 0 {
		config.LeaseTTL = DefaultConfig().LeaseTTL
	}

	return &Orchestrator{
		registry:  registry,
		verifier:  verifier,
		executor:  executor,
		leaser:    leaser,
		config:    config,
		metrics:   collector,
		logger:    slog.Default().With("component", "orchestrator"),
		retention: retentionPolicy,
		quota:     quotaPolicy,
	}, nil
}

// SetPolicies swaps the retention and quota policies used by future
// cycles. Invalid policies are rejected and the current ones stay in
// effect. Holding the cycle mutex means a swap never applies mid-cycle.
func (o *Orchestrator) SetPolicies(retentionPolicy retention.Policy, quotaPolicy quota.Policy) error {
	if err := retentionPolicy.Validate(); err != nil {
		return err
	}
	if err := quotaPolicy.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.retention = retentionPolicy
	o.quota = quotaPolicy
	o.logger.Info("retention policies updated", "tiers", len(retentionPolicy.Tiers))
	return nil
}

// Run executes one full retention cycle and returns its summary. A
// *snapshot.ConcurrencyError means another cycle holds the lease and
// this one never started.
func (o *Orchestrator) Run(ctx context.Context, dryRun bool) (*Summary, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	cycleID := uuid.New().String()
	owner := "cycle-" + cycleID
	logger := o.logger.With("cycle_id", cycleID)

	lease, err := o.leaser.Acquire(ctx, owner, o.config.LeaseTTL)
	if err != nil {
		logger.Warn("cycle did not start", "error", err)
		return nil, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("lease release failed", "error", err)
		}
	}()

	summary := &Summary{
		CycleID:     cycleID,
		State:       StateEvaluating,
		DryRun:      dryRun,
		StartedAt:   time.Now().UTC(),
		KeptPerTier: make(map[string]int),
	}
	logger.Info("retention cycle started", "dry_run", dryRun)

	// One atomic read; snapshots registered after this point belong to
	// the next cycle.
	snaps, err := o.registry.List(ctx, snapshot.StatusActive, snapshot.StatusCorrupt)
	if err != nil {
		summary.State = StateFailed
		o.finish(summary, logger)
		return summary, err
	}
	summary.SnapshotsConsidered = len(snaps)

	keptSet, items, warnings, err := o.plan(snaps, o.retention, o.quota)
	if err != nil {
		summary.State = StateFailed
		o.finish(summary, logger)
		return summary, err
	}
	summary.Warnings = warnings
	summary.PruneCandidates = len(items)

	for _, k := range keptSet.Kept {
		summary.KeptPerTier[k.Tier]++
	}
	summary.Kept = len(keptSet.Kept)
	summary.QuotaEvictions = len(keptSet.Evicted)

	if dryRun {
		summary.Report = o.executor.Execute(ctx, items, nil, true)
		summary.State = StateDryRunComplete
		o.finish(summary, logger)
		return summary, nil
	}

	summary.State = StatePruning

	// Persist the fresh tier attribution for the kept set before any
	// delete, so an interrupted cycle still leaves accurate metadata.
	for _, k := range keptSet.Kept {
		if err := o.registry.SetClaimedTier(ctx, k.Snapshot.ID, k.Tier); err != nil {
			logger.Warn("failed to persist tier attribution",
				"snapshot_id", k.Snapshot.ID, "error", err)
		}
	}

	report := o.executor.Execute(ctx, items, o.keepPredicate(ctx), false)
	summary.Report = report
	summary.BytesReclaimed = report.BytesFreed

	if report.Failed > 0 {
		// Already-applied deletions stay committed; the cycle as a
		// whole still counts as failed so operators notice.
		summary.State = StateFailed
	} else {
		summary.State = StateComplete
	}
	o.finish(summary, logger)
	return summary, nil
}

// plan runs the pure decision pipeline: evaluate, apply the never-empty
// safeguard, enforce the quota, and assemble the prune batch.
func (o *Orchestrator) plan(
	snaps []*snapshot.Snapshot,
	retentionPolicy retention.Policy,
	quotaPolicy quota.Policy,
) (quota.Result, []prune.Item, []string, error) {
	decisions, err := retention.Evaluate(snaps, retentionPolicy)
	if err != nil {
		return quota.Result{}, nil, nil, err
	}

	var warnings []string

	// Never-empty safeguard: if the policy kept nothing, the newest
	// snapshot survives anyway. Zero snapshots is not an acceptable
	// outcome of a cycle that started with at least one.
	if len(snaps) > 0 && keptCount(decisions) == 0 {
		newestIdx := newestIndex(snaps)
		decisions[newestIdx].Kept = true
		decisions[newestIdx].Tier = ""
		decisions[newestIdx].Reason = "most recent snapshot retained: policy kept nothing"
		warnings = append(warnings,
			"retention policy kept no snapshots; most recent snapshot retained regardless")
	}

	tierIndex := make(map[string]int, len(retentionPolicy.Tiers))
	for i, tier := range retentionPolicy.Tiers {
		tierIndex[tier.Name] = i
	}

	byID := make(map[string]*snapshot.Snapshot, len(snaps))
	for _, snap := range snaps {
		byID[snap.ID] = snap
	}

	var kept []quota.Kept
	var items []prune.Item
	for _, d := range decisions {
		if d.Kept {
			kept = append(kept, quota.Kept{
				Snapshot:  byID[d.SnapshotID],
				Tier:      d.Tier,
				TierIndex: tierIndex[d.Tier],
			})
			continue
		}
		items = append(items, prune.Item{Snapshot: byID[d.SnapshotID], Reason: d.Reason})
	}

	result, err := quota.Enforce(kept, quotaPolicy)
	if err != nil {
		return quota.Result{}, nil, warnings, err
	}
	if result.Warning != "" {
		warnings = append(warnings, result.Warning)
	}
	for _, ev := range result.Evicted {
		items = append(items, prune.Item{Snapshot: byID[ev.SnapshotID], Reason: ev.Reason})
	}

	return result, items, warnings, nil
}

// keepPredicate builds the execution-time re-validation check: the
// keep-set recomputed from the registry's state at prune time, so a
// policy change between decision and execution never deletes a
// snapshot the current policy retains.
func (o *Orchestrator) keepPredicate(ctx context.Context) func(id string) bool {
	var once sync.Once
	var keep map[string]bool

	return func(id string) bool {
		once.Do(func() {
			snaps, err := o.registry.List(ctx, snapshot.StatusActive, snapshot.StatusCorrupt)
			if err != nil {
				o.logger.Warn("re-validation load failed; keeping all candidates", "error", err)
				keep = nil
				return
			}
			result, _, _, err := o.plan(snaps, o.retention, o.quota)
			if err != nil {
				o.logger.Warn("re-validation planning failed; keeping all candidates", "error", err)
				keep = nil
				return
			}
			keep = make(map[string]bool, len(result.Kept))
			for _, k := range result.Kept {
				keep[k.Snapshot.ID] = true
			}
		})
		if keep == nil {
			// Failing open here would delete on stale information;
			// treating every candidate as kept fails the batch safe.
			return true
		}
		return keep[id]
	}
}

func (o *Orchestrator) finish(summary *Summary, logger *slog.Logger) {
	summary.FinishedAt = time.Now().UTC()
	summary.Emit(logger)
	if o.metrics != nil {
		o.metrics.ObserveCycle(
			string(summary.State),
			summary.DryRun,
			summary.FinishedAt.Sub(summary.StartedAt),
			summary.KeptPerTier,
			summary.BytesReclaimed,
			summary.Report,
		)
	}
}

func keptCount(decisions []retention.Decision) int {
	n := 0
	for _, d := range decisions {
		if d.Kept {
			n++
		}
	}
	return n
}

// newestIndex returns the index of the newest snapshot, breaking ties
// by ID ascending to match the evaluator's ordering.
func newestIndex(snaps []*snapshot.Snapshot) int {
	best := 0
	for i := 1; i < len(snaps); i++ {
		if snaps[i].CreatedAt.After(snaps[best].CreatedAt) {
			best = i
			continue
		}
		if snaps[i].CreatedAt.Equal(snaps[best].CreatedAt) && snaps[i].ID < snaps[best].ID {
			best = i
		}
	}
	return best
}
