package retention

import (
	"fmt"
	"sort"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

// KeepUnlimited as a tier's KeepCount means every distinct bucket at
// that granularity keeps one snapshot, with no cap.
const KeepUnlimited = -1

// Tier is one level of a grandfather-father-son retention scheme: a
// named granularity with a budget of buckets to keep.
type Tier struct {
	// Name identifies the tier in decisions, summaries, and metrics.
	Name string `yaml:"name"`

	// Granularity is the width of this tier's time buckets.
	Granularity Granularity `yaml:"granularity"`

	// KeepCount is the number of distinct buckets this tier may claim,
	// or KeepUnlimited for no cap. Zero is valid and claims nothing.
	KeepCount int `yaml:"keep_count"`
}

// Policy is an ordered list of tiers, finest granularity first.
type Policy struct {
	Tiers []Tier `yaml:"tiers"`
}

// Validate checks structural rules: at least one tier, unique non-empty
// names, known granularities strictly increasing in duration, and keep
// counts that are non-negative or KeepUnlimited. A violation is
// returned as a *snapshot.ConfigError.
func (p Policy) Validate() error {
	if len(p.Tiers) == 0 {
		return snapshot.NewConfigError("retention.tiers", "at least one tier is required")
	}

	seen := make(map[string]bool, len(p.Tiers))
	for i, tier := range p.Tiers {
		field := fmt.Sprintf("retention.tiers[%d]", i)

		if tier.Name == "" {
			return snapshot.NewConfigError(field+".name", "tier name must not be empty")
		}
		if seen[tier.Name] {
			return snapshot.NewConfigError(field+".name",
				fmt.Sprintf("duplicate tier name %q", tier.Name))
		}
		seen[tier.Name] = true

		if !tier.Granularity.Valid() {
			return snapshot.NewConfigError(field+".granularity",
				fmt.Sprintf("unknown granularity %q (want hour, day, week, month, or year)", tier.Granularity))
		}
		if tier.KeepCount < KeepUnlimited {
			return snapshot.NewConfigError(field+".keep_count",
				fmt.Sprintf("keep count must be non-negative or %d for unlimited, got %d", KeepUnlimited, tier.KeepCount))
		}

		if i > 0 && !tier.Granularity.Coarser(p.Tiers[i-1].Granularity) {
			return snapshot.NewConfigError(field+".granularity",
				fmt.Sprintf("tier granularities must strictly increase in duration: %q (%s) does not follow %q (%s)",
					tier.Name, tier.Granularity, p.Tiers[i-1].Name, p.Tiers[i-1].Granularity))
		}
	}

	return nil
}

// Decision is the immutable per-snapshot outcome of one evaluation.
type Decision struct {
	SnapshotID string `json:"snapshot_id"`

	// Kept is true when a tier claimed this snapshot.
	Kept bool `json:"kept"`

	// Tier is the name of the claiming tier; empty when not kept.
	Tier string `json:"tier,omitempty"`

	// Reason is a human-readable explanation of the decision.
	Reason string `json:"reason"`
}

// tierState is the per-tier bookkeeping threaded through one
// evaluation: which bucket keys are already claimed, and how many
// claims remain.
type tierState struct {
	claimed   map[string]bool
	remaining int
}

// Evaluate runs the grandfather-father-son algorithm over an unordered
// snapshot list and returns one Decision per snapshot, keyed off the
// input order.
//
// Snapshots are scanned newest-first (ties broken by ID ascending so
// the result is deterministic). Each snapshot is attributed to the
// first tier, checked finest to coarsest, whose bucket for the
// snapshot's timestamp is unclaimed and whose keep budget has room.
// A snapshot belongs to at most one tier; snapshots claiming no tier
// are prune-eligible.
//
// Evaluate is a pure function of its inputs: it performs no I/O, never
// blocks, and identical inputs always yield identical decisions.
func Evaluate(snaps []*snapshot.Snapshot, policy Policy) ([]Decision, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	// Work on a sorted copy; the caller's slice order is preserved in
	// the returned decisions.
	ordered := make([]*snapshot.Snapshot, len(snaps))
	copy(ordered, snaps)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	states := make([]tierState, len(policy.Tiers))
	for i, tier := range policy.Tiers {
		states[i] = tierState{
			claimed:   make(map[string]bool),
			remaining: tier.KeepCount,
		}
	}

	decisions := make(map[string]Decision, len(ordered))
	for _, snap := range ordered {
		decisions[snap.ID] = decide(snap, policy.Tiers, states)
	}

	// Report decisions in the caller's input order.
	out := make([]Decision, len(snaps))
	for i, snap := range snaps {
		out[i] = decisions[snap.ID]
	}
	return out, nil
}

// decide attributes one snapshot to the first tier with an unclaimed
// bucket and remaining budget, mutating that tier's state.
func decide(snap *snapshot.Snapshot, tiers []Tier, states []tierState) Decision {
	for i, tier := range tiers {
		state := &states[i]
		if state.remaining == 0 {
			continue
		}

		key := BucketKey(snap.CreatedAt, tier.Granularity)
		if state.claimed[key] {
			continue
		}

		state.claimed[key] = true
		if state.remaining != KeepUnlimited {
			state.remaining--
		}

		return Decision{
			SnapshotID: snap.ID,
			Kept:       true,
			Tier:       tier.Name,
			Reason:     fmt.Sprintf("claimed %s bucket %s", tier.Name, key),
		}
	}

	return Decision{
		SnapshotID: snap.ID,
		Kept:       false,
		Reason:     "matched no retention tier",
	}
}

// KeptByTier groups the kept decisions by claiming tier name. Useful
// for cycle summaries and quota enforcement.
func KeptByTier(decisions []Decision) map[string][]Decision {
	byTier := make(map[string][]Decision)
	for _, d := range decisions {
		if d.Kept {
			byTier[d.Tier] = append(byTier[d.Tier], d)
		}
	}
	return byTier
}
