package quota

import (
	"fmt"
	"sort"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

// Policy is a hard cap on aggregate snapshot storage, enforced after
// time-based retention. Zero values mean unlimited.
type Policy struct {
	// MaxTotalBytes caps the summed size of kept snapshots.
	MaxTotalBytes int64 `yaml:"max_total_bytes"`

	// MaxCount caps the number of kept snapshots.
	MaxCount int64 `yaml:"max_count"`
}

// Unlimited reports whether the policy imposes no constraint at all.
func (p Policy) Unlimited() bool {
	return p.MaxTotalBytes == 0 && p.MaxCount == 0
}

// Validate checks that both caps are non-negative. A violation is
// returned as a *snapshot.ConfigError.
func (p Policy) Validate() error {
	if p.MaxTotalBytes < 0 {
		return snapshot.NewConfigError("quota.max_total_bytes",
			fmt.Sprintf("must be non-negative, got %d", p.MaxTotalBytes))
	}
	if p.MaxCount < 0 {
		return snapshot.NewConfigError("quota.max_count",
			fmt.Sprintf("must be non-negative, got %d", p.MaxCount))
	}
	return nil
}

// Kept pairs a snapshot with the retention tier that claimed it.
// TierIndex is the tier's position in the policy order, so a higher
// index means a coarser granularity.
type Kept struct {
	Snapshot  *snapshot.Snapshot
	Tier      string
	TierIndex int
}

// Eviction records one snapshot removed from the kept set by quota
// enforcement.
type Eviction struct {
	SnapshotID string `json:"snapshot_id"`
	Tier       string `json:"tier"`
	Reason     string `json:"reason"`
}

// Result is the outcome of one enforcement pass.
type Result struct {
	// Kept is the surviving kept set, in the input order.
	Kept []Kept

	// Evicted lists the snapshots removed to satisfy the quota, in
	// eviction order.
	Evicted []Eviction

	// BytesEvicted is the summed size of the evicted snapshots.
	BytesEvicted int64

	// Warning is set when the quota cannot be satisfied without
	// evicting the single most recent snapshot, which enforcement
	// never does. Empty otherwise.
	Warning string
}

// Enforce trims the kept set until it satisfies the quota. Snapshots
// attributed to coarser tiers are sacrificed first, oldest first within
// a tier, before any finer tier is touched. The single most recent
// snapshot overall is exempt: if it alone exceeds the quota the result
// carries a warning instead of an eviction, because an empty kept set
// is never an acceptable outcome.
//
// Enforce performs no I/O and does not mutate its inputs.
func Enforce(kept []Kept, policy Policy) (Result, error) {
	if err := policy.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{Kept: kept}
	if len(kept) == 0 || policy.Unlimited() {
		return res, nil
	}

	var totalBytes int64
	for _, k := range kept {
		totalBytes += k.Snapshot.SizeBytes
	}
	count := int64(len(kept))
	if withinQuota(totalBytes, count, policy) {
		return res, nil
	}

	newest := mostRecent(kept)

	// Eviction order: coarsest tier first, oldest first within a tier,
	// ID as the final deterministic tie-break.
	candidates := make([]Kept, 0, len(kept))
	for _, k := range kept {
		if k.Snapshot.ID == newest {
			continue
		}
		candidates = append(candidates, k)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].TierIndex != candidates[j].TierIndex {
			return candidates[i].TierIndex > candidates[j].TierIndex
		}
		if !candidates[i].Snapshot.CreatedAt.Equal(candidates[j].Snapshot.CreatedAt) {
			return candidates[i].Snapshot.CreatedAt.Before(candidates[j].Snapshot.CreatedAt)
		}
		return candidates[i].Snapshot.ID < candidates[j].Snapshot.ID
	})

	evicted := make(map[string]bool)
	for _, c := range candidates {
		if withinQuota(totalBytes, count, policy) {
			break
		}
		evicted[c.Snapshot.ID] = true
		totalBytes -= c.Snapshot.SizeBytes
		count--
		res.BytesEvicted += c.Snapshot.SizeBytes
		res.Evicted = append(res.Evicted, Eviction{
			SnapshotID: c.Snapshot.ID,
			Tier:       c.Tier,
			Reason:     evictionReason(c, policy),
		})
	}

	if !withinQuota(totalBytes, count, policy) {
		res.Warning = fmt.Sprintf(
			"quota cannot be satisfied: most recent snapshot %s (%d bytes) exceeds it alone and is never evicted",
			newest, totalBytes)
	}

	surviving := make([]Kept, 0, len(kept)-len(evicted))
	for _, k := range kept {
		if !evicted[k.Snapshot.ID] {
			surviving = append(surviving, k)
		}
	}
	res.Kept = surviving
	return res, nil
}

func withinQuota(totalBytes, count int64, policy Policy) bool {
	if policy.MaxTotalBytes > 0 && totalBytes > policy.MaxTotalBytes {
		return false
	}
	if policy.MaxCount > 0 && count > policy.MaxCount {
		return false
	}
	return true
}

// mostRecent returns the ID of the newest snapshot, breaking timestamp
// ties by ID ascending to match the evaluator's ordering.
func mostRecent(kept []Kept) string {
	best := kept[0]
	for _, k := range kept[1:] {
		if k.Snapshot.CreatedAt.After(best.Snapshot.CreatedAt) {
			best = k
			continue
		}
		if k.Snapshot.CreatedAt.Equal(best.Snapshot.CreatedAt) && k.Snapshot.ID < best.Snapshot.ID {
			best = k
		}
	}
	return best.Snapshot.ID
}

func evictionReason(k Kept, policy Policy) string {
	if policy.MaxTotalBytes > 0 && policy.MaxCount > 0 {
		return fmt.Sprintf("evicted from tier %s to satisfy quota (max %d bytes, max %d snapshots)",
			k.Tier, policy.MaxTotalBytes, policy.MaxCount)
	}
	if policy.MaxTotalBytes > 0 {
		return fmt.Sprintf("evicted from tier %s to satisfy quota (max %d bytes)", k.Tier, policy.MaxTotalBytes)
	}
	return fmt.Sprintf("evicted from tier %s to satisfy quota (max %d snapshots)", k.Tier, policy.MaxCount)
}
