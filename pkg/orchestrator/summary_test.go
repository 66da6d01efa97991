package orchestrator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/snapvault-io/snapvault/pkg/prune"
)

func TestSummary_Render(t *testing.T) {
	start := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	s := &Summary{
		CycleID:             "cycle-1",
		State:               StateFailed,
		DryRun:              false,
		StartedAt:           start,
		FinishedAt:          start.Add(2 * time.Second),
		SnapshotsConsidered: 10,
		Kept:                7,
		PruneCandidates:     3,
		QuotaEvictions:      1,
		BytesReclaimed:      2048,
		KeptPerTier:         map[string]int{"hourly": 4, "daily": 3},
		Warnings:            []string{"quota cannot be satisfied"},
		Report: &prune.Report{
			Deleted: 2,
			Failed:  1,
			Items: []prune.ItemResult{
				{SnapshotID: "bad", Outcome: prune.OutcomeFailed, Reason: "content delete failed", Err: errors.New("io error")},
			},
		},
	}

	var buf strings.Builder
	s.Render(&buf)
	out := buf.String()

	for _, want := range []string{
		"cycle cycle-1 (apply): failed",
		"considered: 10  kept: 7",
		"tier daily",
		"tier hourly",
		"FAILED bad: content delete failed",
		"WARNING: quota cannot be satisfied",
		"reclaimed: 2048 bytes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render output missing %q:\n%s", want, out)
		}
	}
}

func TestSummary_RenderDryRun(t *testing.T) {
	s := &Summary{
		CycleID:     "cycle-2",
		State:       StateDryRunComplete,
		DryRun:      true,
		KeptPerTier: map[string]int{},
	}

	var buf strings.Builder
	s.Render(&buf)
	if !strings.Contains(buf.String(), "(dry-run)") {
		t.Errorf("Render output missing dry-run marker:\n%s", buf.String())
	}
}
