package retention

import (
	"testing"
	"time"
)

func TestBucketKey(t *testing.T) {
	ts := time.Date(2026, 8, 30, 14, 45, 12, 0, time.UTC)

	tests := []struct {
		granularity Granularity
		want        string
	}{
		{GranularityHour, "2026-08-30T14"},
		{GranularityDay, "2026-08-30"},
		{GranularityWeek, "2026-W35"},
		{GranularityMonth, "2026-08"},
		{GranularityYear, "2026"},
	}

	for _, tt := range tests {
		if got := BucketKey(ts, tt.granularity); got != tt.want {
			t.Errorf("BucketKey(%s) = %q, want %q", tt.granularity, got, tt.want)
		}
	}
}

// TestBucketKey_NormalizesZone checks that the same instant lands in
// the same bucket regardless of recording zone.
func TestBucketKey_NormalizesZone(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	utc := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	shifted := utc.In(est) // 2026-02-28 21:00 EST, same instant

	for _, g := range []Granularity{GranularityHour, GranularityDay, GranularityWeek, GranularityMonth, GranularityYear} {
		if BucketKey(utc, g) != BucketKey(shifted, g) {
			t.Errorf("BucketKey(%s) differs across zones: %q vs %q",
				g, BucketKey(utc, g), BucketKey(shifted, g))
		}
	}
}

// TestBucketKey_ISOWeekBoundaries pins the Monday-start convention:
// Sunday belongs to the week begun the preceding Monday, and the first
// days of January can fall into the previous ISO year.
func TestBucketKey_ISOWeekBoundaries(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{
			name: "sunday closes the week",
			ts:   time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC), // Sunday
			want: "2026-W35",
		},
		{
			name: "monday opens the next week",
			ts:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), // Monday
			want: "2026-W36",
		},
		{
			name: "january 1st in previous ISO year",
			ts:   time.Date(2027, 1, 1, 12, 0, 0, 0, time.UTC), // Friday of 2026-W53
			want: "2026-W53",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketKey(tt.ts, GranularityWeek); got != tt.want {
				t.Errorf("BucketKey(week) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGranularity_Coarser(t *testing.T) {
	if !GranularityYear.Coarser(GranularityHour) {
		t.Error("year should be coarser than hour")
	}
	if GranularityDay.Coarser(GranularityWeek) {
		t.Error("day should not be coarser than week")
	}
	if GranularityMonth.Coarser(GranularityMonth) {
		t.Error("a granularity is not coarser than itself")
	}
}
