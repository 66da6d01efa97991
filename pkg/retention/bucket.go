package retention

import (
	"fmt"
	"time"
)

// Granularity is the width of a retention tier's time buckets.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// granularityRank orders granularities from finest to coarsest. Tiers
// in a policy must strictly increase in rank.
var granularityRank = map[Granularity]int{
	GranularityHour:  1,
	GranularityDay:   2,
	GranularityWeek:  3,
	GranularityMonth: 4,
	GranularityYear:  5,
}

// Valid reports whether g is one of the defined granularities.
func (g Granularity) Valid() bool {
	_, ok := granularityRank[g]
	return ok
}

// Coarser reports whether g covers a longer duration than other.
func (g Granularity) Coarser(other Granularity) bool {
	return granularityRank[g] > granularityRank[other]
}

// BucketKey returns the canonical key for the time bucket containing t
// at the given granularity. Timestamps are normalized to UTC before
// truncation so a snapshot lands in the same bucket regardless of the
// zone it was recorded in.
//
// Weekly buckets follow ISO-8601: weeks start on Monday, and the week
// belongs to the year containing its Thursday (time.Time.ISOWeek).
// A Sunday snapshot therefore shares a bucket with the preceding
// Monday-Saturday, not the following week.
//
// Keys are plain strings rather than per-granularity tuple types so a
// single claimed-set map works across all tiers:
//
//	hour  2026-08-30T14
//	day   2026-08-30
//	week  2026-W35
//	month 2026-08
//	year  2026
func BucketKey(t time.Time, g Granularity) string {
	u := t.UTC()
	switch g {
	case GranularityHour:
		return u.Format("2006-01-02T15")
	case GranularityDay:
		return u.Format("2006-01-02")
	case GranularityWeek:
		year, week := u.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GranularityMonth:
		return u.Format("2006-01")
	case GranularityYear:
		return u.Format("2006")
	default:
		// Unreachable after policy validation; a distinct prefix keeps
		// a bad key from colliding with a real bucket.
		return "invalid:" + string(g)
	}
}
