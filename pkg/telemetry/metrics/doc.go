// Package metrics exposes Prometheus metrics for the retention
// pipeline: cycle counts and durations, per-tier kept gauges,
// reclaimed bytes, prune item outcomes, and integrity check results.
package metrics
