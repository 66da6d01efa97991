// Package health provides liveness and readiness probes for daemon
// mode.
//
// Liveness confirms the process is up; readiness runs the registered
// component checks (registry reachable, storage root present, lease
// database writable) and reports per-component results. Both are served
// as HTTP endpoints next to /metrics.
package health
