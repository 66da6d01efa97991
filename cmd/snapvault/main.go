// Snapvault manages the lifecycle of point-in-time snapshots: a tiered
// grandfather-father-son retention policy decides which snapshots to
// keep at hourly through yearly granularities, a storage quota caps
// total bytes and count, and content checksums guard every prune.
//
// Usage:
//
//	# Preview what the next retention cycle would prune
//	snapvault run
//
//	# Apply the retention policy
//	snapvault run --apply
//
//	# Run as a daemon with scheduled cycles
//	snapvault run --daemon
//
//	# Register a captured snapshot artifact
//	snapvault register --ref daily/app-2026-08-30.dump
//
//	# Check snapshot integrity
//	snapvault verify --all
//
//	# Inspect the registry
//	snapvault list --status active
package main

func main() {
	Execute()
}
