// Package config loads, defaults, and validates the snapvault
// configuration: registry and storage locations, the tiered retention
// policy, the storage quota, verification and prune timeouts, cycle
// scheduling, and telemetry settings.
//
// Configuration is YAML with SNAPVAULT_SECTION_FIELD environment
// overrides. Validation collects every field error into a single
// ValidationError; structural retention rules are delegated to the
// policy type itself so the config layer and the evaluator cannot
// disagree. A file watcher supports policy reload between cycles in
// daemon mode.
package config
