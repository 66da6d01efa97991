package config

import "time"

// Default values for configuration fields.
const (
	DefaultRegistryPath         = "data/registry.db"
	DefaultRegistryMaxOpenConns = 10
	DefaultRegistryMaxIdleConns = 5
	DefaultRegistryBusyTimeout  = 5 * time.Second

	DefaultStorageRoot = "data/snapshots"

	DefaultVerifyTimeout         = 30 * time.Second
	DefaultVerifyFreshnessWindow = 24 * time.Hour

	DefaultPruneDeleteTimeout = 30 * time.Second

	DefaultCycleSchedule  = "0 3 * * *"
	DefaultCycleLeaseTTL  = 15 * time.Minute
	DefaultCycleLeasePath = "data/lease.db"

	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"

	DefaultMetricsNamespace     = "snapvault"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
)

// ApplyDefaults fills unset fields with their default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = DefaultRegistryPath
	}
	if cfg.Registry.MaxOpenConns == 0 {
		cfg.Registry.MaxOpenConns = DefaultRegistryMaxOpenConns
	}
	if cfg.Registry.MaxIdleConns == 0 {
		cfg.Registry.MaxIdleConns = DefaultRegistryMaxIdleConns
	}
	if cfg.Registry.WALMode == nil {
		walMode := true
		cfg.Registry.WALMode = &walMode
	}
	if cfg.Registry.BusyTimeout == 0 {
		cfg.Registry.BusyTimeout = DefaultRegistryBusyTimeout
	}

	if cfg.Storage.Root == "" {
		cfg.Storage.Root = DefaultStorageRoot
	}

	if cfg.Verify.Timeout == 0 {
		cfg.Verify.Timeout = DefaultVerifyTimeout
	}
	if cfg.Verify.FreshnessWindow == 0 {
		cfg.Verify.FreshnessWindow = DefaultVerifyFreshnessWindow
	}

	if cfg.Prune.DeleteTimeout == 0 {
		cfg.Prune.DeleteTimeout = DefaultPruneDeleteTimeout
	}

	if cfg.Cycle.Schedule == "" {
		cfg.Cycle.Schedule = DefaultCycleSchedule
	}
	if cfg.Cycle.LeaseTTL == 0 {
		cfg.Cycle.LeaseTTL = DefaultCycleLeaseTTL
	}
	if cfg.Cycle.LeasePath == "" {
		cfg.Cycle.LeasePath = DefaultCycleLeasePath
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
}
