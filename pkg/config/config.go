package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/snapvault-io/snapvault/pkg/quota"
	"github.com/snapvault-io/snapvault/pkg/retention"
)

// Config is the root configuration for snapvault. It covers the
// snapshot registry, the content storage backend, the retention and
// quota policies, verification and prune behavior, cycle scheduling,
// and telemetry.
type Config struct {
	// Registry configures the snapshot metadata store.
	Registry RegistryConfig `yaml:"registry"`

	// Storage configures the snapshot content backend.
	Storage StorageConfig `yaml:"storage"`

	// Retention is the tiered keep policy, finest granularity first.
	Retention RetentionConfig `yaml:"retention"`

	// Quota caps total stored bytes and snapshot count. Zero values
	// mean unlimited.
	Quota QuotaConfig `yaml:"quota"`

	// Verify configures integrity checking.
	Verify VerifyConfig `yaml:"verify"`

	// Prune configures the prune executor.
	Prune PruneConfig `yaml:"prune"`

	// Cycle configures orchestration: scheduling and the
	// mutual-exclusion lease.
	Cycle CycleConfig `yaml:"cycle"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RegistryConfig configures the SQLite snapshot registry.
type RegistryConfig struct {
	// Path is the registry database file.
	// Default: "data/registry.db"
	Path string `yaml:"path"`

	// MaxOpenConns caps open database connections. Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns caps idle database connections. Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging. Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// StorageConfig configures the content backend.
type StorageConfig struct {
	// Root is the directory holding snapshot content files.
	// Default: "data/snapshots"
	Root string `yaml:"root"`
}

// KeepCount is a tier keep budget: a non-negative integer or the
// string "unlimited".
type KeepCount int

// UnmarshalYAML accepts either an integer or "unlimited".
func (k *KeepCount) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "unlimited" {
		*k = KeepCount(retention.KeepUnlimited)
		return nil
	}
	var n int
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("keep_count must be a non-negative integer or \"unlimited\": %w", err)
	}
	*k = KeepCount(n)
	return nil
}

// TierConfig is one retention tier as written in the config file.
type TierConfig struct {
	Name        string    `yaml:"name"`
	Granularity string    `yaml:"granularity"`
	KeepCount   KeepCount `yaml:"keep_count"`
}

// RetentionConfig is the tier list as written in the config file.
type RetentionConfig struct {
	Tiers []TierConfig `yaml:"tiers"`
}

// Policy converts the config form into the evaluator's policy type.
func (c RetentionConfig) Policy() retention.Policy {
	tiers := make([]retention.Tier, len(c.Tiers))
	for i, t := range c.Tiers {
		tiers[i] = retention.Tier{
			Name:        t.Name,
			Granularity: retention.Granularity(t.Granularity),
			KeepCount:   int(t.KeepCount),
		}
	}
	return retention.Policy{Tiers: tiers}
}

// QuotaConfig is the storage quota as written in the config file.
type QuotaConfig struct {
	// MaxTotalBytes caps the summed size of kept snapshots. 0 means
	// unlimited.
	MaxTotalBytes int64 `yaml:"max_total_bytes"`

	// MaxCount caps the number of kept snapshots. 0 means unlimited.
	MaxCount int64 `yaml:"max_count"`
}

// Policy converts the config form into the enforcer's policy type.
func (c QuotaConfig) Policy() quota.Policy {
	return quota.Policy{MaxTotalBytes: c.MaxTotalBytes, MaxCount: c.MaxCount}
}

// VerifyConfig configures integrity checking.
type VerifyConfig struct {
	// Timeout bounds each content read during verification.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// FreshnessWindow is how recently a snapshot must have passed
	// verification for pruning to trust it without a fresh check.
	// Default: 24h
	FreshnessWindow time.Duration `yaml:"freshness_window"`
}

// PruneConfig configures the prune executor.
type PruneConfig struct {
	// DeleteTimeout bounds each content delete call. Default: 30s
	DeleteTimeout time.Duration `yaml:"delete_timeout"`
}

// CycleConfig configures orchestration.
type CycleConfig struct {
	// Schedule is a standard cron expression for automatic cycles in
	// daemon mode. Empty disables scheduling.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`

	// LeaseTTL bounds how long one cycle may hold the
	// mutual-exclusion lease. Default: 15m
	LeaseTTL time.Duration `yaml:"lease_ttl"`

	// LeasePath is the lease database file shared by all invocations
	// against the same registry. Default: "data/lease.db"
	LeasePath string `yaml:"lease_path"`

	// WatchConfig reloads the retention and quota policies between
	// cycles when the config file changes (daemon mode only).
	// Default: false
	WatchConfig bool `yaml:"watch_config"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text". Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics listener on in daemon mode.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name. Default: "snapvault"
	Namespace string `yaml:"namespace"`

	// ListenAddress is the host:port for the /metrics endpoint.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`
}
