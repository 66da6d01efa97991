package main

import (
	"testing"

	"github.com/snapvault-io/snapvault/pkg/config"
	"github.com/snapvault-io/snapvault/pkg/retention"
)

func TestParseTierFlag(t *testing.T) {
	tests := []struct {
		spec    string
		want    config.TierConfig
		wantErr bool
	}{
		{
			spec: "hourly:hour:24",
			want: config.TierConfig{Name: "hourly", Granularity: "hour", KeepCount: 24},
		},
		{
			spec: "yearly:year:unlimited",
			want: config.TierConfig{Name: "yearly", Granularity: "year", KeepCount: config.KeepCount(retention.KeepUnlimited)},
		},
		{spec: "hourly:hour", wantErr: true},
		{spec: "hourly:hour:24:extra", wantErr: true},
		{spec: "hourly:hour:-3", wantErr: true},
		{spec: "hourly:hour:lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseTierFlag(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTierFlag(%q) succeeded, want error", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTierFlag(%q): %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("parseTierFlag(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestApplyPolicyOverrides(t *testing.T) {
	baseConfig := func() *config.Config {
		var cfg config.Config
		cfg.Retention.Tiers = []config.TierConfig{{Name: "hourly", Granularity: "hour", KeepCount: 24}}
		cfg.Quota.MaxTotalBytes = 100
		cfg.Quota.MaxCount = 10
		config.ApplyDefaults(&cfg)
		return &cfg
	}

	t.Run("no flags leaves the config alone", func(t *testing.T) {
		runFlags.maxTotalBytes = -1
		runFlags.maxCount = -1
		runFlags.tiers = nil

		cfg := baseConfig()
		if err := applyPolicyOverrides(cfg); err != nil {
			t.Fatalf("applyPolicyOverrides: %v", err)
		}
		if cfg.Quota.MaxTotalBytes != 100 || cfg.Quota.MaxCount != 10 {
			t.Errorf("quota changed: %+v", cfg.Quota)
		}
	})

	t.Run("quota overrides including zero", func(t *testing.T) {
		runFlags.maxTotalBytes = 0
		runFlags.maxCount = 5
		runFlags.tiers = nil

		cfg := baseConfig()
		if err := applyPolicyOverrides(cfg); err != nil {
			t.Fatalf("applyPolicyOverrides: %v", err)
		}
		if cfg.Quota.MaxTotalBytes != 0 || cfg.Quota.MaxCount != 5 {
			t.Errorf("quota = %+v", cfg.Quota)
		}
	})

	t.Run("tier overrides replace the configured list", func(t *testing.T) {
		runFlags.maxTotalBytes = -1
		runFlags.maxCount = -1
		runFlags.tiers = []string{"daily:day:7", "weekly:week:4"}

		cfg := baseConfig()
		if err := applyPolicyOverrides(cfg); err != nil {
			t.Fatalf("applyPolicyOverrides: %v", err)
		}
		if len(cfg.Retention.Tiers) != 2 || cfg.Retention.Tiers[0].Name != "daily" {
			t.Errorf("tiers = %+v", cfg.Retention.Tiers)
		}
	})

	t.Run("invalid override fails validation", func(t *testing.T) {
		runFlags.maxTotalBytes = -1
		runFlags.maxCount = -1
		runFlags.tiers = []string{"daily:day:7", "hourly:hour:24"}

		if err := applyPolicyOverrides(baseConfig()); err == nil {
			t.Error("out-of-order tier override should fail validation")
		}
	})
}
