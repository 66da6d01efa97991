package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/snapvault-io/snapvault/pkg/config"
	"github.com/snapvault-io/snapvault/pkg/orchestrator"
	"github.com/snapvault-io/snapvault/pkg/retention"
	"github.com/snapvault-io/snapvault/pkg/telemetry/health"
)

var runFlags struct {
	apply         bool
	daemon        bool
	tiers         []string
	maxTotalBytes int64
	maxCount      int64
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a retention cycle (dry-run by default)",
	Long: `Run one retention cycle: evaluate the tiered retention policy over all
active snapshots, enforce the storage quota, and report or apply the
resulting prune decisions.

Without --apply the cycle is a dry run: every decision is made and
reported, but nothing is deleted.

Examples:
  # Preview the next cycle
  snapvault run

  # Apply the policy
  snapvault run --apply

  # Override the quota for this invocation
  snapvault run --apply --max-total-bytes 107374182400

  # Override the tier list (name:granularity:count, finest first)
  snapvault run --tier hourly:hour:24 --tier daily:day:7 --tier weekly:week:4

  # Run as a daemon with scheduled cycles
  snapvault run --daemon --apply`,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.apply, "apply", false, "apply prune decisions (default is dry-run)")
	runCmd.Flags().BoolVar(&runFlags.daemon, "daemon", false, "run scheduled cycles until interrupted")
	runCmd.Flags().StringArrayVar(&runFlags.tiers, "tier", nil,
		"override retention tier as name:granularity:count (repeatable, finest first)")
	runCmd.Flags().Int64Var(&runFlags.maxTotalBytes, "max-total-bytes", -1, "override quota byte cap (0 for unlimited)")
	runCmd.Flags().Int64Var(&runFlags.maxCount, "max-count", -1, "override quota count cap (0 for unlimited)")
}

func runCycle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyPolicyOverrides(cfg); err != nil {
		return err
	}

	a, err := newApp(cfg, runFlags.daemon && cfg.Telemetry.Metrics.Enabled)
	if err != nil {
		return err
	}
	defer a.close()

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runFlags.daemon {
		return runDaemon(ctx, cfg, a, orch)
	}

	summary, err := orch.Run(ctx, !runFlags.apply)
	if summary != nil {
		summary.Render(os.Stdout)
	}
	if err != nil {
		return err
	}
	if summary.State == orchestrator.StateFailed {
		return fmt.Errorf("cycle %s finished with failures", summary.CycleID)
	}
	return nil
}

// runDaemon runs scheduled cycles until interrupted, with an optional
// metrics listener and config watcher.
func runDaemon(ctx context.Context, cfg *config.Config, a *app, orch *orchestrator.Orchestrator) error {
	scheduler := orchestrator.NewScheduler(orch, cfg.Cycle.Schedule, !runFlags.apply)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	if a.metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		health.Mount(mux, a.healthChecker(), Version, GitCommit, BuildDate)
		server := &http.Server{Addr: cfg.Telemetry.Metrics.ListenAddress, Handler: mux}
		go func() {
			slog.Info("metrics listener started", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics listener failed", "error", err)
			}
		}()
		defer server.Close()
	}

	if cfg.Cycle.WatchConfig {
		watcher := config.NewWatcher(cfgFile, 0)
		go func() {
			err := watcher.Watch(ctx, func() error {
				fresh, err := config.LoadConfigWithEnvOverrides(cfgFile)
				if err != nil {
					return err
				}
				// Policy swaps land between cycles, never mid-cycle.
				return orch.SetPolicies(fresh.Retention.Policy(), fresh.Quota.Policy())
			})
			if err != nil {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
	}

	if next := scheduler.NextRun(); next != nil {
		slog.Info("daemon started", "next_cycle", next.String(), "apply", runFlags.apply)
	}

	<-ctx.Done()
	slog.Info("daemon shutting down")
	return nil
}

// applyPolicyOverrides folds --tier and quota flags into the loaded
// configuration, re-validating the result.
func applyPolicyOverrides(cfg *config.Config) error {
	if runFlags.maxTotalBytes >= 0 {
		cfg.Quota.MaxTotalBytes = runFlags.maxTotalBytes
	}
	if runFlags.maxCount >= 0 {
		cfg.Quota.MaxCount = runFlags.maxCount
	}

	if len(runFlags.tiers) > 0 {
		tiers := make([]config.TierConfig, 0, len(runFlags.tiers))
		for _, spec := range runFlags.tiers {
			tier, err := parseTierFlag(spec)
			if err != nil {
				return err
			}
			tiers = append(tiers, tier)
		}
		cfg.Retention.Tiers = tiers
	}

	return config.Validate(cfg)
}

// parseTierFlag parses "name:granularity:count" where count is a
// non-negative integer or "unlimited".
func parseTierFlag(spec string) (config.TierConfig, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return config.TierConfig{}, fmt.Errorf("invalid --tier %q: want name:granularity:count", spec)
	}

	count := retention.KeepUnlimited
	if parts[2] != "unlimited" {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 0 {
			return config.TierConfig{}, fmt.Errorf("invalid --tier %q: count must be a non-negative integer or \"unlimited\"", spec)
		}
		count = n
	}

	return config.TierConfig{
		Name:        parts[0],
		Granularity: parts[1],
		KeepCount:   config.KeepCount(count),
	}, nil
}
