package main

import (
	"context"
	"fmt"
	"os"

	"github.com/snapvault-io/snapvault/pkg/config"
	"github.com/snapvault-io/snapvault/pkg/orchestrator"
	"github.com/snapvault-io/snapvault/pkg/prune"
	"github.com/snapvault-io/snapvault/pkg/snapshot"
	"github.com/snapvault-io/snapvault/pkg/snapshot/registry"
	"github.com/snapvault-io/snapvault/pkg/storage"
	"github.com/snapvault-io/snapvault/pkg/telemetry/health"
	"github.com/snapvault-io/snapvault/pkg/telemetry/metrics"
	"github.com/snapvault-io/snapvault/pkg/verify"
)

// app bundles the wired components for one CLI invocation.
type app struct {
	cfg      *config.Config
	registry snapshot.Registry
	backend  *storage.FSBackend
	verifier *verify.Verifier
	executor *prune.Executor
	leaser   *orchestrator.SQLiteLeaser
	metrics  *metrics.Collector
}

// newApp wires all components from the configuration. Callers must
// invoke close when done.
func newApp(cfg *config.Config, withMetrics bool) (*app, error) {
	backend, err := storage.NewFSBackend(cfg.Storage.Root)
	if err != nil {
		return nil, err
	}

	reg, err := registry.NewSQLiteRegistry(&registry.SQLiteConfig{
		Path:         cfg.Registry.Path,
		MaxOpenConns: cfg.Registry.MaxOpenConns,
		MaxIdleConns: cfg.Registry.MaxIdleConns,
		WALMode:      cfg.Registry.WALMode == nil || *cfg.Registry.WALMode,
		BusyTimeout:  cfg.Registry.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}

	verifier := verify.NewVerifier(backend, &verify.Config{
		Timeout:         cfg.Verify.Timeout,
		FreshnessWindow: cfg.Verify.FreshnessWindow,
	})

	executor := prune.NewExecutor(reg, backend, verifier, &prune.Config{
		DeleteTimeout: cfg.Prune.DeleteTimeout,
	})

	leaser, err := orchestrator.NewSQLiteLeaser(cfg.Cycle.LeasePath)
	if err != nil {
		reg.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		registry: reg,
		backend:  backend,
		verifier: verifier,
		executor: executor,
		leaser:   leaser,
	}
	if withMetrics {
		a.metrics = metrics.NewCollector(cfg.Telemetry.Metrics.Namespace, nil)
	}
	return a, nil
}

// orchestrator builds the cycle orchestrator over the wired components.
func (a *app) orchestrator() (*orchestrator.Orchestrator, error) {
	return orchestrator.New(
		a.registry,
		a.verifier,
		a.executor,
		a.leaser,
		a.cfg.Retention.Policy(),
		a.cfg.Quota.Policy(),
		&orchestrator.Config{LeaseTTL: a.cfg.Cycle.LeaseTTL},
		a.metrics,
	)
}

// healthChecker builds the daemon readiness checker over the wired
// components.
func (a *app) healthChecker() *health.Checker {
	checker := health.New(0)
	checker.Register("registry", func(ctx context.Context) error {
		_, err := a.registry.Count(ctx, snapshot.StatusActive)
		return err
	})
	checker.Register("storage", func(ctx context.Context) error {
		info, err := os.Stat(a.backend.Root())
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("storage root %s is not a directory", a.backend.Root())
		}
		return nil
	})
	return checker
}

func (a *app) close() {
	a.leaser.Close()
	a.registry.Close()
}
