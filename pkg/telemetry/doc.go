// Package telemetry provides observability for snapvault.
//
// # Components
//
//   - logging: structured slog setup (level, format)
//   - metrics: Prometheus metrics for retention cycles and pruning
//   - health: liveness and readiness endpoints for daemon mode
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	collector := metrics.NewCollector("snapvault", nil)
//	collector.ObserveCycle("complete", false, duration, keptPerTier, bytes, report)
package telemetry
