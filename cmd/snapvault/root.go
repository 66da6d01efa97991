package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapvault-io/snapvault/pkg/config"
	"github.com/snapvault-io/snapvault/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "snapvault",
	Short: "Snapvault - tiered snapshot retention with integrity checking",
	Long: `Snapvault decides which point-in-time snapshots to keep and which to
delete, under a grandfather-father-son retention policy and a hard
storage quota, verifying content checksums before trusting or pruning
any snapshot.

Retention cycles are dry-run by default: nothing is deleted until you
pass --apply.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads and validates the configuration, then wires the
// default logger from its telemetry section.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	if err := logging.Setup(logging.Config{
		Level:  level,
		Format: cfg.Telemetry.Logging.Format,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}
