package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapvault-io/snapvault/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report any validation errors without touching the registry or
storage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Configuration valid (%d retention tiers)\n", len(cfg.Retention.Tiers))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
