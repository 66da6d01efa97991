package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

var listFlags struct {
	status string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered snapshots",
	Long: `List snapshot metadata from the registry, newest last.

Examples:
  # Every snapshot, including pruned audit rows
  snapvault list

  # Only live snapshots
  snapvault list --status active`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listFlags.status, "status", "", "filter by status (active, pruned, corrupt)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	var statuses []snapshot.Status
	if listFlags.status != "" {
		status := snapshot.Status(listFlags.status)
		if !status.Valid() {
			return fmt.Errorf("unknown status %q (want active, pruned, or corrupt)", listFlags.status)
		}
		statuses = append(statuses, status)
	}

	snaps, err := a.registry.List(cmd.Context(), statuses...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSIZE\tSTATUS\tTIER\tLABEL")
	for _, snap := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			snap.ID,
			snap.CreatedAt.Format(time.RFC3339),
			snap.SizeBytes,
			snap.Status,
			snap.ClaimedTier,
			snap.Label,
		)
	}
	return w.Flush()
}
