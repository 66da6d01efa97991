package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
	"github.com/snapvault-io/snapvault/pkg/verify"
)

var verifyFlags struct {
	all bool
}

var verifyCmd = &cobra.Command{
	Use:   "verify [snapshot-id]",
	Short: "Verify snapshot integrity",
	Long: `Recompute and compare content checksums for one snapshot or for every
active snapshot. A mismatch marks the snapshot Corrupt; a successful
check refreshes its verification timestamp.

Examples:
  # Verify one snapshot
  snapvault verify 2f1c9a3e-...

  # Verify every active snapshot
  snapvault verify --all`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyFlags.all, "all", false, "verify every active snapshot")
}

func runVerify(cmd *cobra.Command, args []string) error {
	if !verifyFlags.all && len(args) != 1 {
		return fmt.Errorf("provide a snapshot ID or --all")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var snaps []*snapshot.Snapshot
	if verifyFlags.all {
		snaps, err = a.registry.List(ctx, snapshot.StatusActive)
		if err != nil {
			return err
		}
	} else {
		snap, err := a.registry.Get(ctx, args[0])
		if err != nil {
			return err
		}
		snaps = append(snaps, snap)
	}

	var mismatches, unreadable int
	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := a.verifier.Verify(ctx, snap)
		switch result.Code {
		case verify.CodeOk:
			if err := a.registry.SetVerifiedAt(ctx, snap.ID, time.Now().UTC()); err != nil {
				return err
			}
			fmt.Printf("ok         %s\n", snap.ID)
		case verify.CodeMismatch:
			mismatches++
			if snap.Status == snapshot.StatusActive {
				if err := a.registry.MarkCorrupt(ctx, snap.ID); err != nil {
					return err
				}
			}
			fmt.Printf("MISMATCH   %s  expected=%s actual=%s\n", snap.ID, result.Expected, result.Actual)
		case verify.CodeUnreadable:
			unreadable++
			fmt.Printf("UNREADABLE %s  %v\n", snap.ID, result.Err)
		}
	}

	fmt.Printf("verified %d snapshot(s): %d ok, %d mismatched, %d unreadable\n",
		len(snaps), len(snaps)-mismatches-unreadable, mismatches, unreadable)
	if mismatches > 0 || unreadable > 0 {
		return fmt.Errorf("%d snapshot(s) failed verification", mismatches+unreadable)
	}
	return nil
}
