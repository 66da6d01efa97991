package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

var registerFlags struct {
	ref       string
	label     string
	createdAt string
	checksum  string
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a captured snapshot artifact",
	Long: `Register an artifact already placed under the storage root as a new
Active snapshot. Size is read from storage; the checksum is computed
from the content unless the capture step supplied one.

Examples:
  # Register a fresh capture
  snapvault register --ref daily/app-2026-08-30.dump

  # Backfill an older capture with its original timestamp
  snapvault register --ref archive/app-2026-01-01.dump --created-at 2026-01-01T03:00:00Z`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVar(&registerFlags.ref, "ref", "", "storage reference relative to the storage root (required)")
	registerCmd.Flags().StringVar(&registerFlags.label, "label", "", "optional label")
	registerCmd.Flags().StringVar(&registerFlags.createdAt, "created-at", "", "capture time (RFC 3339, default now)")
	registerCmd.Flags().StringVar(&registerFlags.checksum, "checksum", "", "precomputed SHA-256 hex digest (computed from content when omitted)")
	registerCmd.MarkFlagRequired("ref")
}

func runRegister(cmd *cobra.Command, args []string) error {
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

	createdAt := time.Now().UTC()
	if registerFlags.createdAt != "" {
		createdAt, err = time.Parse(time.RFC3339, registerFlags.createdAt)
		if err != nil {
			return fmt.Errorf("invalid --created-at %q: %w", registerFlags.createdAt, err)
		}
		createdAt = createdAt.UTC()
	}

	size, err := a.backend.Stat(ctx, registerFlags.ref)
	if err != nil {
		return err
	}

	checksum := registerFlags.checksum
	if checksum == "" {
		checksum, err = a.verifier.Checksum(ctx, registerFlags.ref)
		if err != nil {
			return err
		}
	}

	snap := &snapshot.Snapshot{
		ID:         uuid.New().String(),
		CreatedAt:  createdAt,
		SizeBytes:  size,
		Checksum:   checksum,
		Status:     snapshot.StatusActive,
		Label:      registerFlags.label,
		Location:   registerFlags.ref,
		VerifiedAt: time.Now().UTC(),
	}
	if err := a.registry.Register(ctx, snap); err != nil {
		return err
	}

	fmt.Printf("registered %s (%d bytes, %s)\n", snap.ID, snap.SizeBytes, snap.Checksum[:12])
	return nil
}
