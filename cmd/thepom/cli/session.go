package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thepom/thepom/internal/service"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Maintain admin sessions",
		Long:  "Remove expired admin sessions or revoke every session of one admin.",
	}

	cmd.AddCommand(newSessionCleanupCmd())
	cmd.AddCommand(newSessionRevokeCmd())

	return cmd
}

// ---------- session cleanup ----------

func newSessionCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired admin sessions",
		Long: `Delete every admin session whose expiry has passed. Suitable for cron.

A missing admin_sessions table or a database error is logged and reported as
zero deletions. Other failures exit non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionCleanup(cmd.Context())
		},
	}
}

func runSessionCleanup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := service.NewSessionCleaner(a.store, a.logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired session(s)\n", n)
	return nil
}

// ---------- session revoke ----------

func newSessionRevokeCmd() *cobra.Command {
	var adminID int64

	cmd := &cobra.Command{
		Use:     "revoke",
		Short:   "Delete every session of one admin",
		Example: `  thepom session revoke --admin-id 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionRevoke(cmd.Context(), adminID)
		},
	}

	cmd.Flags().Int64Var(&adminID, "admin-id", 0, "Admin id (required)")
	cmd.MarkFlagRequired("admin-id")

	return cmd
}

func runSessionRevoke(ctx context.Context, adminID int64) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if adminID <= 0 {
		return fmt.Errorf("admin-id must be positive")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := service.NewSessionCleaner(a.store, a.logger).RevokeAll(ctx, adminID)
	if err != nil {
		return err
	}
	fmt.Printf("Revoked %d session(s) for admin %d\n", n, adminID)
	return nil
}
