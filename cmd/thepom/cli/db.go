package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Inspect the database connection",
		Long:    "Check connectivity to the configured database and report on the admin tables.",
	}

	cmd.AddCommand(newDBCheckCmd())

	return cmd
}

// ---------- db check ----------

func newDBCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ping the database and report whether sessions are enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBCheck(cmd.Context())
		},
	}
}

func runDBCheck(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	if err := a.store.Ping(ctx); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	fmt.Printf("Database: %s (ping %s)\n", a.store.Dialect(), time.Since(start).Round(time.Millisecond))

	hasSessions, err := a.store.SessionTableExists(ctx)
	switch {
	case err != nil:
		fmt.Printf("Sessions: unknown (%v)\n", err)
	case hasSessions:
		fmt.Println("Sessions: enabled")
	default:
		fmt.Println("Sessions: disabled (admin_sessions table missing, token-only authentication)")
	}
	return nil
}
