package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thepom/thepom/internal/model"
	"github.com/thepom/thepom/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Create, list and seed the administrative users who can sign in to the admin API.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminSeedCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		loginID  string
		password string
		name     string
		system   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  thepom admin create --login-id jdoe --name "Jane Doe" --password secret
  thepom admin create --login-id ops --name Ops --system  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd.Context(), loginID, password, name, system)
		},
	}

	cmd.Flags().StringVar(&loginID, "login-id", "", "Login id (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name (required)")
	cmd.Flags().BoolVar(&system, "system", false, "Create a SYSTEM admin instead of NORMAL")
	cmd.MarkFlagRequired("login-id")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runAdminCreate(ctx context.Context, loginID, password, name string, system bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if password == "" {
		pw, err := promptPassword()
		if err != nil {
			return err
		}
		password = pw
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	admin, err := service.NewAdminService(a.store, a.logger).Create(ctx, service.CreateAdminInput{
		LoginID:  loginID,
		Password: password,
		Name:     name,
		System:   system,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("Created %s admin %q (id %d)\n", admin.AdminType, admin.LoginID, admin.ID)
	return nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd.Context(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(ctx context.Context, jsonOutput bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	admins, err := service.NewAdminService(a.store, a.logger).List(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	if jsonOutput {
		if admins == nil {
			admins = []model.Admin{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Println("No admin users configured. Use 'thepom admin seed' to create the admin account.")
		return nil
	}

	fmt.Printf("%-6s %-20s %-24s %-8s %-8s\n", "ID", "LOGIN ID", "NAME", "TYPE", "DELETED")
	fmt.Printf("%-6s %-20s %-24s %-8s %-8s\n", "--", "--------", "----", "----", "-------")
	for _, ad := range admins {
		deleted := "no"
		if ad.IsDeleted() {
			deleted = "yes"
		}
		fmt.Printf("%-6d %-20s %-24s %-8s %-8s\n", ad.ID, ad.LoginID, ad.Name, ad.AdminType, deleted)
	}

	return nil
}

// ---------- admin seed ----------

func newAdminSeedCmd() *cobra.Command {
	var (
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the reserved SYSTEM admin account if it does not exist",
		Long: fmt.Sprintf(`Create the reserved %q account with the SYSTEM admin type.
Running it again when the account already exists changes nothing.`, model.ReservedLoginID),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminSeed(cmd.Context(), password, name)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password for the admin account (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default \"System Administrator\")")

	return cmd
}

func runAdminSeed(ctx context.Context, password, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	svc := service.NewAdminService(a.store, a.logger)

	// Skip the prompt when there is nothing to create.
	if password == "" {
		existing, err := a.store.GetAdminByLoginID(ctx, model.ReservedLoginID)
		if err == nil && existing != nil {
			fmt.Printf("Admin account %q already exists (id %d)\n", existing.LoginID, existing.ID)
			return nil
		}
		pw, err := promptPassword()
		if err != nil {
			return err
		}
		password = pw
	}

	admin, created, err := svc.Seed(ctx, password, name)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if !created {
		fmt.Printf("Admin account %q already exists (id %d)\n", admin.LoginID, admin.ID)
		return nil
	}
	fmt.Printf("Created admin account %q (id %d)\n", admin.LoginID, admin.ID)
	return nil
}
