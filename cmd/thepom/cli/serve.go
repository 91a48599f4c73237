package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thepom/thepom/internal/server"
	"github.com/thepom/thepom/internal/service"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP server that exposes the admin login, session and account API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().IntP("port", "p", 3000, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().Duration("session-sweep-interval", 0, "Remove expired sessions on this interval (0 disables)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("sessions.sweep_interval", cmd.Flags().Lookup("session-sweep-interval"))

	return cmd
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	s, logger := a.settings, a.logger
	logger.Info("database connected", "dialect", a.store.Dialect())

	if s.InsecureSecret {
		logger.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	hasSessions, err := a.store.SessionTableExists(ctx)
	switch {
	case err != nil:
		logger.Warn("could not check admin_sessions table", "error", err)
	case !hasSessions:
		logger.Warn("admin_sessions table not found, falling back to token-only authentication")
	}

	authSvc, err := a.authService()
	if err != nil {
		a.Close()
		return err
	}
	adminSvc := service.NewAdminService(a.store, logger)
	cleaner := service.NewSessionCleaner(a.store, logger)

	srv := server.New(server.Config{
		Host:                 s.Host,
		Port:                 s.Port,
		ShutdownTimeout:      s.ShutdownTimeout,
		CORSOrigins:          s.CORSOrigins,
		Production:           s.Production(),
		MaxBodySize:          s.MaxBodySize,
		LoginRateLimit:       s.LoginRateLimit,
		SessionSweepInterval: s.SessionSweepInterval,
	}, a.store, authSvc, adminSvc, cleaner, logger)

	fmt.Printf("→ thepom (%s)\n", s.Env)
	fmt.Printf("→ Listening on http://%s:%d\n", s.Host, s.Port)
	fmt.Printf("→ API:        http://%s:%d/api/v1\n", s.Host, s.Port)
	fmt.Printf("→ Health:     http://%s:%d/health\n", s.Host, s.Port)
	fmt.Println()

	// ListenAndServe closes the store on shutdown.
	return srv.ListenAndServe()
}
