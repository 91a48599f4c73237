package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/thepom/thepom/internal/config"
	"github.com/thepom/thepom/internal/service"
	"github.com/thepom/thepom/internal/store"
)

// app bundles what every command needs once configuration is resolved.
type app struct {
	settings *config.Settings
	logger   *slog.Logger
	store    *store.Store
}

// loadSettings resolves configuration from flags, file and environment.
func loadSettings() (*config.Settings, error) {
	s, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return s, nil
}

func newLogger(s *config.Settings) *slog.Logger {
	return config.NewLogger(os.Stderr, s.LogLevel, s.LogFormat, devMode)
}

// openApp loads settings and opens the database. Callers must Close it.
func openApp(opts ...store.Option) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger := newLogger(settings)

	opts = append([]store.Option{store.WithPool(store.PoolConfig{
		MaxOpenConns:    settings.MaxOpenConns,
		MaxIdleConns:    settings.MaxIdleConns,
		ConnMaxLifetime: settings.ConnMaxLifetime,
	})}, opts...)

	st, err := store.Open(settings.DatabaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &app{settings: settings, logger: logger, store: st}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) authService() (*service.AuthService, error) {
	expiry, err := service.ParseExpiry(a.settings.JWTExpiresIn)
	if err != nil {
		return nil, err
	}
	return service.NewAuthService(a.store, a.settings.JWTSecret, expiry, a.logger), nil
}

// promptPassword reads a password twice from the terminal without echo.
func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}
