package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// devJWTSecret is used outside production when no secret is configured.
	devJWTSecret = "thepom-dev-secret-change-me"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 3000
	defaultShutdownTimeout = "30s"
	defaultMaxBodySize     = 1 << 20
	defaultJWTExpiresIn    = "24h"
	defaultLoginRateLimit  = 20
	defaultDatabaseURL     = "sqlite://thepom.db"
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = "30m"
)

var defaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:3001"}

// Settings is the resolved runtime configuration.
type Settings struct {
	Env             string
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	MaxBodySize     int64
	CORSOrigins     []string

	JWTSecret string
	// JWTExpiresIn is the raw suffix-coded token lifetime, e.g. "24h" or "7d".
	JWTExpiresIn   string
	LoginRateLimit int
	// InsecureSecret is set when the built-in development secret is in use.
	InsecureSecret bool

	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	SessionSweepInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Production reports whether the server runs in production mode.
func (s *Settings) Production() bool {
	return s.Env == EnvProduction
}

// Bind registers defaults and environment bindings on v. Keys are read
// from THEPOM_-prefixed variables (THEPOM_SERVER_PORT) and, for the
// settings most deployments already export, from their bare names.
func Bind(v *viper.Viper) {
	d := DefaultFileConfig()
	v.SetDefault("env", d.Env)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)
	v.SetDefault("server.cors.origins", d.Server.CORS.Origins)
	v.SetDefault("auth.jwt_expires_in", d.Auth.JWTExpiresIn)
	v.SetDefault("auth.login_rate_limit", d.Auth.LoginRateLimit)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.pool.max_open_conns", d.Database.Pool.MaxOpenConns)
	v.SetDefault("database.pool.max_idle_conns", d.Database.Pool.MaxIdleConns)
	v.SetDefault("database.pool.conn_max_lifetime", d.Database.Pool.ConnMaxLifetime)
	v.SetDefault("sessions.sweep_interval", d.Sessions.SweepInterval)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix("THEPOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("env", "THEPOM_ENV", "APP_ENV")
	v.BindEnv("server.port", "THEPOM_SERVER_PORT", "PORT")
	v.BindEnv("server.cors.origins", "THEPOM_SERVER_CORS_ORIGINS", "CORS_ORIGIN")
	v.BindEnv("auth.jwt_secret", "THEPOM_AUTH_JWT_SECRET", "JWT_SECRET")
	v.BindEnv("auth.jwt_expires_in", "THEPOM_AUTH_JWT_EXPIRES_IN", "JWT_EXPIRES_IN")
	v.BindEnv("database.url", "THEPOM_DATABASE_URL", "DATABASE_URL")
}

// Load resolves Settings from v, which must have been prepared with Bind.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Env:            strings.ToLower(strings.TrimSpace(v.GetString("env"))),
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		MaxBodySize:    v.GetInt64("server.max_body_size"),
		CORSOrigins:    splitList(v.GetStringSlice("server.cors.origins")),
		JWTSecret:      v.GetString("auth.jwt_secret"),
		JWTExpiresIn:   v.GetString("auth.jwt_expires_in"),
		LoginRateLimit: v.GetInt("auth.login_rate_limit"),
		DatabaseURL:    v.GetString("database.url"),
		MaxOpenConns:   v.GetInt("database.pool.max_open_conns"),
		MaxIdleConns:   v.GetInt("database.pool.max_idle_conns"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
	}
	if s.Env == "" {
		s.Env = EnvDevelopment
	}

	var err error
	if s.ShutdownTimeout, err = duration(v, "server.shutdown_timeout"); err != nil {
		return nil, err
	}
	if s.ConnMaxLifetime, err = duration(v, "database.pool.conn_max_lifetime"); err != nil {
		return nil, err
	}
	if s.SessionSweepInterval, err = duration(v, "sessions.sweep_interval"); err != nil {
		return nil, err
	}

	if s.Port <= 0 || s.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", s.Port)
	}
	if s.JWTSecret == "" {
		if s.Production() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		s.JWTSecret = devJWTSecret
		s.InsecureSecret = true
	}
	return s, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// NewLogger builds the process logger. Format is "text" or "json"; debug
// forces the debug level.
func NewLogger(w io.Writer, level, format string, debug bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if debug {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
