package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the layout of thepom.yaml. Every field can also be set
// from the environment; see Bind.
type FileConfig struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Sessions SessionsConfig `yaml:"sessions"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	MaxBodySize     int64      `yaml:"max_body_size"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig lists the origins accepted in production.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// AuthConfig controls token issuance.
type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	JWTExpiresIn   string `yaml:"jwt_expires_in"`
	LoginRateLimit int    `yaml:"login_rate_limit"`
}

// DatabaseConfig selects the database and its pool.
type DatabaseConfig struct {
	URL  string     `yaml:"url"`
	Pool PoolConfig `yaml:"pool"`
}

// PoolConfig controls the connection pool for MySQL and PostgreSQL.
type PoolConfig struct {
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

// SessionsConfig controls the in-process expired-session sweeper.
type SessionsConfig struct {
	SweepInterval string `yaml:"sweep_interval"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultFileConfig returns a FileConfig pre-filled with the defaults.
// The JWT secret is left empty on purpose so it is supplied per deployment.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ShutdownTimeout: defaultShutdownTimeout,
			MaxBodySize:     defaultMaxBodySize,
			CORS:            CORSConfig{Origins: defaultCORSOrigins},
		},
		Auth: AuthConfig{
			JWTExpiresIn:   defaultJWTExpiresIn,
			LoginRateLimit: defaultLoginRateLimit,
		},
		Database: DatabaseConfig{
			URL: defaultDatabaseURL,
			Pool: PoolConfig{
				MaxOpenConns:    defaultMaxOpenConns,
				MaxIdleConns:    defaultMaxIdleConns,
				ConnMaxLifetime: defaultConnMaxLifetime,
			},
		},
		Sessions: SessionsConfig{SweepInterval: "0s"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// WriteDefaultConfig writes the default configuration to path. An existing
// file is only replaced when force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := yaml.Marshal(DefaultFileConfig())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	header := []byte("# thepom configuration\n# Environment variables override these values, e.g. JWT_SECRET, DATABASE_URL, PORT.\n")
	return os.WriteFile(path, append(header, data...), 0600)
}
