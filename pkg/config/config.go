package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for vantage-console.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, signing keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Application database (PostgreSQL) holding queries, menus, users, roles
	Database DatabaseConfig `yaml:"database"`

	// Reporting datasource the saved queries run against
	Reporting ReportingConfig `yaml:"reporting"`

	// Authentication and session configuration
	Auth AuthConfig `yaml:"auth"`

	// Export behavior
	Export ExportConfig `yaml:"export"`

	// MigrationsPath is the directory containing SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// DatabaseConfig holds PostgreSQL application database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"vantage"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"vantage_console"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
}

// ReportingConfig points at the database the saved report SQL executes
// against. It is distinct from the application database and may use a
// different engine.
type ReportingConfig struct {
	// Driver selects the dialect: "postgres" or "sqlserver".
	Driver string `yaml:"driver" env:"REPORTING_DRIVER" env-default:"postgres"`
	DSN    string `yaml:"-" env:"REPORTING_DSN"` // Secret - not in YAML
}

// AuthConfig holds token and session settings.
type AuthConfig struct {
	// JWTSecret verifies access tokens shared with the identity tier.
	// Server refuses to start without it.
	JWTSecret string `yaml:"-" env:"AUTH_JWT_SECRET"`

	// SessionSecret authenticates the UI preference cookie.
	SessionSecret string `yaml:"-" env:"AUTH_SESSION_SECRET"`

	// BootstrapUser and BootstrapPassword create the first admin account
	// when no active admin exists. Leave the password empty to disable.
	BootstrapUser     string `yaml:"bootstrap_user" env:"AUTH_BOOTSTRAP_USER" env-default:"admin"`
	BootstrapPassword string `yaml:"-" env:"AUTH_BOOTSTRAP_PASSWORD"` // Secret - not in YAML
}

// ExportConfig bounds server-side exports.
type ExportConfig struct {
	// ExcelTimeout bounds current-view excel exports. Complete-dataset
	// exports are never bounded here.
	ExcelTimeout time.Duration `yaml:"excel_timeout" env:"EXPORT_EXCEL_TIMEOUT" env-default:"45s"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set")
	}
	if cfg.Auth.SessionSecret == "" {
		return nil, fmt.Errorf("AUTH_SESSION_SECRET must be set")
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string for the
// application database.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}
