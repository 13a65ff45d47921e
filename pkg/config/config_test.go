package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig drops a config.yaml into a temp directory and chdirs there
// so Load() finds it.
func writeConfig(t *testing.T, yamlContent string) {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
}

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "test-jwt-secret")
	t.Setenv("AUTH_SESSION_SECRET", "test-session-secret")
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	writeConfig(t, `
port: "3443"
env: "test"
database:
  host: "db.example.com"
  database: "vantage_test"
`)
	setRequiredSecrets(t)
	os.Unsetenv("PGHOST")

	// Set env vars to override YAML values
	t.Setenv("PORT", "4443")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "4443" {
		t.Errorf("expected Port=4443 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}

	// Verify YAML value used for database host (proves YAML was read)
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected Database.Host=db.example.com (from yaml), got %s", cfg.Database.Host)
	}
}

func TestLoad_Defaults(t *testing.T) {
	writeConfig(t, `
env: "test"
database:
  host: "localhost"
`)
	setRequiredSecrets(t)
	os.Unsetenv("PORT")
	os.Unsetenv("REPORTING_DRIVER")
	os.Unsetenv("EXPORT_EXCEL_TIMEOUT")
	os.Unsetenv("AUTH_BOOTSTRAP_USER")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected Port=8080 (default), got %s", cfg.Port)
	}
	if cfg.Reporting.Driver != "postgres" {
		t.Errorf("expected Reporting.Driver=postgres (default), got %s", cfg.Reporting.Driver)
	}
	if got := cfg.Export.ExcelTimeout.Seconds(); got != 45 {
		t.Errorf("expected ExcelTimeout=45s (default), got %v", cfg.Export.ExcelTimeout)
	}
	if cfg.Auth.BootstrapUser != "admin" {
		t.Errorf("expected BootstrapUser=admin (default), got %s", cfg.Auth.BootstrapUser)
	}
	if cfg.MigrationsPath != "migrations" {
		t.Errorf("expected MigrationsPath=migrations (default), got %s", cfg.MigrationsPath)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	_, err = Load("test-version")
	if err == nil {
		t.Error("expected error when config.yaml is missing")
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	writeConfig(t, `
env: "test"
database:
  host: "localhost"
`)
	t.Setenv("AUTH_SESSION_SECRET", "test-session-secret")
	os.Unsetenv("AUTH_JWT_SECRET")

	_, err := Load("test-version")
	if err == nil {
		t.Fatal("expected error when AUTH_JWT_SECRET is unset, got nil")
	}
	if !strings.Contains(err.Error(), "AUTH_JWT_SECRET") {
		t.Errorf("expected error to mention AUTH_JWT_SECRET, got: %v", err)
	}
}

func TestLoad_MissingSessionSecret(t *testing.T) {
	writeConfig(t, `
env: "test"
database:
  host: "localhost"
`)
	t.Setenv("AUTH_JWT_SECRET", "test-jwt-secret")
	os.Unsetenv("AUTH_SESSION_SECRET")

	_, err := Load("test-version")
	if err == nil {
		t.Fatal("expected error when AUTH_SESSION_SECRET is unset, got nil")
	}
}

func TestLoad_SecretsComeFromEnvOnly(t *testing.T) {
	// Secret fields carry yaml:"-" so a config.yaml cannot smuggle them in.
	writeConfig(t, `
env: "test"
database:
  host: "localhost"
  password: "yaml-password"
reporting:
  dsn: "postgres://yaml-dsn"
`)
	setRequiredSecrets(t)
	os.Unsetenv("PGPASSWORD")
	os.Unsetenv("REPORTING_DSN")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Password != "" {
		t.Errorf("expected empty Database.Password, got %s", cfg.Database.Password)
	}
	if cfg.Reporting.DSN != "" {
		t.Errorf("expected empty Reporting.DSN, got %s", cfg.Reporting.DSN)
	}

	t.Setenv("PGPASSWORD", "env-password")
	cfg, err = Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("expected Database.Password=env-password (from env), got %s", cfg.Database.Password)
	}
}

func TestConnectionString(t *testing.T) {
	c := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "vantage",
		Password: "pw",
		Database: "vantage_console",
		SSLMode:  "disable",
	}

	got := c.ConnectionString()
	want := "postgres://vantage:pw@localhost:5432/vantage_console?sslmode=disable"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
