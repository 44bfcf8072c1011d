package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		t.Parallel()

		cfg, err := FromEnv(envMap(nil))
		if err != nil {
			t.Fatalf("FromEnv returned error: %v", err)
		}
		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.StoreDriver != DriverSQLite || cfg.SQLiteDSN != "file:planner.db" {
			t.Fatalf("unexpected default store %q %q", cfg.StoreDriver, cfg.SQLiteDSN)
		}
		if cfg.Location != time.Local || cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("unexpected default zone or level: %v %v", cfg.Location, cfg.LogLevel)
		}
		if cfg.SelectionKey != "myEvents" {
			t.Fatalf("unexpected default selection key %q", cfg.SelectionKey)
		}
		if cfg.BasicAuthEnabled() {
			t.Fatalf("expected basic auth to be disabled by default")
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		t.Parallel()

		cfg, err := FromEnv(envMap(map[string]string{
			"PLANNER_HTTP_PORT":       "9090",
			"PLANNER_STORE_DRIVER":    "Postgres",
			"PLANNER_POSTGRES_DSN":    "postgres://planner@localhost/planner",
			"PLANNER_CATALOG_PATH":    "/etc/planner/catalog.yaml",
			"PLANNER_CATALOG_REFRESH": "*/15 * * * *",
			"PLANNER_TIMEZONE":        "Asia/Kolkata",
			"PLANNER_LOG_LEVEL":       "debug",
			"PLANNER_BASIC_AUTH_USER": "admin",
			"PLANNER_BASIC_AUTH_HASH": "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
			"PLANNER_SELECTION_KEY":   "trip",
		}))
		if err != nil {
			t.Fatalf("FromEnv returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.StoreDriver != DriverPostgres {
			t.Fatalf("unexpected port or driver: %d %q", cfg.HTTPPort, cfg.StoreDriver)
		}
		if cfg.CatalogRefresh != "*/15 * * * *" || cfg.CatalogPath == "" {
			t.Fatalf("unexpected catalog settings %q %q", cfg.CatalogPath, cfg.CatalogRefresh)
		}
		if cfg.Location.String() != "Asia/Kolkata" || cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("unexpected zone or level: %v %v", cfg.Location, cfg.LogLevel)
		}
		if !cfg.BasicAuthEnabled() || cfg.SelectionKey != "trip" {
			t.Fatalf("unexpected auth or key: %+v", cfg)
		}
	})

	t.Run("reports every missing value", func(t *testing.T) {
		t.Parallel()

		_, err := FromEnv(envMap(map[string]string{
			"PLANNER_STORE_DRIVER":    "postgres",
			"PLANNER_BASIC_AUTH_USER": "admin",
		}))
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "missing required environment variables: PLANNER_POSTGRES_DSN, PLANNER_BASIC_AUTH_HASH"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("refresh requires a catalog path", func(t *testing.T) {
		t.Parallel()

		_, err := FromEnv(envMap(map[string]string{"PLANNER_CATALOG_REFRESH": "@hourly"}))
		if err == nil || !strings.Contains(err.Error(), "PLANNER_CATALOG_PATH") {
			t.Fatalf("expected missing catalog path, got %v", err)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Parallel()

		_, err := FromEnv(envMap(map[string]string{
			"PLANNER_HTTP_PORT":       "eighty",
			"PLANNER_STORE_DRIVER":    "redis",
			"PLANNER_TIMEZONE":        "Mars/Olympus",
			"PLANNER_LOG_LEVEL":       "loud",
			"PLANNER_CATALOG_PATH":    "catalog.yaml",
			"PLANNER_CATALOG_REFRESH": "whenever",
		}))
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{"PLANNER_HTTP_PORT", "PLANNER_STORE_DRIVER", "PLANNER_TIMEZONE", "PLANNER_LOG_LEVEL", "PLANNER_CATALOG_REFRESH"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PLANNER_HTTP_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to read working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("PLANNER_HTTP_PORT", "")
	if err := os.Unsetenv("PLANNER_HTTP_PORT"); err != nil {
		t.Fatalf("failed to unset: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 7070 {
		t.Fatalf("expected port from .env, got %d", cfg.HTTPPort)
	}
}
