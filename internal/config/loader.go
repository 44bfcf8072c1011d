package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/example/event-planner/internal/logging"
)

// Driver selects the selection persistence backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Config captures environment driven configuration values for the planner service.
type Config struct {
	HTTPPort       int
	StoreDriver    Driver
	SQLiteDSN      string
	PostgresDSN    string
	CatalogPath    string
	CatalogRefresh string
	Location       *time.Location
	LogLevel       slog.Level
	BasicAuthUser  string
	BasicAuthHash  string
	SelectionKey   string
}

// BasicAuthEnabled reports whether the API requires credentials.
func (c Config) BasicAuthEnabled() bool {
	return c.BasicAuthUser != "" && c.BasicAuthHash != ""
}

// Load parses configuration values from the current process environment,
// after merging a .env file from the working directory when one exists.
//
// Optional fields fall back to defaults; every missing or invalid key is
// reported in a single error.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv without touching .env files.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPPort:     8080,
		StoreDriver:  DriverSQLite,
		SQLiteDSN:    "file:planner.db",
		Location:     time.Local,
		LogLevel:     slog.LevelInfo,
		SelectionKey: "myEvents",
	}

	get := func(key string) string { return strings.TrimSpace(getenv(key)) }
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := get("PLANNER_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PLANNER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := get("PLANNER_STORE_DRIVER"); driver != "" {
		switch Driver(strings.ToLower(driver)) {
		case DriverSQLite, DriverPostgres, DriverMemory:
			cfg.StoreDriver = Driver(strings.ToLower(driver))
		default:
			invalid = append(invalid, "PLANNER_STORE_DRIVER")
		}
	}

	if dsn := get("PLANNER_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	cfg.PostgresDSN = get("PLANNER_POSTGRES_DSN")
	if cfg.StoreDriver == DriverPostgres && cfg.PostgresDSN == "" {
		missing = append(missing, "PLANNER_POSTGRES_DSN")
	}

	cfg.CatalogPath = get("PLANNER_CATALOG_PATH")
	if refresh := get("PLANNER_CATALOG_REFRESH"); refresh != "" {
		if _, err := cron.ParseStandard(refresh); err != nil {
			invalid = append(invalid, "PLANNER_CATALOG_REFRESH")
		} else if cfg.CatalogPath == "" {
			missing = append(missing, "PLANNER_CATALOG_PATH")
		} else {
			cfg.CatalogRefresh = refresh
		}
	}

	if tz := get("PLANNER_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "PLANNER_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if levelValue := get("PLANNER_LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "PLANNER_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	cfg.BasicAuthUser = get("PLANNER_BASIC_AUTH_USER")
	cfg.BasicAuthHash = get("PLANNER_BASIC_AUTH_HASH")
	switch {
	case cfg.BasicAuthUser != "" && cfg.BasicAuthHash == "":
		missing = append(missing, "PLANNER_BASIC_AUTH_HASH")
	case cfg.BasicAuthUser == "" && cfg.BasicAuthHash != "":
		missing = append(missing, "PLANNER_BASIC_AUTH_USER")
	}

	if key := get("PLANNER_SELECTION_KEY"); key != "" {
		cfg.SelectionKey = key
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
