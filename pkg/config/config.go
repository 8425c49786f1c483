package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	Store     string `yaml:"store"`
	SQLiteDSN string `yaml:"sqlite_dsn"`
	LogLevel  string `yaml:"log_level"`
	Seed      bool   `yaml:"seed"`
}

func Default() Config {
	return Config{
		Store:     StoreMemory,
		SQLiteDSN: ":memory:",
		LogLevel:  "warn",
		Seed:      true,
	}
}

// Load starts from the defaults, applies the YAML file at path when path is
// not empty, then applies LIBRARY_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Store = getEnv("LIBRARY_STORE", cfg.Store)
	cfg.SQLiteDSN = getEnv("LIBRARY_SQLITE_DSN", cfg.SQLiteDSN)
	cfg.LogLevel = getEnv("LIBRARY_LOG_LEVEL", cfg.LogLevel)
	if raw := os.Getenv("LIBRARY_SEED"); raw != "" {
		seed, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid LIBRARY_SEED %q: %w", raw, err)
		}
		cfg.Seed = seed
	}

	return cfg, cfg.Validate()
}

// Validate checks the store kind and log level. The sqlite store only accepts
// in-memory databases: the catalog starts empty on every run and allocates
// ids from B001 and M001.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLiteDSN == "" {
			return errors.New("sqlite store requires a dsn")
		}
		if !inMemoryDSN(c.SQLiteDSN) {
			return fmt.Errorf("sqlite dsn %q is not an in-memory database", c.SQLiteDSN)
		}
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreMemory, StoreSQLite)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel into a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func inMemoryDSN(dsn string) bool {
	return dsn == ":memory:" ||
		strings.HasPrefix(dsn, "file::memory:") ||
		strings.Contains(dsn, "mode=memory")
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
