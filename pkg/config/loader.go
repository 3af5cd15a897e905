package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every structured environment override.
const EnvPrefix = "RICHIEAT_"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. .env in the working directory, if present
//  3. YAML config file (explicit path, RICHIEAT_CONFIG env, ./config.yaml, /etc/richieat/config.yaml)
//  4. RICHIEAT_* environment variables
//  5. Legacy environment variable names
//  6. File reference resolution (_file suffix)
//  7. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	// Apply backward-compatible environment variable overrides.
	applyLegacyEnv(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports the variables of a .env file that are not already set
// in the process environment. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. RICHIEAT_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/richieat/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("RICHIEAT_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/richieat/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv overlays RICHIEAT_* variables, for example
// RICHIEAT_SERVER_PORT or RICHIEAT_STORAGE_POSTGRES_DSN. Unset variables
// leave the current value alone.
func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// applyLegacyEnv maps the variable names used by earlier deployments.
// They win over everything else, matching how those deployments were run.
func applyLegacyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("NODE_ENV"); v != "" {
		cfg.Server.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("JWT_EXPIRE"); v != "" {
		if ttl, ok := parseLegacyDuration(v); ok {
			cfg.Auth.TokenTTL = ttl
		}
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Server.AllowedOrigins = appendUnique(cfg.Server.AllowedOrigins, v)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("MONGODB_URI")
	}
	if dsn != "" && isPostgresDSN(dsn) {
		cfg.Storage.Type = "postgres"
		cfg.Storage.Postgres.DSN = dsn
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// auth.jwt_secret_file -> auth.jwt_secret
	if cfg.Auth.JWTSecretFile != "" && cfg.Auth.JWTSecret == "" {
		val, err := readSecretFile(cfg.Auth.JWTSecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt_secret_file: %w", err)
		}
		cfg.Auth.JWTSecret = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseLegacyDuration accepts Go durations plus the day suffix ("7d").
func parseLegacyDuration(s string) (time.Duration, bool) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, false
		}
		return time.Duration(n) * 24 * time.Hour, true
	}
	d, err := time.ParseDuration(s)
	return d, err == nil && d > 0
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
