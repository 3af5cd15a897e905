package config

import (
	"errors"
	"fmt"
	"strings"
)

// minSecretLength is the shortest JWT secret accepted in production.
const minSecretLength = 32

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be in range.
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Server.Mode {
	case ModeDevelopment, ModeProduction:
		// valid
	default:
		errs = append(errs, fmt.Errorf("server.mode must be %q or %q, got %q", ModeDevelopment, ModeProduction, c.Server.Mode))
	}

	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	for i, o := range c.Server.AllowedOrigins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("server.allowed_origins[%d] must start with http:// or https://, got %q", i, o))
		}
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
		if c.Storage.Postgres.RetryDelay <= 0 {
			errs = append(errs, fmt.Errorf("storage.postgres.retry_delay must be > 0"))
		}
		if c.Storage.Postgres.MonitorInterval <= 0 {
			errs = append(errs, fmt.Errorf("storage.postgres.monitor_interval must be > 0"))
		}
	}

	// A production server must carry a real signing secret.
	if c.Server.Mode == ModeProduction {
		switch {
		case c.Auth.JWTSecret == "":
			errs = append(errs, fmt.Errorf("auth.jwt_secret or auth.jwt_secret_file is required in production"))
		case len(c.Auth.JWTSecret) < minSecretLength:
			errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d characters in production", minSecretLength))
		}
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be > 0, got %s", c.Auth.TokenTTL))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}

	if c.Security.FailureThreshold <= 0 {
		errs = append(errs, fmt.Errorf("security.failure_threshold must be > 0, got %d", c.Security.FailureThreshold))
	}
	if c.Security.FailureWindow <= 0 {
		errs = append(errs, fmt.Errorf("security.failure_window must be > 0, got %s", c.Security.FailureWindow))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be trace, debug, info, warn or error, got %q", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "", "text", "json":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with /, got %q", c.Observability.Metrics.Path))
	}

	return errors.Join(errs...)
}
