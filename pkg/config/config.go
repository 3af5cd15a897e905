// Package config provides unified configuration for the richieat server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. Optional .env file (never overrides variables already set)
//  3. YAML config file (discovered or explicitly specified)
//  4. Environment variable overrides (RICHIEAT_ prefix)
//  5. Legacy variable names (PORT, DATABASE_URL, NODE_ENV, JWT_SECRET)
//  6. File reference resolution (_file suffix fields)
//  7. Validation
package config

import "time"

// Server modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config holds all configuration for the richieat server.
type Config struct {
	Server        ServerConfig        `yaml:"server" envPrefix:"SERVER_"`
	Storage       StorageConfig       `yaml:"storage" envPrefix:"STORAGE_"`
	Auth          AuthConfig          `yaml:"auth" envPrefix:"AUTH_"`
	Security      SecurityConfig      `yaml:"security" envPrefix:"SECURITY_"`
	Logging       LoggingConfig       `yaml:"logging" envPrefix:"LOG_"`
	Observability ObservabilityConfig `yaml:"observability" envPrefix:"METRICS_"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"` // default: true
	Path    string `yaml:"path" env:"PATH"`       // default: "/metrics"
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT"`                         // default: 5000
	Mode            string        `yaml:"mode" env:"MODE"`                         // "development" or "production", default: "development"
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`         // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`       // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"` // default: 30s
	MaxBodySize     int64         `yaml:"max_body_size" env:"MAX_BODY_SIZE"`       // default: 10MB
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type" env:"TYPE"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn" env:"DSN"`
	DSNFile         string        `yaml:"dsn_file" env:"DSN_FILE"` // _file variant for dsn
	MaxConns        int32         `yaml:"max_conns" env:"MAX_CONNS"`               // default: 25
	MinConns        int32         `yaml:"min_conns" env:"MIN_CONNS"`               // default: 2
	MigrateOnStart  bool          `yaml:"migrate_on_start" env:"MIGRATE_ON_START"` // default: true
	RetryDelay      time.Duration `yaml:"retry_delay" env:"RETRY_DELAY"`           // default: 5s
	MonitorInterval time.Duration `yaml:"monitor_interval" env:"MONITOR_INTERVAL"` // default: 15s
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTSecretFile string        `yaml:"jwt_secret_file" env:"JWT_SECRET_FILE"` // _file variant for jwt_secret
	Issuer        string        `yaml:"issuer" env:"ISSUER"`                   // default: "richieat"
	TokenTTL      time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`             // default: 24h
	BcryptCost    int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`         // default: 12
}

// SecurityConfig tunes the security log.
type SecurityConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" env:"FAILURE_THRESHOLD"` // default: 5
	FailureWindow    time.Duration `yaml:"failure_window" env:"FAILURE_WINDOW"`       // default: 5m
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // trace, debug, info, warn, error; default: info
	Format string `yaml:"format" env:"FORMAT"` // "text" or "json"; default: text in development, json in production
	Debug  string `yaml:"debug" env:"DEBUG"`   // comma-separated debug categories, e.g. "auth,storage"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            5000,
			Mode:            ModeDevelopment,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     10 << 20,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:        25,
				MinConns:        2,
				MigrateOnStart:  true,
				RetryDelay:      5 * time.Second,
				MonitorInterval: 15 * time.Second,
			},
		},
		Auth: AuthConfig{
			Issuer:     "richieat",
			TokenTTL:   24 * time.Hour,
			BcryptCost: 12,
		},
		Security: SecurityConfig{
			FailureThreshold: 5,
			FailureWindow:    5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Development reports whether the server runs in development mode.
func (c *Config) Development() bool {
	return c.Server.Mode != ModeProduction
}

// LogFormat returns the effective log format.
func (c *Config) LogFormat() string {
	if c.Logging.Format != "" {
		return c.Logging.Format
	}
	if c.Development() {
		return "text"
	}
	return "json"
}
