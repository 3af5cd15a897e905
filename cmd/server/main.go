// Command server runs the richieat advisor API.
//
// Configuration is loaded from (in order of precedence):
//
//	RICHIEAT_* environment variables and the legacy PORT, DATABASE_URL,
//	NODE_ENV and JWT_SECRET names
//	config.yaml (explicit path via --config, RICHIEAT_CONFIG, ./config.yaml, /etc/richieat/config.yaml)
//	.env in the working directory
//	built-in defaults
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/richieat/richieat/pkg/advisor"
	"github.com/richieat/richieat/pkg/auth/jwt"
	"github.com/richieat/richieat/pkg/auth/password"
	"github.com/richieat/richieat/pkg/clients"
	"github.com/richieat/richieat/pkg/config"
	"github.com/richieat/richieat/pkg/debug"
	"github.com/richieat/richieat/pkg/storage"
	"github.com/richieat/richieat/pkg/storage/memory"
	"github.com/richieat/richieat/pkg/storage/postgres"
	"github.com/richieat/richieat/pkg/transport"
	transporthttp "github.com/richieat/richieat/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	startedAt := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := debug.Init(os.Stderr, cfg.Logging.Debug, cfg.Logging.Level, cfg.LogFormat())
	debug.Log("config", "configuration loaded",
		"config_file", configPath,
		"storage", cfg.Storage.Type,
		"token_ttl", cfg.Auth.TokenTTL,
		"allowed_origins", cfg.Server.AllowedOrigins,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("no JWT secret configured, using an ephemeral one; sessions end on restart")
	}
	issuer, err := jwt.New(jwt.Config{
		Secret: secret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	hasher, err := password.New(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password hasher: %w", err)
	}

	services := transporthttp.Services{
		Advisors:      advisor.New(store, issuer, hasher, advisor.WithLogger(logger)),
		Clients:       clients.New(store, clients.WithLogger(logger)),
		Authenticator: issuer,
		Health:        store,
	}

	adapter, err := transporthttp.NewAdapter(services, transporthttp.Config{
		Environment:    cfg.Server.Mode,
		StorageType:    cfg.Storage.Type,
		MaxBodySize:    cfg.Server.MaxBodySize,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Security: transport.SecurityConfig{
			FailureThreshold: cfg.Security.FailureThreshold,
			FailureWindow:    cfg.Security.FailureWindow,
		},
		MetricsEnabled: cfg.Observability.Metrics.Enabled,
		MetricsPath:    cfg.Observability.Metrics.Path,
		StartedAt:      startedAt,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating http adapter: %w", err)
	}

	srv := transporthttp.NewServer(adapter,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	)

	logger.Info("starting richieat",
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"storage", cfg.Storage.Type,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	return srv.Run(ctx)
}

// openStore builds the configured store. PostgreSQL is retried until it
// answers or ctx is cancelled, then watched in the background.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		pg := cfg.Storage.Postgres
		store, err := postgres.Connect(ctx, postgres.Config{
			DSN:            pg.DSN,
			MaxConns:       pg.MaxConns,
			MinConns:       pg.MinConns,
			MigrateOnStart: pg.MigrateOnStart,
			RetryDelay:     pg.RetryDelay,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		go store.Monitor(ctx, pg.MonitorInterval)
		return store, nil
	default:
		logger.Info("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
