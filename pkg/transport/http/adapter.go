package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/richieat/richieat/pkg/advisor"
	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/auth"
	"github.com/richieat/richieat/pkg/clients"
	"github.com/richieat/richieat/pkg/observability"
	"github.com/richieat/richieat/pkg/storage"
	"github.com/richieat/richieat/pkg/transport"
)

// HealthChecker reports storage connectivity for the health probe.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// connectionState is implemented by stores that track connectivity in the
// background. The probe then reads the last known flag instead of pinging.
type connectionState interface {
	Connected() bool
}

// Adapter serves the richieat REST API over HTTP.
// It routes requests to the services and serializes responses.
type Adapter struct {
	advisors *advisor.Service
	clients  *clients.Service
	authn    auth.Authenticator
	health   HealthChecker
	errors   *transport.ErrorHandler
	pipeline *transport.Pipeline
	mux      *http.ServeMux
	logger   *slog.Logger
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	// Environment is reported by the health probe ("development" or
	// "production"). Development also exposes internal error messages and
	// allows the local frontend origins.
	Environment string

	// StorageType is reported by the health probe.
	StorageType string

	MaxBodySize    int64
	AllowedOrigins []string
	Security       transport.SecurityConfig

	MetricsEnabled bool
	MetricsPath    string

	// StartedAt anchors the uptime reported by the health probe.
	StartedAt time.Time
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Environment:    "development",
		StorageType:    "memory",
		MaxBodySize:    transport.DefaultMaxBodySize,
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}
}

// Development reports whether the adapter runs in development mode.
func (c Config) Development() bool {
	return c.Environment != "production"
}

// Services groups the dependencies of the adapter.
type Services struct {
	Advisors *advisor.Service
	Clients  *clients.Service

	// Authenticator validates bearer tokens on protected routes.
	Authenticator auth.Authenticator

	// Health reports storage connectivity. Optional.
	Health HealthChecker
}

// NewAdapter creates an HTTP adapter and builds its request pipeline.
func NewAdapter(svc Services, cfg Config, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = time.Now()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	eh := transport.NewErrorHandler(logger, cfg.Development())
	pipeline, err := transport.NewStandardPipeline(transport.StandardConfig{
		Logger:       logger,
		ErrorHandler: eh,
		CORS: transport.CORSConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			Development:    cfg.Development(),
		},
		Security:    cfg.Security,
		MaxBodySize: cfg.MaxBodySize,
		Metrics:     cfg.MetricsEnabled,
	})
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		advisors: svc.Advisors,
		clients:  svc.Clients,
		authn:    svc.Authenticator,
		health:   svc.Health,
		errors:   eh,
		pipeline: pipeline,
		mux:      http.NewServeMux(),
		logger:   logger,
		config:   cfg,
	}

	chain := &auth.AuthChain{
		Authenticators: []auth.Authenticator{svc.Authenticator},
	}
	protected := auth.Middleware(chain, a.denyAuth, logger)

	a.mux.Handle("GET /{$}", a.handle(a.handleHealth))
	if cfg.MetricsEnabled {
		a.mux.Handle("GET "+cfg.MetricsPath, observability.Handler())
	}

	a.mux.Handle("POST /api/auth/login", a.handle(a.handleLogin))
	a.mux.Handle("POST /api/auth/register", a.handle(a.handleRegister))
	a.mux.Handle("GET /api/auth/profile", protected(a.handle(a.handleProfile)))
	a.mux.Handle("POST /api/auth/logout", protected(a.handle(a.handleLogout)))

	a.mux.Handle("GET /api/clients", protected(a.handle(a.handleListClients)))
	a.mux.Handle("POST /api/clients", protected(a.handle(a.handleCreateClient)))
	a.mux.Handle("GET /api/clients/{id}", protected(a.handle(a.handleGetClient)))
	a.mux.Handle("PUT /api/clients/{id}", protected(a.handle(a.handleUpdateClient)))
	a.mux.Handle("DELETE /api/clients/{id}", protected(a.handle(a.handleDeleteClient)))

	a.mux.Handle("/", a.handle(a.handleNotFound))

	logger.Debug("request pipeline assembled", "stages", pipeline.String())
	return a, nil
}

// Handler returns the http.Handler for this adapter, wrapped in the request
// pipeline. Use this to integrate with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.pipeline.Then(a.mux)
}

func (a *Adapter) handle(fn transport.HandlerFunc) http.Handler {
	return transport.Handle(a.errors, fn)
}

// denyAuth answers a failed authentication with a 401 carrying a machine code.
func (a *Adapter) denyAuth(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		apiErr = api.NewUnauthorizedError(api.CodeTokenExpired, "Token expired, please log in again")
	case errors.Is(err, auth.ErrTokenInvalid):
		apiErr = api.NewUnauthorizedError(api.CodeTokenInvalid, "Invalid token")
	default:
		apiErr = api.NewUnauthorizedError(api.CodeUnauthenticated, "Authentication required")
	}
	a.errors.Handle(w, r, apiErr)
}

// handleHealth handles GET /.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) error {
	connected := true
	switch h := a.health.(type) {
	case nil:
	case connectionState:
		connected = h.Connected()
	default:
		connected = h.HealthCheck(r.Context()) == nil
	}

	writeJSON(w, http.StatusOK, api.HealthResponse{
		Success:     true,
		Status:      "ok",
		Environment: a.config.Environment,
		Database: api.DatabaseStatus{
			Connected: connected,
			Type:      a.config.StorageType,
		},
		Uptime:    time.Since(a.config.StartedAt).Seconds(),
		RequestID: transport.RequestIDFromContext(r.Context()),
	})
	return nil
}

// handleNotFound answers every unmatched route.
func (a *Adapter) handleNotFound(w http.ResponseWriter, r *http.Request) error {
	return &api.APIError{
		Type:    api.ErrorTypeNotFound,
		Code:    api.CodeRouteNotFound,
		Message: "Route " + r.Method + " " + r.URL.Path + " not found",
	}
}

// decodeJSON decodes the request body into v. The body parser stage has
// already verified the body is valid JSON; this catches type mismatches.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return api.NewMalformedJSONError("request body does not match the expected shape: " + err.Error())
	}
	return nil
}

// requestID returns the request ID for response bodies.
func requestID(r *http.Request) string {
	return transport.RequestIDFromContext(r.Context())
}

// notFound converts storage.ErrNotFound into a 404 with the given message.
func notFound(err error, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError(message)
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	transport.WriteJSON(w, status, v)
}
