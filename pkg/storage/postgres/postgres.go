// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling; email uniqueness is enforced by a
// unique index on lower(email).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/debug"
	"github.com/richieat/richieat/pkg/observability"
	"github.com/richieat/richieat/pkg/storage"
)

// uniqueViolation is the SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool      *pgxpool.Pool
	cfg       Config
	logger    *slog.Logger
	connected atomic.Bool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration, making a
// single connection attempt. If MigrateOnStart is true, schema migrations
// are applied automatically.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}
	return open(ctx, poolCfg, cfg, logger)
}

// Connect is New with retries: it keeps attempting to connect with a fixed
// delay between attempts until it succeeds or ctx is cancelled. An invalid
// DSN fails immediately. Every failed attempt and the final success are logged.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		s, err := open(ctx, poolCfg, cfg, logger)
		if err == nil {
			logger.Info("database connected", "attempt", attempt)
			return s, nil
		}

		logger.Warn("database connection failed",
			"attempt", attempt,
			"retry_in", cfg.RetryDelay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connecting to database: %w", ctx.Err())
		case <-time.After(cfg.RetryDelay):
		}
	}
}

func parseConfig(cfg Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	return poolCfg, nil
}

func open(ctx context.Context, poolCfg *pgxpool.Config, cfg Config, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg.Copy())
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, cfg: cfg, logger: logger}
	s.connected.Store(true)
	s.setUp(true)

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Monitor pings the database every interval until ctx is cancelled, logging
// the transitions between connected and disconnected. The pool re-dials on
// demand, so a successful ping after an outage is the reconnect.
func (s *Store) Monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.HealthCheck(ctx)
		}
	}
}

// Connected reports the result of the most recent connectivity probe.
func (s *Store) Connected() bool {
	return s.connected.Load()
}

// HealthCheck verifies the database connection and records the result.
func (s *Store) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.PingTimeout)
	defer cancel()

	err := s.pool.Ping(pingCtx)
	if err != nil && ctx.Err() != nil {
		// Caller gave up; says nothing about the database.
		return err
	}
	was := s.connected.Swap(err == nil)
	s.setUp(err == nil)
	debug.Log("storage", "ping", "connected", err == nil, "total_conns", s.pool.Stat().TotalConns())
	switch {
	case err != nil && was:
		s.logger.Error("database disconnected", "error", err)
	case err == nil && !was:
		s.logger.Info("database reconnected")
	}
	return err
}

func (s *Store) setUp(up bool) {
	if up {
		observability.DatabaseUp.Set(1)
	} else {
		observability.DatabaseUp.Set(0)
	}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// CreateAdvisor inserts an advisor row.
func (s *Store) CreateAdvisor(ctx context.Context, a *api.Advisor) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO advisors (
			id, email, password_hash, first_name, last_name, phone, firm,
			created_at, updated_at, last_login_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		a.ID, api.NormalizeEmail(a.Email), a.PasswordHash, a.FirstName, a.LastName,
		a.Phone, a.Firm, a.CreatedAt, a.UpdatedAt, a.LastLoginAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting advisor: %w", err)
	}
	return nil
}

const advisorColumns = `id, email, password_hash, first_name, last_name, phone, firm,
	created_at, updated_at, last_login_at`

// GetAdvisor retrieves an advisor by ID.
func (s *Store) GetAdvisor(ctx context.Context, id string) (*api.Advisor, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+advisorColumns+" FROM advisors WHERE id = $1", id)
	return scanAdvisor(row)
}

// GetAdvisorByEmail retrieves an advisor by email, case-insensitively.
func (s *Store) GetAdvisorByEmail(ctx context.Context, email string) (*api.Advisor, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+advisorColumns+" FROM advisors WHERE lower(email) = $1",
		api.NormalizeEmail(email),
	)
	return scanAdvisor(row)
}

// TouchLastLogin records the last successful login.
func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	result, err := s.pool.Exec(ctx, "UPDATE advisors SET last_login_at = $1 WHERE id = $2", at, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanAdvisor(row pgx.Row) (*api.Advisor, error) {
	var a api.Advisor
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Phone, &a.Firm,
		&a.CreatedAt, &a.UpdatedAt, &a.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying advisor: %w", err)
	}
	return &a, nil
}

// CreateClient inserts a client row.
func (s *Store) CreateClient(ctx context.Context, c *api.Client) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clients (
			id, advisor_id, first_name, last_name, email, phone,
			status, risk_profile, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		c.ID, c.AdvisorID, c.FirstName, c.LastName, c.Email, c.Phone,
		string(c.Status), string(c.RiskProfile), c.Notes, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting client: %w", err)
	}
	return nil
}

const clientColumns = `id, advisor_id, first_name, last_name, email, phone,
	status, risk_profile, notes, created_at, updated_at`

// GetClient retrieves a client owned by advisorID.
func (s *Store) GetClient(ctx context.Context, advisorID, id string) (*api.Client, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = $1 AND advisor_id = $2",
		id, advisorID,
	)
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying client: %w", err)
	}
	return c, nil
}

// ListClients returns the advisor's clients, newest first.
func (s *Store) ListClients(ctx context.Context, advisorID string, filter storage.ClientFilter) ([]*api.Client, error) {
	query := "SELECT " + clientColumns + " FROM clients WHERE advisor_id = $1"
	args := []any{advisorID}

	if filter.Status != "" {
		query += " AND status = $2"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	clients := []*api.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}
	return clients, nil
}

// UpdateClient replaces the mutable fields of a client.
func (s *Store) UpdateClient(ctx context.Context, c *api.Client) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE clients SET
			first_name = $1, last_name = $2, email = $3, phone = $4,
			status = $5, risk_profile = $6, notes = $7, updated_at = $8
		WHERE id = $9 AND advisor_id = $10
	`,
		c.FirstName, c.LastName, c.Email, c.Phone,
		string(c.Status), string(c.RiskProfile), c.Notes, c.UpdatedAt,
		c.ID, c.AdvisorID,
	)
	if err != nil {
		return fmt.Errorf("updating client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteClient removes a client owned by advisorID.
func (s *Store) DeleteClient(ctx context.Context, advisorID, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1 AND advisor_id = $2", id, advisorID)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (*api.Client, error) {
	var c api.Client
	var status, risk string
	err := row.Scan(
		&c.ID, &c.AdvisorID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&status, &risk, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = api.ClientStatus(status)
	c.RiskProfile = api.RiskProfile(risk)
	return &c, nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
