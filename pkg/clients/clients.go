// Package clients implements advisor-scoped management of client records.
package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/storage"
)

// Service manages the clients of the authenticated advisor.
type Service struct {
	store  storage.ClientStore
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(store storage.ClientStore, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the advisor's clients, newest first. An empty status returns
// every client.
func (s *Service) List(ctx context.Context, advisorID string, status api.ClientStatus) ([]*api.Client, error) {
	if status != "" && !status.Valid() {
		return nil, api.NewValidationError("status", "status must be 'onboarding', 'active' or 'inactive'")
	}
	list, err := s.store.ListClients(ctx, advisorID, storage.ClientFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return list, nil
}

// Get returns one client. A client owned by another advisor is reported as
// storage.ErrNotFound.
func (s *Service) Get(ctx context.Context, advisorID, id string) (*api.Client, error) {
	if !api.ValidateID(id) {
		return nil, fmt.Errorf("client %q: %w", id, storage.ErrNotFound)
	}
	c, err := s.store.GetClient(ctx, advisorID, id)
	if err != nil {
		return nil, fmt.Errorf("loading client: %w", err)
	}
	return c, nil
}

// Create validates req and stores a new client owned by the advisor.
func (s *Service) Create(ctx context.Context, advisorID string, req *api.CreateClientRequest) (*api.Client, error) {
	if verr := api.ValidateCreateClient(req); verr != nil {
		return nil, verr
	}

	status := req.Status
	if status == "" {
		status = api.ClientStatusOnboarding
	}

	now := s.now().UTC()
	c := &api.Client{
		ID:          api.NewID(),
		AdvisorID:   advisorID,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       api.NormalizeEmail(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Status:      status,
		RiskProfile: req.RiskProfile,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "client created",
		slog.String("advisor_id", advisorID),
		slog.String("client_id", c.ID),
	)
	return c, nil
}

// Update applies the non-nil fields of req to an existing client.
func (s *Service) Update(ctx context.Context, advisorID, id string, req *api.UpdateClientRequest) (*api.Client, error) {
	if verr := api.ValidateUpdateClient(req); verr != nil {
		return nil, verr
	}

	c, err := s.Get(ctx, advisorID, id)
	if err != nil {
		return nil, err
	}

	req.Apply(c)
	c.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("updating client: %w", err)
	}
	return c, nil
}

// Delete removes a client.
func (s *Service) Delete(ctx context.Context, advisorID, id string) error {
	if !api.ValidateID(id) {
		return fmt.Errorf("client %q: %w", id, storage.ErrNotFound)
	}
	if err := s.store.DeleteClient(ctx, advisorID, id); err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "client deleted",
		slog.String("advisor_id", advisorID),
		slog.String("client_id", id),
	)
	return nil
}
