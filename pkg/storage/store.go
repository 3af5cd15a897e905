package storage

import (
	"context"
	"time"

	"github.com/richieat/richieat/pkg/api"
)

// AdvisorStore persists advisor accounts.
type AdvisorStore interface {
	// CreateAdvisor inserts a new advisor. Returns ErrConflict if the email
	// (compared case-insensitively) or the ID is already taken.
	CreateAdvisor(ctx context.Context, a *api.Advisor) error

	// GetAdvisor retrieves an advisor by ID.
	GetAdvisor(ctx context.Context, id string) (*api.Advisor, error)

	// GetAdvisorByEmail retrieves an advisor by normalized email.
	GetAdvisorByEmail(ctx context.Context, email string) (*api.Advisor, error)

	// TouchLastLogin records a successful login time.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// ClientFilter narrows ListClients results.
type ClientFilter struct {
	Status api.ClientStatus // empty matches every status
}

// ClientStore persists client records. Every method is scoped to the owning
// advisor; a client owned by another advisor is reported as ErrNotFound.
type ClientStore interface {
	CreateClient(ctx context.Context, c *api.Client) error
	GetClient(ctx context.Context, advisorID, id string) (*api.Client, error)

	// ListClients returns the advisor's clients, newest first.
	ListClients(ctx context.Context, advisorID string, filter ClientFilter) ([]*api.Client, error)

	// UpdateClient replaces the mutable fields of an existing client.
	UpdateClient(ctx context.Context, c *api.Client) error
	DeleteClient(ctx context.Context, advisorID, id string) error
}

// Store is the full persistence contract used by the server.
type Store interface {
	AdvisorStore
	ClientStore

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases connections and resources.
	Close() error
}
