// Package memory provides an in-memory implementation of storage.Store for
// testing and lightweight deployments. Records are lost when the process
// restarts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/storage"
)

// Store is an in-memory storage.Store. Values are copied on the way in and
// out, so callers never share memory with the store.
type Store struct {
	mu       sync.RWMutex
	advisors map[string]*api.Advisor // id -> advisor
	byEmail  map[string]string       // normalized email -> id
	clients  map[string]*api.Client  // id -> client
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		advisors: make(map[string]*api.Advisor),
		byEmail:  make(map[string]string),
		clients:  make(map[string]*api.Client),
	}
}

// CreateAdvisor inserts an advisor. The email index check and the insert
// happen under one lock, so concurrent registrations of the same email
// yield exactly one record.
func (s *Store) CreateAdvisor(_ context.Context, a *api.Advisor) error {
	email := api.NormalizeEmail(a.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return storage.ErrConflict
	}
	if _, exists := s.advisors[a.ID]; exists {
		return storage.ErrConflict
	}

	cp := copyAdvisor(a)
	cp.Email = email
	s.advisors[cp.ID] = cp
	s.byEmail[email] = cp.ID
	return nil
}

// GetAdvisor retrieves an advisor by ID.
func (s *Store) GetAdvisor(_ context.Context, id string) (*api.Advisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.advisors[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyAdvisor(a), nil
}

// GetAdvisorByEmail retrieves an advisor by email.
func (s *Store) GetAdvisorByEmail(_ context.Context, email string) (*api.Advisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[api.NormalizeEmail(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyAdvisor(s.advisors[id]), nil
}

// TouchLastLogin records the last successful login.
func (s *Store) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.advisors[id]
	if !ok {
		return storage.ErrNotFound
	}
	a.LastLoginAt = &at
	return nil
}

// CreateClient inserts a client record.
func (s *Store) CreateClient(_ context.Context, c *api.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[c.ID]; exists {
		return storage.ErrConflict
	}
	cp := *c
	s.clients[c.ID] = &cp
	return nil
}

// GetClient retrieves a client owned by advisorID.
func (s *Store) GetClient(_ context.Context, advisorID, id string) (*api.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok || c.AdvisorID != advisorID {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// ListClients returns the advisor's clients, newest first.
func (s *Store) ListClients(_ context.Context, advisorID string, filter storage.ClientFilter) ([]*api.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []*api.Client{}
	for _, c := range s.clients {
		if c.AdvisorID != advisorID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		cp := *c
		matches = append(matches, &cp)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	return matches, nil
}

// UpdateClient replaces a stored client. The owner cannot change.
func (s *Store) UpdateClient(_ context.Context, c *api.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.clients[c.ID]
	if !ok || existing.AdvisorID != c.AdvisorID {
		return storage.ErrNotFound
	}
	cp := *c
	cp.CreatedAt = existing.CreatedAt
	s.clients[c.ID] = &cp
	return nil
}

// DeleteClient removes a client owned by advisorID.
func (s *Store) DeleteClient(_ context.Context, advisorID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok || c.AdvisorID != advisorID {
		return storage.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func copyAdvisor(a *api.Advisor) *api.Advisor {
	cp := *a
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}
