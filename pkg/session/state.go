package session

import (
	"context"
	"sync"

	"github.com/richieat/richieat/pkg/api"
)

// Persisted keys. They are always cleared together.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Status is the gate state of a Store.
type Status string

const (
	StatusChecking        Status = "checking"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// State is a snapshot of the authentication context.
type State struct {
	User            *api.Advisor
	IsAuthenticated bool
	Loading         bool
	Status          Status
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Persistence stores string values under the persisted keys.
type Persistence interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes every key given. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// MemoryState is a Persistence that lives only as long as the process.
type MemoryState struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryState returns an empty MemoryState.
func NewMemoryState() *MemoryState {
	return &MemoryState{values: make(map[string]string)}
}

func (m *MemoryState) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryState) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryState) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
