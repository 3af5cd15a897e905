package session

import "context"

// Gate guards protected views. Nothing runs while the Store is checking, so
// a view never flashes for a visitor who turns out to be signed out.
type Gate struct {
	store *Store
}

// NewGate returns a Gate over s.
func NewGate(s *Store) *Gate {
	return &Gate{store: s}
}

// Render runs view when the store is authenticated and fallback (typically
// a redirect to the login screen) when it is not. While checking neither
// runs. The status acted on is returned.
func (g *Gate) Render(view, fallback func()) Status {
	status := g.store.State().Status
	switch status {
	case StatusAuthenticated:
		if view != nil {
			view()
		}
	case StatusUnauthenticated:
		if fallback != nil {
			fallback()
		}
	}
	return status
}

// Wait blocks until the store leaves the checking state or ctx is done.
func (g *Gate) Wait(ctx context.Context) (Status, error) {
	resolved := make(chan Status, 1)
	unsubscribe := g.store.Subscribe(func(st State) {
		if st.Status != StatusChecking {
			select {
			case resolved <- st.Status:
			default:
			}
		}
	})
	defer unsubscribe()

	if status := g.store.State().Status; status != StatusChecking {
		return status, nil
	}

	select {
	case status := <-resolved:
		return status, nil
	case <-ctx.Done():
		return StatusChecking, ctx.Err()
	}
}
