package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richieat/richieat/pkg/api"
)

// slowProfileAPI blocks the session check until release is closed.
type slowProfileAPI struct {
	fakeAPI
	release chan struct{}
}

func (s *slowProfileAPI) Profile(ctx context.Context, token string) (*api.Advisor, error) {
	<-s.release
	return s.fakeAPI.Profile(ctx, token)
}

func TestGateRendersNothingWhileChecking(t *testing.T) {
	g := NewGate(New(NewMemoryState(), &fakeAPI{}))

	viewed, redirected := false, false
	status := g.Render(func() { viewed = true }, func() { redirected = true })

	assert.Equal(t, StatusChecking, status)
	assert.False(t, viewed)
	assert.False(t, redirected)
}

func TestGateRedirectsWhenSignedOut(t *testing.T) {
	s := New(NewMemoryState(), &fakeAPI{})
	s.Init(context.Background())
	g := NewGate(s)

	viewed, redirected := false, false
	status := g.Render(func() { viewed = true }, func() { redirected = true })

	assert.Equal(t, StatusUnauthenticated, status)
	assert.False(t, viewed)
	assert.True(t, redirected)
}

func TestGateRendersViewWhenSignedIn(t *testing.T) {
	s := New(NewMemoryState(), &fakeAPI{loginResp: authResp("tok", ada)})
	s.Init(context.Background())
	require.True(t, s.Login(context.Background(), "ada@example.com", "pw").Success)
	g := NewGate(s)

	viewed := false
	status := g.Render(func() { viewed = true }, nil)

	assert.Equal(t, StatusAuthenticated, status)
	assert.True(t, viewed)
}

func TestGateWaitResolvesAfterCheck(t *testing.T) {
	mem := NewMemoryState()
	require.NoError(t, mem.Set(context.Background(), KeyToken, "tok"))
	slow := &slowProfileAPI{fakeAPI: fakeAPI{profile: ada}, release: make(chan struct{})}
	s := New(mem, slow)
	g := NewGate(s)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Init(context.Background())
	}()

	close(slow.release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status, err := g.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, status)
	<-done
}

func TestGateWaitHonorsContext(t *testing.T) {
	g := NewGate(New(NewMemoryState(), &fakeAPI{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	status, err := g.Wait(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusChecking, status)
}
