package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/client"
	"github.com/richieat/richieat/pkg/debug"
)

// API is the part of the REST surface the Store drives. *client.Client
// implements it.
type API interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Profile(ctx context.Context, token string) (*api.Advisor, error)
	Logout(ctx context.Context, token string) error
}

// Result is the outcome of Login or Register. Failures are reported here
// rather than as errors.
type Result struct {
	Success bool
	Message string
}

// Messages shown through the Notifier.
const (
	msgLoginOK        = "Login successful"
	msgLoginFailed    = "Login failed"
	msgRegisterOK     = "Registration successful"
	msgRegisterFailed = "Registration failed"
	msgLoggedOut      = "Logged out"
)

// purgeTimeout bounds clearing persisted state once the caller's context
// is gone.
const purgeTimeout = 5 * time.Second

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where user-facing messages go.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		s.notify = n
	}
}

// WithLogger sets the logger for persistence and network failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Store is the authentication context. It is safe for concurrent use.
// Concurrent Login and Register calls are not merged: whichever response is
// applied last decides the state.
type Store struct {
	persist Persistence
	api     API
	notify  Notifier
	logger  *slog.Logger

	// emitMu serializes transitions so subscribers see them in order.
	emitMu sync.Mutex

	mu      sync.Mutex
	state   State
	token   string
	subs    map[uint64]func(State)
	nextSub uint64
}

// New creates a Store in the checking state. Call Init before use.
func New(p Persistence, a API, opts ...Option) *Store {
	s := &Store{
		persist: p,
		api:     a,
		notify:  discardNotifier{},
		logger:  slog.New(slog.DiscardHandler),
		state:   State{Loading: true, Status: StatusChecking},
		subs:    make(map[uint64]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Token returns the bearer token of the current session, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers fn to receive a snapshot after every transition and
// returns a function that removes it. fn runs synchronously on the goroutine
// making the transition and must not call Init, Login, Register or Logout.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Init re-checks persisted state against the server. A persisted advisor is
// restored optimistically while the profile request is in flight.
func (s *Store) Init(ctx context.Context) {
	s.update("", func(st *State) {
		*st = State{Loading: true, Status: StatusChecking}
	})

	user, corrupt := s.loadUser(ctx)
	if corrupt {
		s.purge(ctx)
		s.signOut()
		return
	}
	if user != nil {
		s.updateKeepToken(func(st *State) {
			st.User = user
		})
	}

	token, ok, err := s.persist.Get(ctx, KeyToken)
	if err != nil {
		s.logger.Warn("reading persisted token failed", "error", err)
	}
	if !ok || token == "" {
		if user != nil {
			s.purge(ctx)
		}
		s.signOut()
		return
	}

	profile, err := s.api.Profile(ctx, token)
	if err != nil {
		s.logger.Debug("session check failed", "error", err)
		s.purge(ctx)
		s.signOut()
		return
	}

	s.save(ctx, token, profile)
	s.signIn(token, profile)
}

// Login signs in with email and password.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	resp, err := s.api.Login(ctx, api.LoginRequest{Email: email, Password: password})
	return s.finish(ctx, resp, err, msgLoginOK, msgLoginFailed)
}

// Register creates an account and signs in with it.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) Result {
	resp, err := s.api.Register(ctx, req)
	return s.finish(ctx, resp, err, msgRegisterOK, msgRegisterFailed)
}

// Logout ends the session. The server call is best effort; persisted state
// is cleared and the store signs out whatever it returns.
func (s *Store) Logout(ctx context.Context) {
	if token := s.Token(); token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			s.logger.Warn("server logout failed", "error", err)
		}
	}
	s.purge(ctx)
	s.signOut()
	s.notify.Notify(NoticeSuccess, msgLoggedOut)
}

func (s *Store) finish(ctx context.Context, resp *api.AuthResponse, err error, okMsg, failMsg string) Result {
	if err == nil && (resp == nil || resp.Token == "" || resp.Advisor == nil) {
		err = errors.New("incomplete auth response")
	}
	if err != nil {
		msg := failureMessage(err, failMsg)
		s.notify.Notify(NoticeError, msg)
		return Result{Success: false, Message: msg}
	}

	s.save(ctx, resp.Token, resp.Advisor)
	s.signIn(resp.Token, resp.Advisor)
	s.notify.Notify(NoticeSuccess, okMsg)
	return Result{Success: true, Message: okMsg}
}

// failureMessage prefers the server's message over the generic fallback.
func failureMessage(err error, fallback string) string {
	var apiErr *client.Error
	if errors.As(err, &apiErr) && apiErr.Response.Message != "" {
		return apiErr.Response.Message
	}
	return fallback
}

// loadUser reads the persisted advisor. corrupt is true when a value is
// present but does not decode.
func (s *Store) loadUser(ctx context.Context) (user *api.Advisor, corrupt bool) {
	raw, ok, err := s.persist.Get(ctx, KeyUser)
	if err != nil {
		s.logger.Warn("reading persisted user failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var u api.Advisor
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == "" {
		return nil, true
	}
	return &u, false
}

func (s *Store) save(ctx context.Context, token string, user *api.Advisor) {
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Warn("encoding user failed", "error", err)
		return
	}
	if err := s.persist.Set(ctx, KeyToken, token); err != nil {
		s.logger.Warn("persisting token failed", "error", err)
	}
	if err := s.persist.Set(ctx, KeyUser, string(data)); err != nil {
		s.logger.Warn("persisting user failed", "error", err)
	}
}

// purge clears the persisted session. It runs detached from ctx so that a
// cancelled or timed out caller still leaves nothing on disk.
func (s *Store) purge(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), purgeTimeout)
	defer cancel()
	if err := s.persist.Delete(ctx, KeyToken, KeyUser); err != nil {
		s.logger.Warn("clearing persisted session failed", "error", err)
	}
}

func (s *Store) signIn(token string, user *api.Advisor) {
	s.update(token, func(st *State) {
		*st = State{User: user, IsAuthenticated: true, Status: StatusAuthenticated}
	})
}

func (s *Store) signOut() {
	s.update("", func(st *State) {
		*st = State{Status: StatusUnauthenticated}
	})
}

// updateKeepToken changes the state without touching the token.
func (s *Store) updateKeepToken(fn func(*State)) {
	s.apply(func() { fn(&s.state) })
}

// update sets the token and changes the state.
func (s *Store) update(token string, fn func(*State)) {
	s.apply(func() {
		s.token = token
		fn(&s.state)
	})
}

func (s *Store) apply(mutate func()) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	mutate()
	snap := s.state
	subs := slices.Collect(maps.Values(s.subs))
	s.mu.Unlock()

	debug.Log("session", "state changed",
		"status", snap.Status,
		"authenticated", snap.IsAuthenticated,
		"loading", snap.Loading,
	)

	for _, fn := range subs {
		fn(snap.clone())
	}
}
