// Package advisor implements the account flows of the API: login,
// registration, profile lookup and logout.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/auth/password"
	"github.com/richieat/richieat/pkg/storage"
)

// Sentinel errors.
var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrDuplicateEmail is returned when registering an email that already
	// belongs to an advisor.
	ErrDuplicateEmail = errors.New("email already registered")
)

// TokenIssuer signs bearer tokens for an advisor.
type TokenIssuer interface {
	Issue(advisorID string) (token string, expiresAt time.Time, err error)
}

// Session is the result of a successful login or registration.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Advisor   *api.Advisor
}

// Service implements the advisor account flows.
type Service struct {
	store  storage.AdvisorStore
	tokens TokenIssuer
	hasher *password.Hasher
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service.
func New(store storage.AdvisorStore, tokens TokenIssuer, hasher *password.Hasher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, plain string) (*Session, error) {
	if verr := api.ValidateLogin(&api.LoginRequest{Email: email, Password: plain}); verr != nil {
		return nil, verr
	}

	a, err := s.store.GetAdvisorByEmail(ctx, api.NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		_ = s.hasher.CompareDummy(plain)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up advisor: %w", err)
	}

	if err := s.hasher.Compare(a.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.TouchLastLogin(ctx, a.ID, now); err != nil {
		s.logger.Warn("recording last login failed", "advisor_id", a.ID, "error", err)
	} else {
		a.LastLoginAt = &now
	}

	sess, err := s.issue(a)
	if err != nil {
		return nil, err
	}
	s.logger.Info("advisor logged in", "advisor_id", a.ID)
	return sess, nil
}

// Register creates an advisor account and issues a token for it.
func (s *Service) Register(ctx context.Context, req *api.RegisterRequest) (*Session, error) {
	if verr := api.ValidateRegister(req); verr != nil {
		return nil, verr
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &api.Advisor{
		ID:           api.NewID(),
		Email:        api.NormalizeEmail(req.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		Firm:         strings.TrimSpace(req.Firm),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateAdvisor(ctx, a); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("creating advisor: %w", err)
	}

	sess, err := s.issue(a)
	if err != nil {
		return nil, err
	}
	s.logger.Info("advisor registered", "advisor_id", a.ID)
	return sess, nil
}

// Profile returns the advisor's stored profile.
func (s *Service) Profile(ctx context.Context, advisorID string) (*api.Advisor, error) {
	a, err := s.store.GetAdvisor(ctx, advisorID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return a, nil
}

// Logout records a logout. Tokens are not stored server side, so the token
// stays valid until it expires.
func (s *Service) Logout(ctx context.Context, advisorID string) {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "advisor logged out",
		slog.String("advisor_id", advisorID),
	)
}

func (s *Service) issue(a *api.Advisor) (*Session, error) {
	token, exp, err := s.tokens.Issue(a.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp, Advisor: a}, nil
}
