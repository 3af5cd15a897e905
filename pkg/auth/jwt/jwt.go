// Package jwt issues and verifies the HS256 bearer tokens that identify
// advisors on protected routes.
//
// Tokens carry the advisor ID as the subject, an issued-at and an expiry
// time, the configured issuer, and a random token ID. A token is rejected
// once the current time reaches its expiry.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/richieat/richieat/pkg/auth"
)

// DefaultIssuer is used when Config.Issuer is empty.
const DefaultIssuer = "richieat"

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 24 * time.Hour

// Errors returned by Verify. They are the auth package sentinels so the
// middleware and handlers can classify failures without importing this
// package.
var (
	ErrTokenInvalid = auth.ErrTokenInvalid
	ErrTokenExpired = auth.ErrTokenExpired
)

// Config holds the token signing configuration.
type Config struct {
	// Secret is the HMAC signing key. Required.
	Secret string

	// Issuer is written to and required in the iss claim. Default: "richieat".
	Issuer string

	// TTL is the token validity period. Default: 24h.
	TTL time.Duration
}

func (c *Config) applyDefaults() {
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
}

// Claims are the claims carried by an advisor token.
type Claims struct {
	jwtlib.RegisteredClaims
}

// Issuer signs and verifies advisor tokens. It also acts as an
// auth.Authenticator for bearer tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// New creates an Issuer. It fails when no secret is configured.
func New(cfg Config, opts ...Option) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: signing secret is required")
	}
	cfg.applyDefaults()
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("jwt: ttl must be positive, got %s", cfg.TTL)
	}

	i := &Issuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the configured token validity period.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a new token for the advisor. The returned expiry is the exp
// claim at second precision.
func (i *Issuer) Issue(advisorID string) (string, time.Time, error) {
	if advisorID == "" {
		return "", time.Time{}, errors.New("jwt: advisor id is required")
	}

	now := i.now()
	iat := jwtlib.NewNumericDate(now)
	exp := jwtlib.NewNumericDate(now.Add(i.ttl))

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   advisorID,
			Issuer:    i.issuer,
			IssuedAt:  iat,
			ExpiresAt: exp,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: signing token: %w", err)
	}
	return signed, exp.Time, nil
}

// Verify checks the token's signature, algorithm, issuer, and expiry and
// returns the advisor ID it was issued for.
func (i *Issuer) Verify(tokenStr string) (string, error) {
	claims, err := i.parse(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (i *Issuer) parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}

	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(i.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

// Authenticate validates the request's bearer token.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: bearer token present but invalid or expired
//   - Yes: valid token with populated Identity
func (i *Issuer) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	tokenStr, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	claims, err := i.parse(tokenStr)
	if err != nil {
		slog.Debug("token validation failed", "error", err)
		return auth.AuthResult{Decision: auth.No, Err: err}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject: claims.Subject,
			TokenID: claims.ID,
		},
	}
}
