package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// AuthDecision represents the three possible outcomes of authentication.
type AuthDecision int

const (
	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes AuthDecision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request is rejected.
	No

	// Abstain means this authenticator cannot handle the credentials type.
	// The chain continues to the next authenticator.
	Abstain
)

// AuthResult carries the outcome of an authentication attempt.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity // populated only when Decision == Yes
	Err      error     // populated only when Decision == No
}

// Identity represents an authenticated advisor.
type Identity struct {
	// Subject is the advisor ID (required, non-empty).
	Subject string

	// TokenID is the unique ID of the presented token, if any.
	TokenID string
}

// Authenticator examines request credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

// Sentinel errors.
var (
	// ErrUnauthenticated means no usable credentials were presented.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrTokenInvalid means a bearer token was malformed, carried a bad
	// signature, or failed claim validation.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired means a bearer token was well formed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// AuthChain evaluates authenticators left to right. The first Yes or No
// wins; a chain where every member abstains rejects with ErrUnauthenticated.
type AuthChain struct {
	Authenticators []Authenticator
}

// Authenticate runs the chain.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		if result := authn.Authenticate(ctx, r); result.Decision != Abstain {
			return result
		}
	}
	return AuthResult{Decision: No, Err: ErrUnauthenticated}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. ok is false when the header is absent or uses another scheme.
// The scheme name is matched case-insensitively.
func BearerToken(r *http.Request) (token string, ok bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
