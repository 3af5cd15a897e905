package jwt

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/richieat/richieat/pkg/auth"
)

const testSecret = "test-secret-with-enough-entropy"

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestIssuer(t *testing.T, cfg Config) (*Issuer, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	if cfg.Secret == "" {
		cfg.Secret = testSecret
	}
	i, err := New(cfg, WithClock(clock.now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return i, clock
}

func TestNew_RequiresSecret(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	i, clock := newTestIssuer(t, Config{})

	token, exp, err := i.Issue("advisor-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := clock.t.Add(DefaultTTL); !exp.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", exp, want)
	}

	sub, err := i.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "advisor-1" {
		t.Errorf("subject = %q, want advisor-1", sub)
	}
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	i, _ := newTestIssuer(t, Config{})

	a, _, _ := i.Issue("advisor-1")
	b, _, _ := i.Issue("advisor-1")
	if a == b {
		t.Error("two tokens issued in the same second should differ by jti")
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	i, clock := newTestIssuer(t, Config{TTL: time.Hour})
	start := clock.t

	token, _, err := i.Issue("advisor-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.t = start.Add(time.Hour - time.Second)
	if _, err := i.Verify(token); err != nil {
		t.Errorf("one second before expiry: %v", err)
	}

	clock.t = start.Add(time.Hour)
	_, err = i.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("at expiry: err = %v, want ErrTokenExpired", err)
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Error("expired token should not also be reported as invalid")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	i, _ := newTestIssuer(t, Config{})
	other, _ := newTestIssuer(t, Config{Secret: "another-secret"})

	token, _, _ := other.Issue("advisor-1")
	if _, err := i.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	i, _ := newTestIssuer(t, Config{})
	other, _ := newTestIssuer(t, Config{Issuer: "someone-else"})

	token, _, _ := other.Issue("advisor-1")
	if _, err := i.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	i, clock := newTestIssuer(t, Config{})

	claims := jwtlib.RegisteredClaims{
		Subject:   "advisor-1",
		Issuer:    DefaultIssuer,
		ExpiresAt: jwtlib.NewNumericDate(clock.t.Add(time.Hour)),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := i.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("HS512 token: err = %v, want ErrTokenInvalid", err)
	}

	none := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims)
	unsigned, _ := none.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if _, err := i.Verify(unsigned); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("alg=none token: err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_MissingExpiry(t *testing.T) {
	i, _ := newTestIssuer(t, Config{})

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject: "advisor-1",
		Issuer:  DefaultIssuer,
	})
	signed, _ := token.SignedString([]byte(testSecret))

	if _, err := i.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	i, _ := newTestIssuer(t, Config{})

	for _, tok := range []string{"", "not-a-jwt", "a.b.c", strings.Repeat("x", 300)} {
		if _, err := i.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify(%q) err = %v, want ErrTokenInvalid", tok, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	i, clock := newTestIssuer(t, Config{TTL: time.Minute})
	token, _, _ := i.Issue("advisor-7")

	t.Run("no header abstains", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/clients", nil)
		if got := i.Authenticate(context.Background(), r); got.Decision != auth.Abstain {
			t.Errorf("Decision = %d, want Abstain", got.Decision)
		}
	})

	t.Run("other scheme abstains", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/clients", nil)
		r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		if got := i.Authenticate(context.Background(), r); got.Decision != auth.Abstain {
			t.Errorf("Decision = %d, want Abstain", got.Decision)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/clients", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		got := i.Authenticate(context.Background(), r)
		if got.Decision != auth.Yes {
			t.Fatalf("Decision = %d, want Yes (err %v)", got.Decision, got.Err)
		}
		if got.Identity.Subject != "advisor-7" {
			t.Errorf("Subject = %q, want advisor-7", got.Identity.Subject)
		}
		if got.Identity.TokenID == "" {
			t.Error("TokenID should be populated from jti")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		clock.t = clock.t.Add(2 * time.Minute)
		r := httptest.NewRequest("GET", "/api/clients", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		got := i.Authenticate(context.Background(), r)
		if got.Decision != auth.No {
			t.Fatalf("Decision = %d, want No", got.Decision)
		}
		if !errors.Is(got.Err, auth.ErrTokenExpired) {
			t.Errorf("Err = %v, want ErrTokenExpired", got.Err)
		}
	})
}
