// Package integration provides integration tests for the richieat API.
//
// Tests run against a real richieat HTTP server with the in-memory store,
// started in-process using net/http/httptest.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/richieat/richieat/pkg/advisor"
	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/auth/jwt"
	"github.com/richieat/richieat/pkg/auth/password"
	"github.com/richieat/richieat/pkg/clients"
	"github.com/richieat/richieat/pkg/storage/memory"
	transporthttp "github.com/richieat/richieat/pkg/transport/http"
)

// testEnv holds the shared server for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the richieat server and its token issuer.
type TestEnvironment struct {
	Server *httptest.Server
	Issuer *jwt.Issuer
}

// TestMain starts the server before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// setupTestEnvironment wires the production stack around a memory store.
func setupTestEnvironment() *TestEnvironment {
	issuer, err := jwt.New(jwt.Config{Secret: "integration-secret-integration-secret"})
	if err != nil {
		panic(fmt.Sprintf("creating issuer: %v", err))
	}
	hasher, err := password.New(bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("creating hasher: %v", err))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()

	adapter, err := transporthttp.NewAdapter(transporthttp.Services{
		Advisors:      advisor.New(store, issuer, hasher, advisor.WithLogger(logger)),
		Clients:       clients.New(store, clients.WithLogger(logger)),
		Authenticator: issuer,
		Health:        store,
	}, transporthttp.DefaultConfig(), logger)
	if err != nil {
		panic(fmt.Sprintf("creating adapter: %v", err))
	}

	return &TestEnvironment{
		Server: httptest.NewServer(adapter.Handler()),
		Issuer: issuer,
	}
}

// Teardown stops the server.
func (env *TestEnvironment) Teardown() {
	if env.Server != nil {
		env.Server.Close()
	}
}

// BaseURL returns the richieat server base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.Server.URL
}

// --- HTTP helpers ---

// doJSON sends a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, testEnv.BaseURL()+path, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}

// decodeJSON decodes the response body into v and closes it.
func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// uniqueEmail returns an address no other test uses.
func uniqueEmail(t *testing.T) string {
	return fmt.Sprintf("%s@example.com", sanitize(t.Name()))
}

func sanitize(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+'a'-'A')
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}

// register creates an advisor with a fresh email and returns its session.
func register(t *testing.T) api.AuthResponse {
	t.Helper()
	resp := doJSON(t, http.MethodPost, "/api/auth/register", "", api.RegisterRequest{
		FirstName: "Test",
		LastName:  "Advisor",
		Email:     uniqueEmail(t),
		Password:  "correct-horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var out api.AuthResponse
	decodeJSON(t, resp, &out)
	return out
}
