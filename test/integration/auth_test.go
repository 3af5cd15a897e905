package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/client"
	"github.com/richieat/richieat/pkg/session"
)

func TestRegisterTokenVerifiesToNewAdvisor(t *testing.T) {
	auth := register(t)

	subject, err := testEnv.Issuer.Verify(auth.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if subject != auth.Advisor.ID {
		t.Errorf("token subject = %q, want advisor %q", subject, auth.Advisor.ID)
	}

	resp := doJSON(t, http.MethodGet, "/api/auth/profile", auth.Token, nil)
	var profile api.ProfileResponse
	decodeJSON(t, resp, &profile)
	if profile.Advisor == nil || profile.Advisor.ID != auth.Advisor.ID {
		t.Errorf("profile advisor = %+v, want %q", profile.Advisor, auth.Advisor.ID)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	register(t)

	resp := doJSON(t, http.MethodPost, "/api/auth/register", "", api.RegisterRequest{
		FirstName: "Again",
		LastName:  "Advisor",
		Email:     uniqueEmail(t),
		Password:  "correct-horse",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Code != api.CodeDuplicateEmail {
		t.Errorf("code = %q, want %q", errResp.Code, api.CodeDuplicateEmail)
	}
}

func TestWrongPasswordReturnsNoToken(t *testing.T) {
	register(t)

	resp := doJSON(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Email:    uniqueEmail(t),
		Password: "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	resp.Body.Close()
	if contains(body, `"token"`) {
		t.Errorf("401 body carries a token: %s", body)
	}
	if !contains(body, `"success":false`) {
		t.Errorf("401 body = %s, want success false", body)
	}
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	resp := doJSON(t, http.MethodGet, "/api/auth/profile", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Code != api.CodeUnauthenticated {
		t.Errorf("code = %q, want %q", errResp.Code, api.CodeUnauthenticated)
	}
}

func TestLogoutKeepsTokenValid(t *testing.T) {
	auth := register(t)

	resp := doJSON(t, http.MethodPost, "/api/auth/logout", auth.Token, nil)
	var msg api.MessageResponse
	decodeJSON(t, resp, &msg)
	if !msg.Success {
		t.Fatalf("logout: %+v", msg)
	}

	// No server-side revocation: the token works until it expires.
	resp = doJSON(t, http.MethodGet, "/api/auth/profile", auth.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("profile after logout = %d, want 200", resp.StatusCode)
	}
}

func TestSessionStoreAgainstServer(t *testing.T) {
	ctx := context.Background()
	c, err := client.New(testEnv.BaseURL())
	if err != nil {
		t.Fatal(err)
	}
	mem := session.NewMemoryState()

	store := session.New(mem, c)
	store.Init(ctx)
	if got := store.State().Status; got != session.StatusUnauthenticated {
		t.Fatalf("fresh store status = %q", got)
	}

	res := store.Register(ctx, api.RegisterRequest{
		FirstName: "Store",
		LastName:  "User",
		Email:     uniqueEmail(t),
		Password:  "correct-horse",
	})
	if !res.Success {
		t.Fatalf("Register: %+v", res)
	}

	// A second store over the same persisted state restores the session.
	restored := session.New(mem, c)
	restored.Init(ctx)
	if got := restored.State().Status; got != session.StatusAuthenticated {
		t.Fatalf("restored status = %q, want authenticated", got)
	}

	restored.Logout(ctx)
	if _, ok, _ := mem.Get(ctx, session.KeyToken); ok {
		t.Error("token still persisted after logout")
	}

	if res := store.Login(ctx, uniqueEmail(t), "wrong"); res.Success {
		t.Error("login with wrong password succeeded")
	}
}
