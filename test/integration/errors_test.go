package integration

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/richieat/richieat/pkg/api"
)

func TestInvalidJSON(t *testing.T) {
	resp, err := http.Post(testEnv.BaseURL()+"/api/auth/login", "application/json", strings.NewReader(`{invalid json`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Code != api.CodeMalformedJSON {
		t.Errorf("code = %q, want %q", errResp.Code, api.CodeMalformedJSON)
	}
}

func TestOversizedBody(t *testing.T) {
	body := bytes.Repeat([]byte("a"), 11<<20)
	resp, err := http.Post(testEnv.BaseURL()+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	resp := doJSON(t, http.MethodGet, "/api/unknown", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	header := resp.Header.Get("X-Request-ID")

	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Success {
		t.Error("success = true on 404")
	}
	if errResp.Message == "" {
		t.Error("404 without message")
	}
	if header == "" || errResp.RequestID != header {
		t.Errorf("requestId = %q, header = %q", errResp.RequestID, header)
	}
}

func TestConcurrentRequestIDsUnique(t *testing.T) {
	const n = 32
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(testEnv.BaseURL() + "/api/unknown")
			if err != nil {
				t.Errorf("request %d: %v", i, err)
				return
			}
			resp.Body.Close()
			ids[i] = resp.Header.Get("X-Request-ID")
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		if id == "" || seen[id] {
			t.Fatalf("request id %q empty or repeated", id)
		}
		seen[id] = true
	}
}

// contains checks if s contains substr.
func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
