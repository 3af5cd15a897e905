// Package client is a typed HTTP client for the richieat REST API.
//
// Every authenticated call takes the bearer token explicitly so a single
// Client can be shared by goroutines acting for different sessions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/debug"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of a non-JSON error body is kept.
const maxErrorBody = 4 << 10

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Response   api.ErrorResponse
}

func (e *Error) Error() string {
	msg := e.Response.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Response.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Response.Code, msg)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, msg)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// server response (a transport failure, for instance).
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client talks to one richieat server.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

// New creates a Client for the server at baseURL (scheme and host, optional
// path prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", baseURL)
	}

	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: "richieat-client",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address the client was built with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Health calls GET /.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error) {
	var out api.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an advisor account and returns its first session.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	var out api.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the advisor that token belongs to.
func (c *Client) Profile(ctx context.Context, token string) (*api.Advisor, error) {
	var out api.ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", token, nil, &out); err != nil {
		return nil, err
	}
	if out.Advisor == nil {
		return nil, errors.New("profile response without advisor")
	}
	return out.Advisor, nil
}

// Logout tells the server the session is over. Tokens are not revoked
// server side, so callers must drop the token whatever the outcome.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, &api.MessageResponse{})
}

// ListClients returns the advisor's clients, optionally filtered by status.
func (c *Client) ListClients(ctx context.Context, token string, status api.ClientStatus) ([]*api.Client, error) {
	path := "/api/clients"
	if status != "" {
		path += "?" + url.Values{"status": {string(status)}}.Encode()
	}
	var out api.ClientListResponse
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Clients, nil
}

// CreateClient adds a client record owned by the token's advisor.
func (c *Client) CreateClient(ctx context.Context, token string, req api.CreateClientRequest) (*api.Client, error) {
	return c.client(ctx, http.MethodPost, "/api/clients", token, req)
}

// GetClient fetches one client by ID.
func (c *Client) GetClient(ctx context.Context, token, id string) (*api.Client, error) {
	return c.client(ctx, http.MethodGet, "/api/clients/"+url.PathEscape(id), token, nil)
}

// UpdateClient applies a partial update to a client.
func (c *Client) UpdateClient(ctx context.Context, token, id string, req api.UpdateClientRequest) (*api.Client, error) {
	return c.client(ctx, http.MethodPut, "/api/clients/"+url.PathEscape(id), token, req)
}

// DeleteClient removes a client.
func (c *Client) DeleteClient(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/clients/"+url.PathEscape(id), token, nil, &api.MessageResponse{})
}

func (c *Client) client(ctx context.Context, method, path, token string, body any) (*api.Client, error) {
	var out api.ClientResponse
	if err := c.do(ctx, method, path, token, body, &out); err != nil {
		return nil, err
	}
	if out.Client == nil {
		return nil, errors.New("response without client")
	}
	return out.Client, nil
}

// do sends one request and decodes a 2xx JSON body into out. Non-2xx
// responses come back as *Error.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		debug.Log("http", "request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	debug.Log("http", "request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", resp.Header.Get("X-Request-ID"),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	debug.Trace("http", "error body", "status", resp.StatusCode, "body", debug.Truncate(string(data), 512))
	if json.Unmarshal(data, &apiErr.Response) != nil {
		apiErr.Response.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Response.RequestID == "" {
		apiErr.Response.RequestID = resp.Header.Get("X-Request-ID")
	}
	return apiErr
}
