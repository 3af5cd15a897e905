package api

import (
	"strings"
	"time"
)

// Advisor is the account-holding user of the API.
type Advisor struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Phone        string     `json:"phone,omitempty"`
	Firm         string     `json:"firm,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// FullName returns the advisor's display name.
func (a *Advisor) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ClientStatus is the lifecycle state of a client record.
type ClientStatus string

const (
	ClientStatusOnboarding ClientStatus = "onboarding"
	ClientStatusActive     ClientStatus = "active"
	ClientStatusInactive   ClientStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusOnboarding, ClientStatusActive, ClientStatusInactive:
		return true
	}
	return false
}

// RiskProfile is the investment risk tolerance recorded during onboarding.
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskModerate     RiskProfile = "moderate"
	RiskAggressive   RiskProfile = "aggressive"
)

// Valid reports whether p is a known risk profile. The empty profile is valid.
func (p RiskProfile) Valid() bool {
	switch p {
	case "", RiskConservative, RiskModerate, RiskAggressive:
		return true
	}
	return false
}

// Client is a record managed by exactly one advisor.
type Client struct {
	ID          string       `json:"id"`
	AdvisorID   string       `json:"advisorId"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Status      ClientStatus `json:"status"`
	RiskProfile RiskProfile  `json:"riskProfile,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register. All fields other
// than the password are profile fields stored on the advisor.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
	Firm      string `json:"firm,omitempty"`
}

// CreateClientRequest is the body of POST /api/clients.
type CreateClientRequest struct {
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Status      ClientStatus `json:"status,omitempty"`
	RiskProfile RiskProfile  `json:"riskProfile,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

// UpdateClientRequest is the body of PUT /api/clients/{id}. Nil fields are
// left unchanged.
type UpdateClientRequest struct {
	FirstName   *string       `json:"firstName,omitempty"`
	LastName    *string       `json:"lastName,omitempty"`
	Email       *string       `json:"email,omitempty"`
	Phone       *string       `json:"phone,omitempty"`
	Status      *ClientStatus `json:"status,omitempty"`
	RiskProfile *RiskProfile  `json:"riskProfile,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Advisor   *Advisor  `json:"advisor"`
	RequestID string    `json:"requestId"`
}

// ProfileResponse is returned by GET /api/auth/profile.
type ProfileResponse struct {
	Success   bool     `json:"success"`
	Advisor   *Advisor `json:"advisor"`
	RequestID string   `json:"requestId"`
}

// MessageResponse is a success envelope carrying only a message.
type MessageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// ClientResponse wraps a single client.
type ClientResponse struct {
	Success   bool    `json:"success"`
	Client    *Client `json:"client"`
	RequestID string  `json:"requestId"`
}

// ClientListResponse wraps the clients of one advisor.
type ClientListResponse struct {
	Success   bool      `json:"success"`
	Clients   []*Client `json:"clients"`
	Count     int       `json:"count"`
	RequestID string    `json:"requestId"`
}

// DatabaseStatus reports storage connectivity in the health probe.
type DatabaseStatus struct {
	Connected bool   `json:"connected"`
	Type      string `json:"type"`
}

// HealthResponse is returned by GET /.
type HealthResponse struct {
	Success     bool           `json:"success"`
	Status      string         `json:"status"`
	Environment string         `json:"environment"`
	Database    DatabaseStatus `json:"database"`
	Uptime      float64        `json:"uptime"`
	RequestID   string         `json:"requestId"`
}
