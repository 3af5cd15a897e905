package api

import (
	"net/mail"
	"strings"
)

// Password length limits at registration. MaxPasswordLength is in bytes,
// the most bcrypt will hash.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// NormalizeEmail trims and lower-cases an email address. Emails are unique
// case-insensitively, so every lookup and write goes through this function.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare address (no display name).
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// ValidateLogin checks a LoginRequest. It returns an *APIError describing the
// first validation failure, or nil if the request is valid.
func ValidateLogin(req *LoginRequest) *APIError {
	if strings.TrimSpace(req.Email) == "" {
		return NewValidationError("email", "email is required")
	}
	if req.Password == "" {
		return NewValidationError("password", "password is required")
	}
	return nil
}

// ValidateRegister checks a RegisterRequest.
func ValidateRegister(req *RegisterRequest) *APIError {
	if strings.TrimSpace(req.FirstName) == "" {
		return NewValidationError("firstName", "first name is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return NewValidationError("lastName", "last name is required")
	}
	email := NormalizeEmail(req.Email)
	if email == "" {
		return NewValidationError("email", "email is required")
	}
	if !ValidEmail(email) {
		return NewValidationError("email", "email is not a valid address")
	}
	if len(req.Password) < MinPasswordLength {
		return NewValidationError("password", "password must be at least 8 characters")
	}
	if len(req.Password) > MaxPasswordLength {
		return NewValidationError("password", "password must be at most 72 bytes")
	}
	return nil
}

// ValidateCreateClient checks a CreateClientRequest.
func ValidateCreateClient(req *CreateClientRequest) *APIError {
	if strings.TrimSpace(req.FirstName) == "" {
		return NewValidationError("firstName", "first name is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return NewValidationError("lastName", "last name is required")
	}
	if req.Email != "" && !ValidEmail(NormalizeEmail(req.Email)) {
		return NewValidationError("email", "email is not a valid address")
	}
	if req.Status != "" && !req.Status.Valid() {
		return NewValidationError("status", "status must be 'onboarding', 'active' or 'inactive'")
	}
	if !req.RiskProfile.Valid() {
		return NewValidationError("riskProfile", "riskProfile must be 'conservative', 'moderate' or 'aggressive'")
	}
	return nil
}

// ValidateUpdateClient checks an UpdateClientRequest.
func ValidateUpdateClient(req *UpdateClientRequest) *APIError {
	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) == "" {
		return NewValidationError("firstName", "first name cannot be empty")
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) == "" {
		return NewValidationError("lastName", "last name cannot be empty")
	}
	if req.Email != nil && *req.Email != "" && !ValidEmail(NormalizeEmail(*req.Email)) {
		return NewValidationError("email", "email is not a valid address")
	}
	if req.Status != nil && !req.Status.Valid() {
		return NewValidationError("status", "status must be 'onboarding', 'active' or 'inactive'")
	}
	if req.RiskProfile != nil && !req.RiskProfile.Valid() {
		return NewValidationError("riskProfile", "riskProfile must be 'conservative', 'moderate' or 'aggressive'")
	}
	return nil
}

// Apply copies the non-nil fields of req onto c.
func (req *UpdateClientRequest) Apply(c *Client) {
	if req.FirstName != nil {
		c.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		c.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		c.Email = NormalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		c.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.RiskProfile != nil {
		c.RiskProfile = *req.RiskProfile
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}
}
