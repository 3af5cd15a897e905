package http

import (
	"errors"
	"net/http"

	"github.com/richieat/richieat/pkg/advisor"
	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/auth"
	"github.com/richieat/richieat/pkg/observability"
)

// handleLogin handles POST /api/auth/login.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req api.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	sess, err := a.advisors.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		observability.AuthAttemptsTotal.WithLabelValues("login", outcome(err)).Inc()
		if errors.Is(err, advisor.ErrInvalidCredentials) {
			return api.NewUnauthorizedError(api.CodeInvalidCredentials, "Invalid email or password")
		}
		return err
	}
	observability.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()

	writeSession(w, r, http.StatusOK, sess)
	return nil
}

// handleRegister handles POST /api/auth/register.
func (a *Adapter) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req api.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	sess, err := a.advisors.Register(r.Context(), &req)
	if err != nil {
		observability.AuthAttemptsTotal.WithLabelValues("register", outcome(err)).Inc()
		if errors.Is(err, advisor.ErrDuplicateEmail) {
			return api.NewConflictError(api.CodeDuplicateEmail, "An advisor with this email already exists")
		}
		return err
	}
	observability.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()

	writeSession(w, r, http.StatusCreated, sess)
	return nil
}

// handleProfile handles GET /api/auth/profile.
func (a *Adapter) handleProfile(w http.ResponseWriter, r *http.Request) error {
	adv, err := a.advisors.Profile(r.Context(), auth.AdvisorID(r.Context()))
	if err != nil {
		return notFound(err, "Advisor not found")
	}

	writeJSON(w, http.StatusOK, api.ProfileResponse{
		Success:   true,
		Advisor:   adv,
		RequestID: requestID(r),
	})
	return nil
}

// handleLogout handles POST /api/auth/logout. Tokens are stateless, so this
// only records the event; the client discards its token.
func (a *Adapter) handleLogout(w http.ResponseWriter, r *http.Request) error {
	a.advisors.Logout(r.Context(), auth.AdvisorID(r.Context()))

	writeJSON(w, http.StatusOK, api.MessageResponse{
		Success:   true,
		Message:   "Logged out successfully",
		RequestID: requestID(r),
	})
	return nil
}

func writeSession(w http.ResponseWriter, r *http.Request, status int, sess *advisor.Session) {
	writeJSON(w, status, api.AuthResponse{
		Success:   true,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Advisor:   sess.Advisor,
		RequestID: requestID(r),
	})
}

// outcome labels a failed auth attempt for metrics.
func outcome(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, advisor.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, advisor.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.As(err, &apiErr):
		return "invalid_request"
	default:
		return "error"
	}
}
