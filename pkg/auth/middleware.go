package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/richieat/richieat/pkg/debug"
	"github.com/richieat/richieat/pkg/transport"
)

// DenyFunc writes the rejection response for a failed authentication.
// err is ErrUnauthenticated, ErrTokenInvalid, ErrTokenExpired, or an error
// wrapping one of them.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware creates HTTP middleware that admits a request only when the chain
// votes Yes. The identity is injected into the request context and recorded
// on the pipeline's request info for access logging.
func Middleware(chain *AuthChain, deny DenyFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, `{"success":false,"message":"authentication required"}`, http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := chain.Authenticate(r.Context(), r)

			if result.Decision == No {
				err := result.Err
				if err == nil {
					err = ErrUnauthenticated
				}
				logger.LogAttrs(r.Context(), slog.LevelWarn, "authentication failed",
					slog.String("request_id", transport.RequestIDFromContext(r.Context())),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("error", err.Error()),
				)
				deny(w, r, err)
				return
			}

			if result.Decision != Yes || result.Identity == nil {
				debug.Log("auth", "no authenticator accepted the request", "path", r.URL.Path)
				deny(w, r, ErrUnauthenticated)
				return
			}

			// Validate identity.
			if result.Identity.Subject == "" {
				logger.Error("authenticator returned identity with empty subject")
				deny(w, r, errors.Join(ErrTokenInvalid, errors.New("empty subject")))
				return
			}

			debug.Log("auth", "authentication succeeded",
				"advisor_id", result.Identity.Subject,
				"token_id", result.Identity.TokenID,
				"path", r.URL.Path,
			)

			ctx := SetIdentity(r.Context(), result.Identity)
			transport.SetAdvisorID(ctx, result.Identity.Subject)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
