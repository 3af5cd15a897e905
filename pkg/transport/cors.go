package transport

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/richieat/richieat/pkg/api"
)

// DevelopmentOrigins are allowed in addition to the configured origins when
// the server runs in development mode.
var DevelopmentOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORSConfig configures the CORS stage.
type CORSConfig struct {
	// AllowedOrigins are exact origins (scheme://host[:port]).
	AllowedOrigins []string

	// Development adds DevelopmentOrigins to the allow-list.
	Development bool

	// MaxAge is the preflight cache lifetime in seconds. Default: 600.
	MaxAge int
}

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{"Authorization", "Content-Type", RequestIDHeader}, ", ")
)

// CORS returns middleware enforcing an origin allow-list. Requests without an
// Origin header pass through untouched. A request from an origin that is not
// on the list is refused with 403 through eh. Preflight requests from allowed
// origins are answered with 204 and never reach the handler.
func CORS(cfg CORSConfig, eh *ErrorHandler) Middleware {
	allowed := append([]string(nil), cfg.AllowedOrigins...)
	if cfg.Development {
		allowed = append(allowed, DevelopmentOrigins...)
	}
	for i, o := range allowed {
		allowed[i] = strings.TrimRight(o, "/")
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 600
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if !slices.Contains(allowed, origin) {
				eh.Handle(w, r, api.NewForbiddenError(api.CodeOriginNotAllowed, "Origin not allowed by CORS policy"))
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
