package transport

import (
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/richieat/richieat/pkg/observability"
)

// Security event kinds, used as the metric label and the log "kind" attribute.
const (
	SecurityEventAuthFailures     = "auth_failures"
	SecurityEventMalformedPayload = "malformed_payload"
	SecurityEventSuspiciousPath   = "suspicious_path"
)

// SecurityConfig tunes the security log stage.
type SecurityConfig struct {
	// FailureThreshold is the number of 401 responses from one remote
	// address within FailureWindow that triggers a warning. Default: 5.
	FailureThreshold int

	// FailureWindow is the sliding window for counting failures. Default: 5m.
	FailureWindow time.Duration

	// Now is the clock. Default: time.Now.
	Now func() time.Time
}

func (c *SecurityConfig) applyDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.FailureWindow <= 0 {
		c.FailureWindow = 5 * time.Minute
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// suspiciousPatterns are matched against the lower-cased, decoded path and
// query.
var suspiciousPatterns = []string{"..", "<script", "\x00"}

// SecurityLog flags suspicious traffic without ever blocking it.
type SecurityLog struct {
	cfg    SecurityConfig
	logger *slog.Logger

	mu        sync.Mutex
	failures  map[string][]time.Time
	lastSweep time.Time
}

// NewSecurityLog creates the security log stage state.
func NewSecurityLog(cfg SecurityConfig, logger *slog.Logger) *SecurityLog {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityLog{
		cfg:      cfg,
		logger:   logger,
		failures: make(map[string][]time.Time),
	}
}

// Middleware returns the stage middleware.
func (s *SecurityLog) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pattern, ok := suspicious(r.URL); ok {
				s.event(r, SecurityEventSuspiciousPath, slog.String("pattern", pattern))
			}

			rec := newResponseRecorder(w)
			defer func() {
				v := recover()
				s.observe(r, rec.finalStatus(v != nil))
				if v != nil {
					panic(v)
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// observe records the outcome of a finished request.
func (s *SecurityLog) observe(r *http.Request, status int) {
	switch status {
	case http.StatusUnauthorized:
		if n := s.recordFailure(remoteHost(r.RemoteAddr)); n >= s.cfg.FailureThreshold {
			s.event(r, SecurityEventAuthFailures,
				slog.Int("failures", n),
				slog.Duration("window", s.cfg.FailureWindow),
			)
		}
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		s.event(r, SecurityEventMalformedPayload, slog.Int("status", status))
	}
}

// Failures returns the number of failures recorded for host inside the
// current window.
func (s *SecurityLog) Failures(host string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prune(host, s.cfg.Now()))
}

func (s *SecurityLog) recordFailure(host string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Now()
	if now.Sub(s.lastSweep) > s.cfg.FailureWindow {
		for h := range s.failures {
			s.prune(h, now)
		}
		s.lastSweep = now
	}

	kept := append(s.prune(host, now), now)
	s.failures[host] = kept
	return len(kept)
}

// prune drops failures older than the window. Caller holds s.mu.
func (s *SecurityLog) prune(host string, now time.Time) []time.Time {
	times := s.failures[host]
	cutoff := now.Add(-s.cfg.FailureWindow)
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	times = times[i:]
	if len(times) == 0 {
		delete(s.failures, host)
		return nil
	}
	s.failures[host] = times
	return times
}

func (s *SecurityLog) event(r *http.Request, kind string, extra ...slog.Attr) {
	observability.SecurityEventsTotal.WithLabelValues(kind).Inc()

	attrs := append([]slog.Attr{
		slog.String("kind", kind),
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("user_agent", r.UserAgent()),
	}, extra...)
	s.logger.LogAttrs(r.Context(), slog.LevelWarn, "security event", attrs...)
}

func suspicious(u *url.URL) (string, bool) {
	raw := u.EscapedPath()
	if u.RawQuery != "" {
		raw += "?" + u.RawQuery
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		decoded = raw
	}
	candidates := []string{strings.ToLower(decoded), strings.ToLower(u.Path)}
	for _, c := range candidates {
		for _, p := range suspiciousPatterns {
			if strings.Contains(c, p) {
				return p, true
			}
		}
	}
	return "", false
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
