package transport

import (
	"log/slog"
	"net/http"
	"time"
)

// AccessLog returns middleware that emits one structured log entry per
// request with method, path, status, response size, latency, request ID, and
// the authenticated advisor when there is one. A panicking handler is logged
// with the status Recovery will send and the panic is re-raised.
func AccessLog(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newResponseRecorder(w)

			defer func() {
				v := recover()
				status := rec.finalStatus(v != nil)
				logRequest(logger, r, rec, status, time.Since(start), v != nil)
				if v != nil {
					panic(v)
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

func logRequest(logger *slog.Logger, r *http.Request, rec *responseRecorder, status int, elapsed time.Duration, panicked bool) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Int("bytes", rec.bytes),
		slog.Duration("duration", elapsed),
		slog.String("remote_addr", r.RemoteAddr),
	}
	if info := RequestInfoFromContext(r.Context()); info != nil {
		attrs = append(attrs, slog.String("request_id", info.ID))
		if info.ClientRequestID != "" {
			attrs = append(attrs, slog.String("client_request_id", info.ClientRequestID))
		}
		if id := info.AdvisorID(); id != "" {
			attrs = append(attrs, slog.String("advisor_id", id))
		}
	}

	if panicked {
		attrs = append(attrs, slog.Bool("panicked", true))
	}

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.LogAttrs(r.Context(), level, "request completed", attrs...)
}
