package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID on every response.
const RequestIDHeader = "X-Request-ID"

// RequestInfo holds per-request facts shared between pipeline stages. Inner
// layers (the auth middleware) record the advisor on it so outer layers
// (the access log) can report it after the handler returns.
type RequestInfo struct {
	// ID is the server-generated request ID.
	ID string

	// ClientRequestID is the X-Request-ID the client sent, if any. It is
	// logged for correlation and never used as the request ID.
	ClientRequestID string

	mu        sync.Mutex
	advisorID string
}

// SetAdvisorID records the authenticated advisor.
func (i *RequestInfo) SetAdvisorID(id string) {
	i.mu.Lock()
	i.advisorID = id
	i.mu.Unlock()
}

// AdvisorID returns the authenticated advisor, or "" if none.
func (i *RequestInfo) AdvisorID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.advisorID
}

// requestInfoKey is the context key for the request info.
type requestInfoKey struct{}

// WithRequestInfo returns a new context carrying info.
func WithRequestInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the request info, or nil outside the pipeline.
func RequestInfoFromContext(ctx context.Context) *RequestInfo {
	if info, ok := ctx.Value(requestInfoKey{}).(*RequestInfo); ok {
		return info
	}
	return nil
}

// RequestIDFromContext extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestIDFromContext(ctx context.Context) string {
	if info := RequestInfoFromContext(ctx); info != nil {
		return info.ID
	}
	return ""
}

// SetAdvisorID records the authenticated advisor on the request info in ctx.
// It is a no-op outside the pipeline.
func SetAdvisorID(ctx context.Context, advisorID string) {
	if info := RequestInfoFromContext(ctx); info != nil {
		info.SetAdvisorID(advisorID)
	}
}

// RequestID returns middleware that assigns a fresh UUID to every request,
// stores it in the context, and sets the X-Request-ID response header before
// any downstream stage can write.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				ID:              uuid.NewString(),
				ClientRequestID: r.Header.Get(RequestIDHeader),
			}
			w.Header().Set(RequestIDHeader, info.ID)
			next.ServeHTTP(w, r.WithContext(WithRequestInfo(r.Context(), info)))
		})
	}
}
