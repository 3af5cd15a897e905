package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery returns middleware that catches panics in downstream stages and
// handlers and converts them to server error responses through eh. The
// server continues to accept new requests after a panic is recovered.
//
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recovery(eh *ErrorHandler) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newResponseRecorder(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				eh.Logger.LogAttrs(r.Context(), slog.LevelError, "panic recovered",
					slog.String("request_id", w.Header().Get(RequestIDHeader)),
					slog.String("path", r.URL.Path),
					slog.Any("panic", v),
					slog.String("stack", string(debug.Stack())),
				)
				if rec.written {
					// Headers are already on the wire.
					return
				}
				eh.Handle(rec, r, fmt.Errorf("panic: %v", v))
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
