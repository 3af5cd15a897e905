package transport

import "net/http"

// HandlerFunc is a route handler that reports failures by returning an error
// instead of writing the error response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn to an http.Handler, routing returned errors to eh.
func Handle(eh *ErrorHandler, fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			eh.Handle(w, r, err)
		}
	})
}
