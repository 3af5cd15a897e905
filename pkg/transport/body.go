package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/richieat/richieat/pkg/api"
)

// DefaultMaxBodySize is the request body ceiling used when none is configured.
const DefaultMaxBodySize int64 = 10 << 20

// BodyParser returns middleware that buffers and validates request bodies on
// POST, PUT and PATCH before any handler runs:
//   - bodies above maxBytes are refused with 413
//   - JSON bodies (or bodies without a Content-Type) must parse, else 400
//   - any other Content-Type is refused with 415
//
// The handler receives the buffered body. Other methods pass through.
func BodyParser(maxBytes int64, eh *ErrorHandler) Middleware {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	tooLarge := api.NewPayloadTooLargeError(fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytes))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > maxBytes {
				eh.Handle(w, r, tooLarge)
				return
			}

			if ct := r.Header.Get("Content-Type"); ct != "" && !isJSONContentType(ct) {
				eh.Handle(w, r, api.NewUnsupportedMediaTypeError(
					fmt.Sprintf("unsupported content type %q, expected application/json", ct)))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					eh.Handle(w, r, tooLarge)
					return
				}
				eh.Handle(w, r, api.NewValidationError("body", "failed to read request body"))
				return
			}

			if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
				eh.Handle(w, r, api.NewMalformedJSONError("request body is not valid JSON"))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			next.ServeHTTP(w, r)
		})
	}
}

func isJSONContentType(ct string) bool {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
