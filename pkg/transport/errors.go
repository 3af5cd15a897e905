package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/richieat/richieat/pkg/api"
)

// internalErrorMessage is shown to clients for unexpected failures outside
// development mode.
const internalErrorMessage = "Internal server error"

// HTTPStatusFromError maps an APIError type to the corresponding HTTP status
// code.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeValidation:
		return http.StatusBadRequest
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeForbidden:
		return http.StatusForbidden
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeConflict:
		return http.StatusConflict
	case api.ErrorTypePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case api.ErrorTypeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler is the terminal error step of the pipeline. It turns handler
// errors into JSON error bodies carrying the request ID.
type ErrorHandler struct {
	Logger *slog.Logger

	// Development exposes the real message of unexpected errors to clients.
	Development bool
}

// NewErrorHandler creates an ErrorHandler.
func NewErrorHandler(logger *slog.Logger, development bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{Logger: logger, Development: development}
}

// Handle writes the response for err. *api.APIError values (possibly
// wrapped) keep their status and message; anything else is logged with the
// request ID and answered with a 500.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := RequestIDFromContext(r.Context())
	if requestID == "" {
		requestID = w.Header().Get(RequestIDHeader)
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		status := HTTPStatusFromError(apiErr)
		if status >= http.StatusInternalServerError {
			h.logFailure(r, requestID, err)
		}
		WriteErrorResponse(w, api.NewErrorResponse(apiErr, requestID), status)
		return
	}

	h.logFailure(r, requestID, err)

	resp := api.NewErrorResponse(api.NewServerError(internalErrorMessage), requestID)
	if h.Development {
		resp.Message = err.Error()
		resp.Detail = err.Error()
	}
	WriteErrorResponse(w, resp, http.StatusInternalServerError)
}

func (h *ErrorHandler) logFailure(r *http.Request, requestID string, err error) {
	h.Logger.LogAttrs(r.Context(), slog.LevelError, "request failed",
		slog.String("request_id", requestID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

// WriteErrorResponse writes a JSON error body with the given status.
func WriteErrorResponse(w http.ResponseWriter, resp api.ErrorResponse, statusCode int) {
	WriteJSON(w, statusCode, resp)
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
