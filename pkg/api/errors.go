package api

import "fmt"

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation_error"
	ErrorTypeUnauthorized     ErrorType = "unauthorized"
	ErrorTypeForbidden        ErrorType = "forbidden"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeConflict         ErrorType = "conflict"
	ErrorTypePayloadTooLarge  ErrorType = "payload_too_large"
	ErrorTypeUnsupportedMedia ErrorType = "unsupported_media_type"
	ErrorTypeServerError      ErrorType = "server_error"
)

// Machine-readable codes carried by auth failures.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeDuplicateEmail     = "duplicate_email"
	CodeTokenInvalid       = "token_invalid"
	CodeTokenExpired       = "token_expired"
	CodeUnauthenticated    = "unauthenticated"
	CodeMalformedJSON      = "malformed_json"
	CodeOriginNotAllowed   = "origin_not_allowed"
	CodeRouteNotFound      = "route_not_found"
)

// APIError represents a structured API error with type, code, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse is the JSON body of every failed request.
//
// Detail holds the underlying error text and is only populated in
// development mode.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Type      ErrorType `json:"type"`
	Code      string    `json:"code,omitempty"`
	Param     string    `json:"param,omitempty"`
	Detail    string    `json:"error,omitempty"`
	RequestID string    `json:"requestId"`
}

// NewErrorResponse wraps an APIError for the given request.
func NewErrorResponse(err *APIError, requestID string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Message:   err.Message,
		Type:      err.Type,
		Code:      err.Code,
		Param:     err.Param,
		RequestID: requestID,
	}
}

// NewValidationError creates an APIError for malformed input.
func NewValidationError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Param:   param,
		Message: message,
	}
}

// NewMalformedJSONError creates an APIError for a body that is not valid JSON.
func NewMalformedJSONError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Code:    CodeMalformedJSON,
		Param:   "body",
		Message: message,
	}
}

// NewUnauthorizedError creates an APIError for failed authentication.
func NewUnauthorizedError(code, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUnauthorized,
		Code:    code,
		Message: message,
	}
}

// NewForbiddenError creates an APIError for requests refused by policy.
func NewForbiddenError(code, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeForbidden,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewConflictError creates an APIError for uniqueness violations.
func NewConflictError(code, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
	}
}

// NewPayloadTooLargeError creates an APIError for bodies above the size ceiling.
func NewPayloadTooLargeError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypePayloadTooLarge,
		Param:   "body",
		Message: message,
	}
}

// NewUnsupportedMediaTypeError creates an APIError for non-JSON bodies.
func NewUnsupportedMediaTypeError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUnsupportedMedia,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}
