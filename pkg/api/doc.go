// Package api defines the wire types of the RICHIEAT HTTP API.
//
// It contains the advisor and client resources, the request bodies accepted by
// the auth and client routes, the JSON envelopes returned by every route, the
// structured error taxonomy, and request validation. Every JSON response body
// carries a success flag and the correlation ID of the request that produced it.
//
// The package performs no I/O. JSON field names use camelCase to match the
// browser frontend that consumes the API.
//
// Core types:
//   - [Advisor]: the account holder; the password hash never serializes
//   - [Client]: a record owned by exactly one advisor
//   - [AuthResponse]: token plus advisor, returned by login and register
//   - [APIError]: structured error with type, code, param, and message
package api
