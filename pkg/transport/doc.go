// Package transport defines the HTTP request pipeline shared by every route
// of the richieat API.
//
// # Pipeline
//
// A Pipeline is an ordered list of Stages. Each stage carries a Rank, and
// NewPipeline refuses stages whose ranks are duplicated or out of order, so
// the dependency between stages (the access log needs the request ID, the
// body parser must run after CORS has rejected foreign origins) is written
// down once and checked at startup:
//
//	RankRecovery < RankRequestID < RankAccessLog < RankMetrics <
//	RankSecurityLog < RankCORS < RankBodyParser
//
// # Errors
//
// Handlers return errors instead of writing failure responses themselves.
// ErrorHandler is the terminal step: *api.APIError values map to their HTTP
// status, anything else becomes a 500 whose detail is only shown to clients
// in development mode. Every error body carries the request ID.
//
// HTTP serving uses net/http with Go 1.22+ ServeMux routing patterns.
// Structured logging uses log/slog.
package transport
