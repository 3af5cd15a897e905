// Package auth gates protected routes behind bearer-token authentication.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is implemented as HTTP middleware wrapped around individual routes,
// keeping it decoupled from handler logic. On success the advisor identity is
// stored in the request context and reported to the request pipeline so the
// access log can name the caller.
package auth
