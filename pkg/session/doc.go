// Package session holds the client-side authentication context.
//
// A Store mirrors the server session: it knows the signed-in advisor, whether
// a check against the server is still running, and keeps the bearer token and
// advisor profile in a Persistence so a restart can restore them. A Gate sits
// on top of the Store and decides whether a protected view may run.
//
// The Store is created once at program start, initialized with Init, and
// lives for the rest of the process. Its collaborators are interfaces so tests
// can substitute them.
package session
