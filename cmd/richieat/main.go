// Command richieat is a terminal frontend for the richieat advisor API.
//
// Usage:
//
//	richieat [-server URL] [-state PATH] [-debug CATEGORIES] <command> [args]
//
// Commands:
//
//	login [email]                 sign in
//	register                      create an account and sign in
//	logout                        sign out
//	whoami                        show the signed-in advisor
//	clients list [status]         list clients, optionally by status
//	clients add                   add a client
//	clients show <id>             show one client
//	clients rm <id>               delete a client
//
// The session is kept in a SQLite file so it survives between invocations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
