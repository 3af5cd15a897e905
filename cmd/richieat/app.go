package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/client"
	"github.com/richieat/richieat/pkg/debug"
	"github.com/richieat/richieat/pkg/session"
	"github.com/richieat/richieat/pkg/session/sqlitestate"
)

const defaultServer = "http://localhost:5000"

var errUsage = errors.New("usage")

// errNotLoggedIn is returned by protected commands without a session.
var errNotLoggedIn = errors.New("not logged in")

// errReported marks a failure the notifier already printed.
var errReported = errors.New("reported")

type app struct {
	api    *client.Client
	store  *session.Store
	gate   *session.Gate
	prompt *prompter
	out    io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("richieat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", envOr("RICHIEAT_SERVER", defaultServer), "API server URL")
	statePath := fs.String("state", defaultStatePath(), "session state database")
	debugCats := fs.String("debug", "", "comma-separated debug categories (http, session, all)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: richieat [-server URL] [-state PATH] <login|register|logout|whoami|clients> [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	level := "warn"
	if *debugCats != "" {
		level = "debug"
	}
	logger := debug.Init(stderr, *debugCats, level, "text")

	state, err := sqlitestate.Open(ctx, *statePath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer state.Close()

	apiClient, err := client.New(*server, client.WithUserAgent("richieat-cli"))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	notifier := session.NotifierFunc(func(kind session.NoticeKind, msg string) {
		if kind == session.NoticeError {
			fmt.Fprintln(stderr, "error:", msg)
			return
		}
		fmt.Fprintln(stdout, msg)
	})
	store := session.New(state, apiClient, session.WithNotifier(notifier), session.WithLogger(logger))

	a := &app{
		api:    apiClient,
		store:  store,
		gate:   session.NewGate(store),
		prompt: newPrompter(stdin, stdout),
		out:    stdout,
	}

	store.Init(ctx)

	err = a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fs.Usage()
		return 2
	case errors.Is(err, errReported):
		return 1
	case errors.Is(err, errNotLoggedIn):
		fmt.Fprintln(stderr, "not logged in; run `richieat login`")
		return 1
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx)
	case "logout":
		a.store.Logout(ctx)
		return nil
	case "whoami":
		return a.protected(a.whoami)
	case "clients":
		return a.protected(func() error { return a.clients(ctx, args) })
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

// protected runs fn only for a signed-in advisor.
func (a *app) protected(fn func() error) error {
	var err error
	a.gate.Render(func() { err = fn() }, func() { err = errNotLoggedIn })
	return err
}

func (a *app) login(ctx context.Context, args []string) error {
	var email string
	var err error
	if len(args) > 0 {
		email = args[0]
	} else if email, err = a.prompt.required("Email"); err != nil {
		return err
	}
	pw, err := a.prompt.password("Password")
	if err != nil {
		return err
	}
	if res := a.store.Login(ctx, email, pw); !res.Success {
		return errReported
	}
	return nil
}

func (a *app) register(ctx context.Context) error {
	var req api.RegisterRequest
	fields := []struct {
		label    string
		dst      *string
		optional bool
	}{
		{"First name", &req.FirstName, false},
		{"Last name", &req.LastName, false},
		{"Email", &req.Email, false},
		{"Phone (optional)", &req.Phone, true},
		{"Firm (optional)", &req.Firm, true},
	}
	for _, f := range fields {
		var err error
		if f.optional {
			*f.dst, err = a.prompt.line(f.label)
		} else {
			*f.dst, err = a.prompt.required(f.label)
		}
		if err != nil {
			return err
		}
	}
	pw, err := a.prompt.password("Password")
	if err != nil {
		return err
	}
	req.Password = pw

	if res := a.store.Register(ctx, req); !res.Success {
		return errReported
	}
	return nil
}

func (a *app) whoami() error {
	u := a.store.State().User
	fmt.Fprintf(a.out, "%s <%s>\n", u.FullName(), u.Email)
	if u.Firm != "" {
		fmt.Fprintf(a.out, "firm: %s\n", u.Firm)
	}
	fmt.Fprintf(a.out, "id:   %s\n", u.ID)
	return nil
}

func (a *app) clients(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("clients needs a subcommand: %w", errUsage)
	}
	token := a.store.Token()

	switch args[0] {
	case "list", "ls":
		var status api.ClientStatus
		if len(args) > 1 {
			status = api.ClientStatus(args[1])
		}
		list, err := a.api.ListClients(ctx, token, status)
		if err != nil {
			return err
		}
		printClients(a.out, list)
		return nil

	case "add":
		req, err := a.readClient()
		if err != nil {
			return err
		}
		c, err := a.api.CreateClient(ctx, token, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "created client %s\n", c.ID)
		return nil

	case "show":
		if len(args) < 2 {
			return fmt.Errorf("clients show needs an id: %w", errUsage)
		}
		c, err := a.api.GetClient(ctx, token, args[1])
		if err != nil {
			return err
		}
		printClient(a.out, c)
		return nil

	case "rm", "delete":
		if len(args) < 2 {
			return fmt.Errorf("clients rm needs an id: %w", errUsage)
		}
		if err := a.api.DeleteClient(ctx, token, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted client %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown clients subcommand %q: %w", args[0], errUsage)
	}
}

func (a *app) readClient() (api.CreateClientRequest, error) {
	var req api.CreateClientRequest
	var err error
	if req.FirstName, err = a.prompt.required("First name"); err != nil {
		return req, err
	}
	if req.LastName, err = a.prompt.required("Last name"); err != nil {
		return req, err
	}
	if req.Email, err = a.prompt.line("Email (optional)"); err != nil {
		return req, err
	}
	if req.Phone, err = a.prompt.line("Phone (optional)"); err != nil {
		return req, err
	}
	risk, err := a.prompt.line("Risk profile (conservative|moderate|aggressive, optional)")
	if err != nil {
		return req, err
	}
	req.RiskProfile = api.RiskProfile(risk)
	return req, nil
}

func printClients(w io.Writer, list []*api.Client) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no clients")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tRISK")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", c.ID, c.FirstName, c.LastName, c.Status, c.RiskProfile)
	}
	tw.Flush()
}

func printClient(w io.Writer, c *api.Client) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", c.ID)
	fmt.Fprintf(tw, "name:\t%s %s\n", c.FirstName, c.LastName)
	fmt.Fprintf(tw, "status:\t%s\n", c.Status)
	if c.RiskProfile != "" {
		fmt.Fprintf(tw, "risk:\t%s\n", c.RiskProfile)
	}
	if c.Email != "" {
		fmt.Fprintf(tw, "email:\t%s\n", c.Email)
	}
	if c.Phone != "" {
		fmt.Fprintf(tw, "phone:\t%s\n", c.Phone)
	}
	if c.Notes != "" {
		fmt.Fprintf(tw, "notes:\t%s\n", c.Notes)
	}
	fmt.Fprintf(tw, "created:\t%s\n", c.CreatedAt.Format("2006-01-02 15:04"))
	tw.Flush()
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "richieat-state.db"
	}
	return filepath.Join(home, ".richieat", "state.db")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
