// Command arc is a CLI client for the receivables API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/api"
	"github.com/and161185/receivables-client/internal/config"
	"github.com/and161185/receivables-client/internal/errs"
	"github.com/and161185/receivables-client/internal/httpclient"
	"github.com/and161185/receivables-client/internal/logging"
	"github.com/and161185/receivables-client/internal/session"
	"github.com/and161185/receivables-client/internal/tokenstore"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errUsage = errors.New("usage")

// ---- app ----

// app is one CLI invocation: a session hydrated from the token file and API
// clients bound to it.
type app struct {
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer
	sess   *session.Session
	api    *api.Client
}

func newApp(cfg *config.Config, log *zap.Logger, out, errOut io.Writer) (*app, error) {
	opts := []httpclient.Option{httpclient.WithTimeout(cfg.HTTPTimeout), httpclient.WithLogger(log)}

	// login/register/me run unbound: a rejected login must not log out.
	raw, err := httpclient.New(cfg.APIBase, opts...)
	if err != nil {
		return nil, err
	}

	file := tokenstore.NewFile(cfg.ConfigDir, tokenstore.NewSealer(cfg.TokenKey))
	store := tokenstore.New([]tokenstore.Backend{file}, tokenstore.WithLogger(log))
	nav := session.NavigatorFunc(func(_ context.Context, to session.Location) {
		log.Debug("navigate", zap.String("to", to.String()))
	})
	sess := session.New(store, api.New(raw).Auth, session.WithNavigator(nav), session.WithLogger(log))

	bound, err := httpclient.New(cfg.APIBase, append(opts, httpclient.WithSession(sess))...)
	if err != nil {
		return nil, err
	}
	return &app{log: log, out: out, errOut: errOut, sess: sess, api: api.New(bound)}, nil
}

type command func(a *app, ctx context.Context, args []string) error

var commands = map[string]command{
	"register":      (*app).register,
	"login":         (*app).login,
	"logout":        (*app).logout,
	"whoami":        (*app).whoami,
	"dashboard":     (*app).dashboard,
	"dynamics":      (*app).dynamics,
	"structure":     (*app).structure,
	"concentration": (*app).concentration,
	"summary":       (*app).summary,
	"customers":     (*app).customers,
	"customer":      (*app).customer,
	"debt-work":     (*app).debtWork,
	"reports":       (*app).reports,
	"users":         (*app).users,
}

// run parses global flags, hydrates the session and dispatches the command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("arc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiBase := fs.String("api", "", "API base URL (overrides NUXT_PUBLIC_API_BASE)")
	cfgDir := fs.String("config-dir", "", "token directory (overrides ARC_CONFIG_DIR)")
	envFile := fs.String("env", ".env", "dotenv file (skipped when missing)")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		usage(stderr)
		return errUsage
	}

	name := fs.Arg(0)
	if name == "version" {
		fmt.Fprintf(stdout, "arc %s (%s)\n", version, buildDate)
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		usage(stderr)
		return errUsage
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *apiBase != "" {
		cfg.APIBase = *apiBase
	}
	if *cfgDir != "" {
		cfg.ConfigDir = *cfgDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logging.New("development", level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(cfg, log, stdout, stderr)
	if err != nil {
		return err
	}
	a.sess.Hydrate(ctx)
	return cmd(a, ctx, fs.Args()[1:])
}

// ---- utils ----

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `arc CLI
Usage:
  arc [-api URL] [-config-dir DIR] [-env FILE] [-v] <cmd> [args]

Commands:
  version
  register       -name <name> -email <email> -password <password>
  login          -email <email> -password <password>     (saves token)
  logout
  whoami
  dashboard
  dynamics       [-start YYYY-MM-DD] [-end YYYY-MM-DD]    (ADMIN, ANALYST)
  structure      [-as-of YYYY-MM-DD]                      (ADMIN, ANALYST)
  concentration  [-as-of YYYY-MM-DD] [-min pct] [-limit n] (ADMIN, ANALYST)
  summary                                                 (ADMIN, ANALYST)
  reports        [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-as-of YYYY-MM-DD]  (ADMIN, ANALYST)
  customers      [-page n] [-limit n] [-sort field] [-order asc|desc] [-search q]
  customer       -id <id> [-name <name>] [-contact <text>] [-delete]
  debt-work      -id <id> [-action TYPE -result RESULT -date YYYY-MM-DD [-description text]]
  users          [-page n] [-limit n] [-sort field] [-order asc|desc]  (ADMIN)
`)
}

// describe renders err for the terminal.
func describe(err error) string {
	var apiErr *errs.APIError
	if errors.As(err, &apiErr) {
		text := apiErr.Message
		if text == "" {
			text = http.StatusText(apiErr.Status)
		}
		msg := fmt.Sprintf("api error: status=%d msg=%s", apiErr.Status, text)
		if apiErr.Status == http.StatusUnauthorized {
			msg += " (run: arc login)"
		}
		return msg
	}
	return err.Error()
}

func fail(err error) {
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	fmt.Fprintln(os.Stderr, describe(err))
	os.Exit(1)
}

// ---- main ----

// main runs one command with a bounded deadline.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fail(err)
	}
}
