package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/dormswap/internal/api"
	"github.com/erazemk/dormswap/internal/session"
	"github.com/erazemk/dormswap/internal/web"
)

const usage = `Usage: dormswap <command> [flags] [args]

Commands:
  serve                   run the web client (default: 127.0.0.1:8080)
  login -id-token <tok>   sign in with a Google ID token
  logout                  sign out
  whoami                  show the signed-in user
  items [filters]         browse available items
  item <id>               show one item
  post [flags] <photo>... post a new listing
  status <id> <status>    mark your listing sold, rented or removed
  listings [-pending]     show your own listings
  delete <id>             delete one of your listings
  profile [flags]         show or edit your profile

Configuration is read from ./dormswap.yaml (or CONFIG_PATH) and the
environment. Run "dormswap <command> -h" for command flags.
`

// cli opens the application lazily so that flag errors and -h never touch
// configuration or storage.
type cli struct {
	ctx    context.Context
	server bool
	a      *app
}

func (c *cli) app() (*app, error) {
	if c.a != nil {
		return c.a, nil
	}
	a, err := newApp(c.ctx, c.server)
	if err != nil {
		return nil, err
	}
	c.a = a
	return a, nil
}

type command func(c *cli, args []string) error

var commands = map[string]command{
	"serve":    cmdServe,
	"login":    cmdLogin,
	"logout":   cmdLogout,
	"whoami":   cmdWhoami,
	"items":    cmdItems,
	"item":     cmdItem,
	"post":     cmdPost,
	"status":   cmdStatus,
	"listings": cmdListings,
	"delete":   cmdDelete,
	"profile":  cmdProfile,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	name, args := os.Args[1], os.Args[2:]
	if name == "-h" || name == "-help" || name == "help" {
		fmt.Fprint(os.Stdout, usage)
		return
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", name, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	c := &cli{ctx: ctx, server: name == "serve"}

	err := cmd(c, args)
	if c.a != nil {
		c.a.Close()
	}
	stop()

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func cmdServe(c *cli, args []string) error {
	fs := newFlagSet("serve", `Usage: dormswap serve [flags]

Flags:
  -a, -addr <host:port>   listen address (default: LISTEN_ADDR or 127.0.0.1:8080)
`)
	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	a, err := c.app()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	webRouter, err := web.NewRouter(&web.Server{
		Sessions: a.sessions,
		Auth:     a.auth,
		Catalog:  a.catalog,
		Profiles: a.profile,
		Log:      a.log,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}
	apiRouter := api.NewRouter(a.sessions, a.catalog, a.log)

	// Combine: API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	handler := web.LoggingMiddleware(a.log)(mux)

	unsubscribe := a.sessions.Subscribe(func(ev session.Event) {
		if ev.User != nil {
			a.log.Info("session changed", "event", ev.Kind.String(), "user_id", ev.User.ID)
			return
		}
		a.log.Info("session changed", "event", ev.Kind.String())
	})
	defer unsubscribe()

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(c.ctx)
	g.Go(func() error {
		a.log.Info("server listening", "addr", addr, "api", a.cfg.API.URL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.sessions.Watch(gctx, a.cfg.Session.PollInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server forced to shutdown", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("server stopped")
	return nil
}
