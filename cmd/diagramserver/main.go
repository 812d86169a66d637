//go:build !(js || wasm)

// Command diagramserver serves the diagram canvas rendered on the server.
// Every browser tab gets its own session over a WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vcrobe/nojs-diagrams/config"
	"github.com/vcrobe/nojs-diagrams/console"
	"github.com/vcrobe/nojs-diagrams/internal/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		console.Error(err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	// Parse once to find the config file, then again over the loaded
	// configuration so flags win.
	path := config.DefaultPath
	probe := config.Default()
	fs := newFlagSet(&probe, &path)
	fs.SetOutput(io.Discard)
	_ = fs.Parse(args)

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := newFlagSet(&cfg, &path).Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	console.SetLogger(cfg.NewLogger(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := session.NewServer(cfg.Diagram)
	if err := config.Watch(ctx, path, func(c config.Config) {
		c, err := overrideFlags(c, args)
		if err != nil {
			console.Warn("config reload ignored:", err.Error())
			return
		}
		console.Log("config reloaded:", path)
		server.SetOptions(c.Diagram)
	}); err != nil {
		console.Warn("config watch disabled:", err.Error())
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		console.Log("listening on", cfg.Addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	console.Log("shutting down")
	server.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// overrideFlags applies the command-line flags over a reloaded
// configuration, so a file edit never undoes an override.
func overrideFlags(cfg config.Config, args []string) (config.Config, error) {
	var path string
	fs := newFlagSet(&cfg, &path)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func newFlagSet(cfg *config.Config, path *string) *flag.FlagSet {
	fs := flag.NewFlagSet("diagramserver", flag.ContinueOnError)
	fs.StringVar(path, "config", *path, "The path to the TOML configuration file.")
	config.RegisterFlags(fs, cfg)
	return fs
}
