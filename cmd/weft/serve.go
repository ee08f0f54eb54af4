package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-go/weft/internal/config"
	"github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/server"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		addr        string
		maxSessions int
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo counter over WebSockets",
		Long: `Serve a demo counter application. Every websocket connection to /ws
gets its own instance; patches and events use the weft binary protocol.

Routes:
  /ws        websocket endpoint
  /metrics   Prometheus metrics
  /healthz   health check

Examples:
  weft serve
  weft serve --addr=:9000 --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			if cmd.Flags().Changed("max-sessions") {
				cfg.Server.MaxSessions = maxSessions
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from weft.yaml)")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "Maximum concurrent sessions, 0 for no limit")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger(os.Stderr)

	srv, err := server.New(server.App(counterApp), cfg.ServerConfig(logger))
	if err != nil {
		return err
	}
	srv.Router().Get("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "weft %s: connect a client to /ws\n", version)
	})

	success("Serving counter on %s", cfg.Server.Address)
	info("websocket  ws://%s/ws", displayHost(cfg.Server.Address))
	info("metrics    http://%s/metrics", displayHost(cfg.Server.Address))

	if err := srv.Run(ctx); err != nil {
		if stderrors.Is(err, syscall.EADDRINUSE) {
			return errors.New("E142").
				WithDetail(cfg.Server.Address + " is in use").
				WithSuggestion("Pass --addr with a free port").
				Wrap(err)
		}
		return err
	}
	return nil
}

// displayHost turns a listen address like ":8080" into one a browser can
// reach.
func displayHost(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
