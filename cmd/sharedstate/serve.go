package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sharedstate/internal/config"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		port     int
		host     string
		readOnly bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the board with the devtools inspector",
		Long: `Run the demo board on a runtime goroutine and serve the inspector.

The inspector lists shared states, accepts writes and streams changes:

  GET  /api/states
  GET  /api/states/{name}
  PUT  /api/states/{name}
  GET  /api/ws
  GET  /metrics

The log level follows edits to the config file.

Examples:
  sharedstate serve
  sharedstate serve --port=8080 --read-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Inspector.Port = port
			}
			if host != "" {
				cfg.Inspector.Host = host
			}
			if readOnly {
				cfg.Inspector.ReadOnly = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject writes from the inspector")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	a.mount()
	insp, err := a.inspector()
	if err != nil {
		return err
	}
	defer insp.Close()

	out := cmd.OutOrStdout()
	printBanner(out)
	success(out, "Inspector on http://%s", cfg.InspectorAddress())
	info(out, "States: %v", insp.Names())

	go a.runtime.Run(ctx)
	if cfg.Path() != "" {
		go a.watchConfig(ctx)
	}

	return insp.Serve(ctx, cfg.InspectorAddress())
}

// watchConfig applies log level changes from the config file.
func (a *app) watchConfig(ctx context.Context) {
	err := config.Watch(ctx, a.cfg.Path(), func(cfg *config.Config, err error) {
		if err != nil {
			a.logger.Warn("config reload failed", "error", err)
			return
		}
		if cfg.SlogLevel() != a.level.Level() {
			a.level.Set(cfg.SlogLevel())
			a.logger.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	if err != nil {
		a.logger.Warn("config watch stopped", "error", err)
	}
}
