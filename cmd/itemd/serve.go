package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loykin/itemd/internal/config"
	"github.com/loykin/itemd/internal/health"
	"github.com/loykin/itemd/internal/history"
	"github.com/loykin/itemd/internal/history/factory"
	"github.com/loykin/itemd/internal/item"
	"github.com/loykin/itemd/internal/logger"
	"github.com/loykin/itemd/internal/metrics"
	"github.com/loykin/itemd/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// ServeFlags holds flags for the serve command
type ServeFlags struct {
	NonBlocking bool
}

func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the itemd server",
		Long: `Start the HTTP server. Configuration comes from the optional TOML file
and ITEMD_* environment variables; PORT sets the listen port.

Examples:
  itemd serve
  PORT=8080 itemd serve
  itemd serve config.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigPath
			if len(args) > 0 {
				path = args[0]
			}
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if serveFlags.NonBlocking {
				// start, report the address, and stop again
				c, cancel := context.WithCancel(ctx)
				ctx = c
				return runServe(ctx, cfg, func(addr string) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "itemd listening on %s\n", addr)
					cancel()
				})
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, nil)
		},
	}

	cmd.Flags().BoolVar(&serveFlags.NonBlocking, "non-blocking", false, "start and immediately shut down (smoke test)")

	return cmd
}

// runServe starts the daemon described by cfg and blocks until ctx is done.
// ready, if set, is called with the bound address once the listener is open.
func runServe(ctx context.Context, cfg *config.Config, ready func(addr string)) error {
	log, logCloser, err := logger.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(log)

	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			slog.Warn("failed to register metrics", "error", err)
		}
		if cfg.Metrics.Listen != "" {
			msrv := metrics.NewServer(cfg.Metrics.Listen)
			mln, err := net.Listen("tcp", msrv.Addr)
			if err != nil {
				return fmt.Errorf("metrics listen %s: %w", msrv.Addr, err)
			}
			go func() {
				if err := msrv.Serve(mln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("metrics server error", "error", err)
				}
			}()
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = msrv.Shutdown(sctx)
				// Shutdown may run before Serve has tracked the listener
				_ = mln.Close()
			}()
			slog.Info("serving prometheus metrics", "addr", mln.Addr().String())
		}
	}

	store := item.NewStore()
	sinks, err := factory.NewSinks(cfg.History.DSNs)
	if err != nil {
		return fmt.Errorf("open history sinks: %w", err)
	}
	defer func() {
		if err := history.CloseAll(sinks); err != nil {
			slog.Warn("closing history sinks", "error", err)
		}
	}()
	store.SetHistorySinks(sinks...)

	srv, err := server.NewServer(cfg.Server, store, health.NewReporter())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	protocol := "HTTP"
	if srv.TLSConfig != nil {
		protocol = "HTTPS"
	}
	slog.Info("starting itemd", "protocol", protocol, "addr", ln.Addr().String(),
		"base_path", cfg.Server.BasePath, "history_sinks", len(sinks))

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(srv, ln) }()
	if ready != nil {
		ready(ln.Addr().String())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
