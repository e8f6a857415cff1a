package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-formdoc/internal/server"
	"github.com/benjaminschreck/go-formdoc/pkg/formdoc"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr            string
		shutdownTimeout time.Duration
		jsonLogs        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built-in forms over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.config.Addr
			}
			opts := []server.Option{}
			if jsonLogs {
				opts = append(opts, server.WithLogger(formdoc.NewJSONLogger(cmd.ErrOrStderr(), a.config.LogLevel)))
			}
			srv := server.New(a.engine, opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return run(ctx, srv.HTTPServer(addr), ln, shutdownTimeout, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from FORMDOC_ADDR)")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "time allowed for in-flight requests on shutdown")
	cmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "write request logs as JSON")
	return cmd
}

// run serves on ln until ctx is done, then shuts hs down.
func run(ctx context.Context, hs *http.Server, ln net.Listener, timeout time.Duration, a *app) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.WithField("addr", ln.Addr().String()).Info("listening")
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
