package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/bartender/internal/cli"
	httpAdapter "github.com/aretw0/bartender/pkg/adapters/http"
	"github.com/aretw0/bartender/pkg/observability"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conversation HTTP server",
	Long: `Starts the bot behind a JSON API over HTTP. Conversations live under
/conversations/{id}; Prometheus metrics are served on /metrics, or on
http.metrics_addr when it is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		cfg := stack.Config.HTTP
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		logger := stack.Logger
		metrics := observability.Handler(stack.Registry)

		handlerOpts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
		servers := []*http.Server{}
		if cfg.MetricsAddr == "" {
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(metrics))
		} else {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics)
			servers = append(servers, &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: cfg.ReadHeaderTimeout})
		}
		servers = append(servers, &http.Server{
			Addr:              cfg.Addr,
			Handler:           httpAdapter.NewHandler(stack.Bot, handlerOpts...),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		})

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Stop()

		g, ctx := errgroup.WithContext(sc)
		for _, srv := range servers {
			g.Go(func() error {
				logger.Info("listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		}
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("shutting down", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			var errs []error
			for _, srv := range servers {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("graceful shutdown did not complete", "addr", srv.Addr, "error", err)
					errs = append(errs, srv.Close())
				}
			}
			return errors.Join(errs...)
		})

		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides http.addr)")
}
