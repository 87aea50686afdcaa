package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/bartender/internal/cli"
	"github.com/aretw0/bartender/pkg/adapters/catalog"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Work with the beer catalog",
}

var catalogServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local catalog over HTTP",
	Long: `Serves the embedded sample catalog, or catalog.data_dir, with the HTTP API
that bots configured with catalog.url consume.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		if stack.Repository == nil {
			return errors.New("catalog.url is set: there is no local catalog to serve")
		}
		addr, _ := cmd.Flags().GetString("addr")
		srv := &http.Server{
			Addr:              addr,
			Handler:           catalog.NewHandler(stack.Repository, stack.Logger),
			ReadHeaderTimeout: stack.Config.HTTP.ReadHeaderTimeout,
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Stop()

		serverErrors := make(chan error, 1)
		go func() {
			stack.Logger.Info("serving catalog", "addr", addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err
		case <-sc.Done():
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogServeCmd)
	catalogServeCmd.Flags().String("addr", ":8081", "Address to listen on")
}
