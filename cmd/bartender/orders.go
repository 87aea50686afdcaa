package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aretw0/bartender/internal/cli"
	"github.com/aretw0/bartender/pkg/adapters/events"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/spf13/cobra"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Follow placed orders",
}

var ordersTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print every order published on the events topic",
	Long: `Consumes the order stream (events.driver=redis) and prints one JSON object
per placed order, the way a ticket printer would receive them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		if stack.Subscriber == nil {
			return errors.New("events.driver is none: no orders are published")
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Stop()

		enc := json.NewEncoder(cmd.OutOrStdout())
		return events.ConsumeOrders(sc, stack.Subscriber, stack.Orders.Topic(), stack.Logger,
			func(ctx context.Context, e *domain.OrderEvent) error {
				return enc.Encode(e)
			})
	},
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersTailCmd)
}
