// Package main - sinewave-watch
// Connects a number of viewers to a running server and checks that every
// viewer sees the counter advance by exactly one per frame.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := Config{}

	cmd := &cobra.Command{
		Use:          "sinewave-watch",
		Short:        "Watch a sine-wave server with concurrent viewers and verify frame ordering",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Duration)
			defer cancel()
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			printHeader(cmd.OutOrStdout(), cfg)
			stats := Watch(ctx, cfg)
			return printResults(cmd.OutOrStdout(), stats, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.ServerURL, "url", "ws://localhost:8080/ws", "WebSocket server URL")
	cmd.Flags().IntVar(&cfg.NumClients, "clients", 5, "number of concurrent viewers")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 10*time.Second, "how long to watch")
	return cmd
}
