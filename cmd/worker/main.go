package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/app/bootstrap"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/config"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/logging"

	"github.com/spf13/cobra"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Run the outbox relay and lifecycle consumer until SIGINT/SIGTERM.
func main() {
	if err := newWorkerCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "campaigns-worker",
		Short:        "Relay lifecycle events from the outbox",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := logging.New(cfg, "worker", cmd.OutOrStdout())

			app, err := bootstrap.BuildWorker(cfg, logger)
			if err != nil {
				return fmt.Errorf("bootstrap worker: %w", err)
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("worker shutdown close failed", "error", err.Error())
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
	cmd.Flags().String("config", "", "Config file path (YAML); CAMPAIGNS_* env vars override it")
	return cmd
}
