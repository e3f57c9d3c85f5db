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

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server until SIGINT/SIGTERM.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "campaigns-api",
		Short:        "Campaign operations API server",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "Config file path (YAML); CAMPAIGNS_* env vars override it")
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := logging.New(cfg, "api", cmd.OutOrStdout())

			app, err := bootstrap.BuildAPI(cfg, logger)
			if err != nil {
				return fmt.Errorf("bootstrap api: %w", err)
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("api shutdown close failed", "error", err.Error())
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return bootstrap.Migrate(cfg, logging.New(cfg, "migrate", cmd.OutOrStdout()))
		},
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

