package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/web/internal/config"
	"storefront/web/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront web front end",
	Long: `storefront serves the shop navigation derived from the catalog backend,
keeps the shopping cart in sync across instances and gates the account page
on the backend session.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Initialize container with all dependencies
		app, err := container.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := app.Run(ctx); err != nil {
			return fmt.Errorf("application exited with error: %w", err)
		}

		log.Info("Application finished successfully")
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.ConfigureLogging(cfg.Log); err != nil {
		return nil, err
	}
	log.Info("Configuration loaded successfully")
	return cfg, nil
}

func main() {
	log.Info("Starting storefront...")

	rootCmd.AddCommand(serveCmd, routesCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
