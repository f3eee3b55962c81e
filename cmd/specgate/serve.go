package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/specgate/specgate/bootstrap"
	"github.com/specgate/specgate/config"
	"github.com/specgate/specgate/core/registry"
	"github.com/specgate/specgate/modules/petstore"
)

var (
	serveExample bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dispatch gateway",
	Long: `Start the SpecGate server.

The server will:
  - Load configuration from specgate.yaml (or --config)
  - Or load configuration from SPECGATE_* environment variables
  - Parse the OpenAPI document and compile its response schemas
  - Dispatch requests to handler modules and audit every response

Environment variables (for Docker deployments):
  SPECGATE_SPEC_PATH        - OpenAPI document path (required)
  SPECGATE_DATABASE_DSN     - Violation store path (default: specgate.db)
  SPECGATE_SERVER_PORT      - Server port (default: 8080)
  SPECGATE_DEFAULT_MODULE   - Fallback handler module
  SPECGATE_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  specgate serve
  specgate serve --config /etc/specgate/config.yaml
  specgate serve --example

  # Docker (env vars only):
  SPECGATE_SPEC_PATH=/etc/specgate/api.yaml specgate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveExample, "example", false, "register the bundled petstore module")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if !hasConfigFile && !config.HasEnvConfig() {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s with at least spec.path\n", cfgFile)
		fmt.Println("Option 2: Set SPECGATE_SPEC_PATH environment variable")
		fmt.Println()
		fmt.Println("Example (env vars):")
		fmt.Println("  SPECGATE_SPEC_PATH=api.yaml specgate serve --example")
		return nil
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if !hasConfigFile {
		fmt.Println("Running with environment variables (no config file)")
	}

	controllers := registry.New()
	if serveExample {
		if _, err := petstore.Register(controllers); err != nil {
			return fmt.Errorf("register petstore: %w", err)
		}
	}

	app, err := bootstrap.New(cfg, controllers)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// With a config file present, watch it so reloadable settings (log
	// level, retention) apply without a restart.
	if hasConfigFile {
		holder, err := config.NewHolder(cfgFile, app.Logger)
		if err != nil {
			return fmt.Errorf("error watching config: %w", err)
		}
		holder.OnChange(func(c *config.Config) {
			if lvl, err := zerolog.ParseLevel(c.Logging.Level); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
		})
		if err := holder.WatchFile(); err != nil {
			app.Logger.Warn().Err(err).Msg("config watch unavailable")
		}
		holder.WatchSignals()
		defer holder.Stop()
	}

	// Run (blocks until shutdown)
	return app.Run()
}
