package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "specgate",
	Short: "OpenAPI-driven dispatch gateway with response-contract auditing",
	Long: `SpecGate routes HTTP requests to handler modules resolved from an
OpenAPI document, then audits every response against the contract the
document declares. A response that violates its schema is delivered
unchanged and the violation is logged, counted, and stored.

Quick start:
  specgate serve --example   # Serve the bundled petstore
  specgate serve             # Serve with your own modules

Management:
  specgate validate          # Validate config, document, and coverage`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "specgate.yaml", "config file path")
}
