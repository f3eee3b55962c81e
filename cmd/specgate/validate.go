package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/specgate/specgate/adapters/sqlite"
	"github.com/specgate/specgate/config"
	"github.com/specgate/specgate/core/contract"
	"github.com/specgate/specgate/core/registry"
	"github.com/specgate/specgate/core/resolve"
	"github.com/specgate/specgate/core/spec"
	"github.com/specgate/specgate/modules/petstore"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and document before deployment",
	Long: `Validate the SpecGate configuration and the OpenAPI document.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - The document parses and its response schemas compile
  - Every operation resolves to a registered module (optional)
  - Database is writable (optional)

Examples:
  specgate validate
  specgate validate --config /etc/specgate/config.yaml --check-coverage`,
	RunE: runValidate,
}

var (
	validateCheckCoverage bool
	validateCheckDatabase bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckCoverage, "check-coverage", false, "check that every operation resolves to a bundled module")
	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	// Parse the document
	doc, err := spec.Load(cfg.Spec.Path)
	if err != nil {
		fmt.Printf("  %s Document parses\n", crossMark)
		return fmt.Errorf("document error: %w", err)
	}
	fmt.Printf("  %s Document parses: %s (%d paths, %d operations)\n",
		checkMark, cfg.Spec.Path, len(doc.Paths()), len(doc.Operations()))

	// Compile response schemas
	if _, err := contract.NewValidator(doc); err != nil {
		fmt.Printf("  %s Response schemas compile\n", crossMark)
		return fmt.Errorf("schema error: %w", err)
	}
	fmt.Printf("  %s Response schemas compile\n", checkMark)

	fmt.Printf("  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)

	// Optional: check every operation resolves against the bundled modules
	if validateCheckCoverage {
		controllers := registry.New()
		if _, err := petstore.Register(controllers); err != nil {
			fmt.Printf("  %s Operation coverage\n", crossMark)
			return fmt.Errorf("register bundled modules: %w", err)
		}
		if missing := coverageGaps(cfg.Dispatch.DefaultModule, controllers, doc); len(missing) > 0 {
			fmt.Printf("  %s Operation coverage\n", crossMark)
			for _, m := range missing {
				fmt.Printf("      %s\n", m)
			}
			return fmt.Errorf("%d operations have no handler", len(missing))
		}
		fmt.Printf("  %s Operation coverage\n", checkMark)
	}

	// Optional: check database
	if validateCheckDatabase && cfg.Database.Driver == "sqlite" {
		if err := checkDatabaseWritable(cfg.Database.DSN); err != nil {
			fmt.Printf("  %s Database writable\n", crossMark)
			fmt.Printf("      Error: %v\n", err)
		} else {
			fmt.Printf("  %s Database writable\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

// coverageGaps resolves every document operation against the registered
// modules and reports the ones nothing implements.
func coverageGaps(defaultModule string, controllers *registry.Registry, doc *spec.Document) []string {
	resolver := resolve.New(controllers, defaultModule)

	var missing []string
	for _, op := range doc.Operations() {
		res := resolver.Resolve(op, op.Path)

		mod, ok := controllers.Lookup(res.Module)
		if !ok {
			missing = append(missing, fmt.Sprintf("%s %s -> module %q not registered",
				op.Method, op.Path, res.Module))
			continue
		}
		if _, ok := mod.Operation(res.Operation); !ok {
			missing = append(missing, fmt.Sprintf("%s %s -> %s.%s not implemented",
				op.Method, op.Path, res.Module, res.Operation))
		}
	}
	return missing
}

func checkDatabaseWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Ping()
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
