package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir string
	dev     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "siftin",
	Short: "Siftin engine: local lead capture and routing backend",
	Long: `siftin runs the local engine behind the Siftin UI.

It serves leads, runs, exports and the capture wizard over HTTP from
bundled fixtures. Nothing is collected from LinkedIn and every restart
begins again from the fixtures.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if dev {
			cfg = zap.NewDevelopmentConfig()
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP engine",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the engine configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the user config file and print errors and warnings",
	RunE:  runConfigValidate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the user config file path",
	RunE:  runConfigPath,
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Query the bundled leads offline",
	Long: `Filters, sorts and pages the bundled lead fixtures with the same
parameters the HTTP API accepts, and prints the page as JSON.

Example:
  siftin leads --min-score 80 --sort title_az --page-size 10`,
	RunE: runLeads,
}

func defaultDataDir() string {
	if v := os.Getenv("SIFTIN_DATA_DIR"); v != "" {
		return v
	}
	return "."
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "engine data directory (config.yml, lock file)")
	rootCmd.PersistentFlags().BoolVar(&dev, "dev", false, "human readable debug logging")

	addLeadsFlags(leadsCmd)

	configCmd.AddCommand(configValidateCmd, configPathCmd)
	rootCmd.AddCommand(serveCmd, configCmd, leadsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
