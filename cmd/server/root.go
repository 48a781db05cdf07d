package main

import (
	"fmt"
	"os"

	"genquota-server/internal/config"
	"genquota-server/internal/domain"
	"genquota-server/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

// rootCmd starts the server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "genquota-server",
	Short: "Quota gate for AI image generation",
	Long: `genquota-server decides which tier pays for an image generation
(subscription, purchased credits or free allowance), runs it against
Vertex AI and charges the device only when an image comes back.

  genquota-server serve                 # Start the HTTP server
  genquota-server ledger show <device>  # Inspect a device's counters`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadEnv()
	},
	RunE: runServe,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

func loadEnv() {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: %s could not be loaded: %v\n", envFile, err)
	}
}

func newAppLogger(cfg *config.AppConfig) domain.Logger {
	return logger.NewLogger(cfg.GetLogLevel(), cfg.GetLogFormat())
}
