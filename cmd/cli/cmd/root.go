// Package cmd provides the CLI commands for avd-cost.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"avd-cost/internal/config"
	"avd-cost/internal/logging"
)

// Version is the CLI version, overridable at link time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "avd-cost",
	Short: "Estimate the per-user monthly price of a virtual desktop offering",
	Long: `avd-cost prices an Azure Virtual Desktop offering per user and month.

It combines live retail prices for session host VMs and profile storage with
fixed business constants (margin, autoscale factor, storage per user).
Unavailable or implausible retail prices are replaced by fallback prices.

Examples:
  avd-cost quote --users 25
  avd-cost quote --users 25 --format json
  avd-cost serve --addr :8080
  avd-cost config show --config avd-cost.yaml`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.json, .yaml or .hcl)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "avd-cost version %s\n", Version)
	},
}
