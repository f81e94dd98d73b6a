// Package cmd - serve command
package cmd

import (
	"github.com/spf13/cobra"

	"avd-cost/internal/app"
	"avd-cost/internal/config"
	"avd-cost/internal/logging"
)

var serveAddr string

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pricing HTTP API",
	Long: `Serve POST /api/v1/price (and the function host route POST /api/HttpTrigger),
plus /health, /ready and /metrics, until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(config.Get(), logging.Logger, nil)
		if err != nil {
			return err
		}

		ctx, stop := app.WithSignals(cmd.Context())
		defer stop()

		return a.Serve(ctx, serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
