// Package cmd - quote command
package cmd

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"avd-cost/api/v1/mapping"
	"avd-cost/core/engine"
	"avd-cost/core/pricing"
	"avd-cost/internal/app"
	"avd-cost/internal/config"
	"avd-cost/internal/errors"
	"avd-cost/internal/logging"
)

var (
	quoteUsers  int
	quoteTier   string
	quoteFormat string
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price the offering for a number of users",
	Long: `Look up current retail prices and print the per-user monthly price.

Examples:
  avd-cost quote
  avd-cost quote --users 40 --tier Premium
  avd-cost quote --users 40 --format json`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().IntVarP(&quoteUsers, "users", "u", engine.DefaultUsers, "number of desktop users")
	quoteCmd.Flags().StringVarP(&quoteTier, "tier", "t", engine.DefaultTier, "service tier (informational)")
	quoteCmd.Flags().StringVarP(&quoteFormat, "format", "f", "text", "output format (text, json)")
}

func runQuote(cmd *cobra.Command, args []string) error {
	if quoteFormat != "text" && quoteFormat != "json" {
		return errors.Input(fmt.Sprintf("unsupported format %q", quoteFormat))
	}

	a, err := app.New(config.Get(), logging.Logger, nil)
	if err != nil {
		return err
	}

	breakdown, err := a.Estimator.Estimate(cmd.Context(), engine.Params{Users: quoteUsers, Tier: quoteTier})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if quoteFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(mapping.MapPriceResponse(breakdown))
	}

	printQuote(out, breakdown, a.Estimator.Constants())
	return nil
}

func printQuote(w io.Writer, b *engine.Breakdown, c pricing.Constants) {
	line := func(label, value string) {
		fmt.Fprintf(w, "│ %-40s %20s │\n", label, value)
	}
	money := func(label string, v fmt.Stringer) {
		line(label, "$"+v.String())
	}

	fmt.Fprintln(w, "┌───────────────────────────────────────────────────────────────┐")
	fmt.Fprintln(w, "│                     AVD PRICE ESTIMATE                        │")
	fmt.Fprintln(w, "├───────────────────────────────────────────────────────────────┤")
	line("Users", fmt.Sprintf("%d", b.Users))
	line("Session host VMs", fmt.Sprintf("%d", b.VMs))
	line("Tier", b.Tier)
	fmt.Fprintln(w, "├───────────────────────────────────────────────────────────────┤")
	money("Compute", b.ComputeCost.Round(2))
	money("Storage", b.StorageCost.Round(2))
	money("Private Link", b.PrivateLinkCost.Round(2))
	money("Defender", b.DefenderCost.Round(2))
	money("Total before margin", b.GrossCost.Round(2))
	line("Margin", "x"+c.Margin.StringFixed(2))
	money("Total with margin", b.TotalWithMargin.Round(2))
	fmt.Fprintln(w, "├───────────────────────────────────────────────────────────────┤")
	line("VM price / month ("+b.ComputeSource.String()+")", "$"+b.ComputeUnitPrice.Round(2).String())
	line("Storage price / GB ("+b.StorageSource.String()+")", "$"+b.StorageUnitPrice.String())
	line("Autoscale factor", c.AutoscaleFactor.StringFixed(2))
	line("Users per VM", fmt.Sprintf("%d", c.UsersPerVM))
	fmt.Fprintln(w, "├───────────────────────────────────────────────────────────────┤")
	line("PRICE PER "+b.Per, fmt.Sprintf("%s %s", b.PricePerUser.StringFixed(2), b.Currency))
	fmt.Fprintln(w, "└───────────────────────────────────────────────────────────────┘")
}
