// Package app contains the Cobra command tree for clientdash.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
	flagSource  string
)

var rootCmd = &cobra.Command{
	Use:   "clientdash",
	Short: "Client records dashboard for a published sheet",
	Long: `clientdash loads a published client sheet (CSV), normalizes the rows,
and shows totals, a status breakdown and a monthly revenue series. A chat
assistant reachable over a webhook can answer questions and replace the
dashboard data with its replies.

Run 'clientdash' with no arguments to see the dashboard summary.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runDashboard,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/clientdash/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "Published CSV URL of the client sheet (overrides source_url)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}
