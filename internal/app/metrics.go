package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show client, headshot and revenue totals",
	Long: `Show the dashboard totals: number of clients, headshots, total revenue,
active clients and the average price. Unparseable numeric cells count as 0;
the average is n/a when there are no clients.`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the client count per status category",
	Long: `Classify every client status into Active, Pending, Inactive or Other and
show the count and share of each category present. Matching is a
case-insensitive substring test, checked in this order:

  Active    contains "active" or "completed" (so "Inactive" is Active)
  Pending   contains "pending" or "progress"
  Inactive  contains "inactive" or "cancelled"
  Other     anything else, including blank statuses`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Show monthly revenue against the target line",
	Long: `Show revenue per calendar month. Records are bucketed by their Date column
when the sheet has one; undated records count toward the current month.
Months with no records are zero-filled. The target line is a configured
synthetic goal (revenue.baseline plus revenue.increment per month).`,
	Args: cobra.NoArgs,
	RunE: runRevenue,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(revenueCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.load(cmd.Context()); err != nil {
		return err
	}
	m := s.ctrl.Metrics()

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, m)
	}
	renderMetrics(w, m)
	fmt.Fprintln(w)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.load(cmd.Context()); err != nil {
		return err
	}
	b := s.ctrl.StatusBreakdown()

	w := cmd.OutOrStdout()
	if flagJSON {
		if b == nil {
			b = analyzer.StatusBreakdown{}
		}
		return writeJSON(w, b)
	}
	renderStatus(w, b)
	fmt.Fprintln(w)
	return nil
}

func runRevenue(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.load(cmd.Context()); err != nil {
		return err
	}
	series := s.ctrl.RevenueSeries()

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, series)
	}
	renderRevenue(w, series)
	fmt.Fprintln(w)
	return nil
}
