package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
	"github.com/blackwell-systems/clientdash/internal/output"
	"github.com/blackwell-systems/clientdash/internal/records"
	"github.com/blackwell-systems/clientdash/internal/source"
)

// dashboardOutput is the JSON form of the summary dashboard.
type dashboardOutput struct {
	Source      string                   `json:"source"`
	Version     uint64                   `json:"version"`
	LoadedAt    time.Time                `json:"loaded_at"`
	Diagnostics records.Diagnostics      `json:"diagnostics"`
	Metrics     analyzer.Metrics         `json:"metrics"`
	Status      analyzer.StatusBreakdown `json:"status"`
	Revenue     []analyzer.RevenuePoint  `json:"revenue"`
	Records     []records.ClientRecord   `json:"records"`
}

func runDashboard(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.load(cmd.Context()); err != nil {
		return err
	}
	snap := s.ctrl.Snapshot()
	firstPage, pages := snap.Records.Page(1, s.cfg.PageSize)

	w := cmd.OutOrStdout()
	if flagJSON {
		status := snap.Status
		if status == nil {
			status = analyzer.StatusBreakdown{}
		}
		return writeJSON(w, dashboardOutput{
			Source:      s.ctrl.SourceRef(),
			Version:     snap.Version,
			LoadedAt:    snap.LoadedAt,
			Diagnostics: snap.Diagnostics,
			Metrics:     snap.Metrics,
			Status:      status,
			Revenue:     snap.Revenue,
			Records:     snap.Records.All(),
		})
	}

	fmt.Fprintf(w, " %s %s\n", output.StyleHeader.Render("clientdash"), output.StyleMuted.Render(appVersion))
	fmt.Fprintln(w, " "+output.StyleMuted.Render(fmt.Sprintf("%s, loaded %s", snapshotLabel(snap), snap.LoadedAt.Format("2006-01-02 15:04:05"))))
	renderDiagnostics(w, snap)
	renderMetrics(w, snap.Metrics)
	renderStatus(w, snap.Status)
	renderRevenue(w, snap.Revenue)
	renderRecords(w, firstPage, 1, pages, snap.Records.Len())
	fmt.Fprintln(w)
	return nil
}

func snapshotLabel(snap *source.Snapshot) string {
	return fmt.Sprintf("%d clients (version %d)", snap.Records.Len(), snap.Version)
}
