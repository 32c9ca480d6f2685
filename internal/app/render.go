package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
	"github.com/blackwell-systems/clientdash/internal/output"
	"github.com/blackwell-systems/clientdash/internal/records"
	"github.com/blackwell-systems/clientdash/internal/source"
)

func renderMetrics(w io.Writer, m analyzer.Metrics) {
	fmt.Fprintln(w, output.Section("Overview"))
	fmt.Fprintln(w, output.MetricLine("Total clients", strconv.Itoa(m.TotalClients), ""))
	fmt.Fprintln(w, output.MetricLine("Total headshots", strconv.Itoa(m.TotalHeadshots), ""))
	fmt.Fprintln(w, output.MetricLine("Total revenue", output.Currency(m.TotalRevenue), ""))
	fmt.Fprintln(w, output.MetricLine("Active clients", strconv.Itoa(m.ActiveClients), output.Percent(m.ActiveRatio)+" of total"))
	fmt.Fprintln(w, output.MetricLine("Average price", output.OptionalCurrency(m.AveragePrice), ""))
}

func renderStatus(w io.Writer, b analyzer.StatusBreakdown) {
	fmt.Fprintln(w, output.Section("Status"))
	if len(b) == 0 {
		fmt.Fprintln(w, " "+output.StyleMuted.Render("No clients."))
		return
	}
	for _, s := range b {
		label := fmt.Sprintf("%s (%d)", s.Category, s.Count)
		fmt.Fprintln(w, " "+output.StyleLabel.Render(label)+output.PercentBar(s.Percentage, 30, output.StatusStyle(s.Category)))
	}
}

func renderRevenue(w io.Writer, series []analyzer.RevenuePoint) {
	fmt.Fprintln(w, output.Section("Revenue"))
	t := output.NewTable("Period", "Actual", "Target", "vs target").AlignRight(1, 2, 3)
	for _, p := range series {
		actual := output.Currency(p.Actual)
		if !p.Measured {
			actual = output.StyleMuted.Render(actual)
		}
		t.AddRow(p.Period, actual, output.StyleMuted.Render(output.Currency(p.SyntheticTarget)), output.Delta(p.Actual-p.SyntheticTarget))
	}
	t.Fprint(w)
	fmt.Fprintln(w, " "+output.StyleMuted.Render("Targets are synthetic goals. Dimmed months had no records."))
}

func renderRecords(w io.Writer, recs []records.ClientRecord, page, pages, total int) {
	fmt.Fprintln(w, output.Section("Clients"))
	if total == 0 {
		fmt.Fprintln(w, " "+output.StyleMuted.Render("No clients."))
		return
	}

	withDate := false
	for _, r := range recs {
		if r.Date != "" {
			withDate = true
			break
		}
	}

	headers := []string{"Client", "Headshots", "Price", "Status", "Email"}
	if withDate {
		headers = append(headers, "Date")
	}
	t := output.NewTable(headers...).AlignRight(1, 2)
	for _, r := range recs {
		row := []string{
			r.Name,
			r.HeadshotCount,
			output.Price(r.Price),
			output.StatusStyle(analyzer.Classify(r.Status)).Render(r.Status),
			r.Email,
		}
		if withDate {
			row = append(row, r.Date)
		}
		t.AddRow(row...)
	}
	t.Fprint(w)
	fmt.Fprintln(w, " "+output.StyleMuted.Render(fmt.Sprintf("Page %d of %d (%d clients)", page, max(pages, 1), total)))
}

// renderDiagnostics notes rows that were dropped or columns that were
// ignored while loading.
func renderDiagnostics(w io.Writer, snap *source.Snapshot) {
	d := snap.Diagnostics
	if d.DroppedRows > 0 {
		fmt.Fprintln(w, " "+output.StyleWarning.Render(fmt.Sprintf("%d of %d rows skipped for a missing client name", d.DroppedRows, d.TotalRows)))
	}
	if len(d.UnknownColumns) > 0 {
		fmt.Fprintln(w, " "+output.StyleMuted.Render(fmt.Sprintf("Ignored columns: %v", d.UnknownColumns)))
	}
}
