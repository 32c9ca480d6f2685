package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
	"github.com/blackwell-systems/clientdash/internal/records"
)

var (
	recordsPage    int
	recordsPerPage int
	recordsStatus  string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List client records page by page",
	Long: `List the client records in sheet order. Prices are shown formatted;
cells that are not numbers are shown as entered.

Examples:
  clientdash records                     # first page
  clientdash records --page 2            # second page
  clientdash records --status pending    # only Pending clients`,
	Args: cobra.NoArgs,
	RunE: runRecords,
}

func init() {
	recordsCmd.Flags().IntVar(&recordsPage, "page", 1, "Page number, starting at 1")
	recordsCmd.Flags().IntVar(&recordsPerPage, "per-page", 0, "Records per page (default: page_size from config)")
	recordsCmd.Flags().StringVar(&recordsStatus, "status", "", "Only show one status category: active, pending, inactive or other")
	rootCmd.AddCommand(recordsCmd)
}

// recordsOutput is the JSON form of one page of records.
type recordsOutput struct {
	Page    int                    `json:"page"`
	PerPage int                    `json:"per_page"`
	Pages   int                    `json:"pages"`
	Total   int                    `json:"total"`
	Records []records.ClientRecord `json:"records"`
}

func runRecords(cmd *cobra.Command, args []string) error {
	if recordsPage < 1 {
		return fmt.Errorf("--page must be at least 1, got %d", recordsPage)
	}
	var filter *analyzer.Category
	if recordsStatus != "" {
		c, err := analyzer.ParseCategory(recordsStatus)
		if err != nil {
			return err
		}
		filter = &c
	}

	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.load(cmd.Context()); err != nil {
		return err
	}

	perPage := recordsPerPage
	if perPage <= 0 {
		perPage = s.cfg.PageSize
	}
	rs := s.ctrl.Records()
	if filter != nil {
		rs = analyzer.FilterByCategory(rs, *filter)
	}
	page, pages := rs.Page(recordsPage, perPage)

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, recordsOutput{
			Page:    recordsPage,
			PerPage: perPage,
			Pages:   pages,
			Total:   rs.Len(),
			Records: page,
		})
	}

	renderDiagnostics(w, s.ctrl.Snapshot())
	renderRecords(w, page, recordsPage, pages, rs.Len())
	fmt.Fprintln(w)
	return nil
}
