package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/clientdash/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server exposing the dashboard",
	Long: `Start a Model Context Protocol stdio server so an MCP client can read
and drive the dashboard. The server exposes these tools:

  get_metrics           Totals, active clients and average price
  get_status_breakdown  Count and share per status category
  get_revenue_series    Monthly revenue with the target line
  get_records           One page of records, optionally filtered by status
  refresh_data          Reload the sheet, keeping old data on failure
  send_chat_message     Talk to the assistant webhook (when configured)
  get_chat_log          The chat log of this session (when configured)

Example client configuration:
  {"mcpServers":{"clientdash":{"command":"clientdash","args":["mcp"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	// Logs must stay off stdout, which carries the protocol.
	s, err := newSession(os.Stderr)
	if err != nil {
		return err
	}
	defer s.close()

	if s.cfg.SourceURL != "" {
		if err := s.load(cmd.Context()); err != nil {
			s.log.Warn("app", "initial load failed", map[string]any{"error": err.Error()})
		}
	}

	opts := mcp.Options{PageSize: s.cfg.PageSize, Version: appVersion, Logger: s.log}
	var srv *mcp.Server
	if s.chat != nil {
		srv = mcp.NewServer(s.ctrl, s.chat, opts)
	} else {
		srv = mcp.NewServer(s.ctrl, nil, opts)
	}
	return srv.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}
