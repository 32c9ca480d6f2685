package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/clientdash/internal/server"
	"github.com/blackwell-systems/clientdash/internal/watcher"
)

var (
	serveAddr      string
	serveNoRefresh bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard as a JSON HTTP API",
	Long: `Start an HTTP server exposing the dashboard:

  GET  /api/state     controller state, version and load diagnostics
  GET  /api/records   ?page=&per_page=&status=
  GET  /api/metrics   totals and averages
  GET  /api/status    per-category counts and shares
  GET  /api/revenue   monthly revenue series
  GET  /api/chat      chat log
  POST /api/refresh   reload the sheet (previous data kept on failure)
  POST /api/chat      {"message": "..."} to the assistant
  POST /api/update    replace the records from a JSON payload

The sheet is also reloaded every refresh_interval unless --no-refresh is
given. Set server.token to require a bearer token.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
	serveCmd.Flags().BoolVar(&serveNoRefresh, "no-refresh", false, "Do not reload the sheet periodically")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
	defer stop()

	// Serve even when the sheet is unavailable; POST /api/refresh and
	// /api/update can fill it later.
	if err := s.load(ctx); err != nil {
		s.log.Warn("app", "initial load failed", map[string]any{"error": err.Error()})
	}

	addr := serveAddr
	if addr == "" {
		addr = s.cfg.Server.Addr
	}
	deps := server.Deps{
		Dashboard: s.ctrl,
		PageSize:  s.cfg.PageSize,
		Token:     s.cfg.Server.Token,
		Logger:    s.log,
	}
	if s.chat != nil {
		deps.Chat = s.chat
	}
	srv := server.New(addr, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, func(bound string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "clientdash listening on http://%s\n", bound)
		})
	})
	if !serveNoRefresh && s.ctrl.SourceRef() != "" {
		g.Go(func() error {
			wt := watcher.New(s.ctrl, s.cfg.RefreshInterval, func(a watcher.Alert) {
				s.log.Info("watch", a.Title, map[string]any{"level": a.Level, "message": a.Message})
			})
			if err := wt.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
