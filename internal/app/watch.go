package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/clientdash/internal/config"
	"github.com/blackwell-systems/clientdash/internal/logger"
	"github.com/blackwell-systems/clientdash/internal/output"
	"github.com/blackwell-systems/clientdash/internal/source"
	"github.com/blackwell-systems/clientdash/internal/watcher"
)

const minWatchInterval = 10 * time.Second

var (
	watchDaemon   bool
	watchInterval time.Duration
	watchStop     bool
	watchQuiet    bool
	watchDropPct  float64
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh the sheet on an interval and alert on changes",
	Long: `Reload the client sheet periodically and compare each load with the
previous one. New or removed clients, revenue moves, active share shifts and
failed refreshes are reported in the terminal and as desktop notifications.
A failed refresh keeps the last good data.

Examples:
  clientdash watch                    # run in foreground (ctrl-c to stop)
  clientdash watch --interval 1m      # check every minute
  clientdash watch --daemon           # run detached, write PID and log files
  clientdash watch --stop             # stop the background daemon`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Check interval (default: refresh_interval from config)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	watchCmd.Flags().Float64Var(&watchDropPct, "revenue-drop", 10, "Revenue drop in percent that raises a warning")
	rootCmd.AddCommand(watchCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon(cmd.OutOrStdout())
	}

	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	interval := watchInterval
	if interval == 0 {
		interval = s.cfg.RefreshInterval
	}
	if interval < minWatchInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minWatchInterval, interval)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
	defer stop()

	// A failed first load is not fatal: the watcher keeps retrying the
	// source and reports recovery.
	if err := s.load(ctx); err != nil {
		if errors.Is(err, source.ErrNoSource) {
			return err
		}
		s.log.Warn("app", "initial load failed", map[string]any{"error": err.Error()})
	}

	if watchDaemon {
		return runDaemon(ctx, s, interval)
	}
	return runForeground(ctx, s, cmd.OutOrStdout(), interval)
}

// runForeground runs the watcher with live terminal output.
func runForeground(ctx context.Context, s *session, w io.Writer, interval time.Duration) error {
	if !watchQuiet {
		fmt.Fprintf(w, "clientdash watching %s (checking every %s)\n", s.ctrl.SourceRef(), interval)
	}

	alertFn := func(a watcher.Alert) {
		_ = watcher.Notify(a)
		if !watchQuiet {
			printAlert(w, a)
		}
	}

	wt := watcher.New(s.ctrl, interval, alertFn)
	wt.RevenueDropPct = watchDropPct

	if !watchQuiet {
		snap := s.ctrl.Snapshot()
		fmt.Fprintf(w, "[%s] %s %s, %s revenue\n",
			time.Now().Format("15:04:05"),
			checkMark(),
			snapshotLabel(snap),
			output.Currency(snap.Metrics.TotalRevenue))
	}

	err := wt.Run(ctx)
	if errors.Is(err, context.Canceled) {
		if !watchQuiet {
			fmt.Fprintln(w, "\nStopped.")
		}
		return nil
	}
	return err
}

// runDaemon writes the PID file and logs alerts to a rotated log file. The
// actual backgrounding is left to the caller (nohup, &, a service manager)
// since Go cannot reliably fork.
func runDaemon(ctx context.Context, s *session, interval time.Duration) error {
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		_ = os.Remove(pidFilePath())
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	logPath := s.cfg.Log.File
	if logPath == "" {
		logPath = logFilePath()
	}
	log := logger.NewZapLogger(logger.Options{
		FilePath:   logPath,
		Level:      "error",
		Console:    io.Discard,
		MaxSizeMB:  s.cfg.Log.MaxSizeMB,
		MaxBackups: s.cfg.Log.MaxBackups,
		MaxAgeDays: s.cfg.Log.MaxAgeDays,
	})
	defer func() { _ = log.Sync() }()

	log.Info("watch", "daemon started", map[string]any{"pid": pid, "interval": interval.String(), "source": s.ctrl.SourceRef()})

	alertFn := func(a watcher.Alert) {
		_ = watcher.Notify(a)
		log.Info("watch", a.Title, map[string]any{"level": a.Level, "message": a.Message})
	}

	wt := watcher.New(s.ctrl, interval, alertFn)
	wt.RevenueDropPct = watchDropPct

	err := wt.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("watch", "daemon stopped", nil)
		return nil
	}
	return err
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}

// printAlert formats and prints an alert to the terminal.
func printAlert(w io.Writer, a watcher.Alert) {
	timestamp := a.Time.Format("15:04:05")
	fmt.Fprintf(w, "[%s] %s %s\n", timestamp, alertIcon(a.Level), a.Title)
	if a.Message != "" {
		fmt.Fprintf(w, "         %s\n", a.Message)
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case "critical":
		return output.StyleError.Render("✗")
	case "warning":
		return output.StyleWarning.Render("!")
	case "info":
		return output.StyleSuccess.Render("✓")
	default:
		return " "
	}
}

// checkMark returns a terminal check mark indicator.
func checkMark() string {
	return output.StyleSuccess.Render("✓")
}
