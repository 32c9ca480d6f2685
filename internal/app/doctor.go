package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/clientdash/internal/config"
	"github.com/blackwell-systems/clientdash/internal/output"
	"github.com/blackwell-systems/clientdash/internal/source"
)

const doctorDialTimeout = 3 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the clientdash setup is healthy",
	Long: `Run a series of health checks against the clientdash configuration, the
client sheet and the assistant webhook. Prints a pass/fail line for each
check and a summary of how many checks passed. The webhook is only probed
for a TCP connection; no chat message is sent.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	ctx := cmd.Context()
	var checks []doctorCheck
	checks = append(checks, checkConfigFile(flagConfig))
	checks = append(checks, checkSourceConfigured(s.cfg.SourceURL))
	if s.cfg.SourceURL != "" {
		load := checkSourceReachable(ctx, s)
		checks = append(checks, load)
		if load.Passed {
			checks = append(checks, checkSheetColumns(s.ctrl.Snapshot()))
		}
	}
	checks = append(checks, checkWebhook(ctx, s.cfg.WebhookURL))
	if s.cfg.Log.File != "" {
		checks = append(checks, checkLogDir(s.cfg.Log.File))
	}
	checks = append(checks, checkWatchDaemon())

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		})
	}

	fmt.Fprintln(w, output.Section("Doctor"))
	fmt.Fprintln(w)
	for _, c := range checks {
		renderDoctorCheck(w, c)
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Fprintf(w, " %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Fprintf(w, " %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

func renderDoctorCheck(w io.Writer, c doctorCheck) {
	indicator := output.StyleSuccess.Render("✓")
	if !c.Passed {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(fmt.Sprintf("%-24s", c.Name))
	fmt.Fprintf(w, "  %s  %s %s\n", indicator, label, output.StyleMuted.Render(c.Message))
}

// checkConfigFile reports which config file is in effect. Running on
// defaults alone is fine.
func checkConfigFile(explicit string) doctorCheck {
	path := explicit
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		if explicit != "" {
			return doctorCheck{Name: "Config file", Passed: false, Message: fmt.Sprintf("not found: %s", path)}
		}
		return doctorCheck{Name: "Config file", Passed: true, Message: "none, using defaults and environment"}
	}
	return doctorCheck{Name: "Config file", Passed: true, Message: path}
}

func checkSourceConfigured(sourceURL string) doctorCheck {
	if sourceURL == "" {
		return doctorCheck{
			Name:    "Source URL",
			Passed:  false,
			Message: "not set (source_url, CLIENTDASH_SOURCE_URL or --source)",
		}
	}
	return doctorCheck{Name: "Source URL", Passed: true, Message: sourceURL}
}

// checkSourceReachable loads the sheet once.
func checkSourceReachable(ctx context.Context, s *session) doctorCheck {
	if err := s.load(ctx); err != nil {
		return doctorCheck{Name: "Client sheet", Passed: false, Message: err.Error()}
	}
	snap := s.ctrl.Snapshot()
	return doctorCheck{
		Name:    "Client sheet",
		Passed:  true,
		Message: fmt.Sprintf("%d clients loaded", snap.Records.Len()),
	}
}

// checkSheetColumns flags rows dropped for a blank client name and headers
// that do not map to a record field.
func checkSheetColumns(snap *source.Snapshot) doctorCheck {
	d := snap.Diagnostics
	switch {
	case d.DroppedRows > 0:
		return doctorCheck{
			Name:    "Sheet rows",
			Passed:  false,
			Message: fmt.Sprintf("%d of %d rows have no client name and are skipped", d.DroppedRows, d.TotalRows),
		}
	case len(d.UnknownColumns) > 0:
		return doctorCheck{
			Name:    "Sheet rows",
			Passed:  true,
			Message: fmt.Sprintf("all %d rows usable; ignoring columns %v", d.TotalRows, d.UnknownColumns),
		}
	default:
		return doctorCheck{Name: "Sheet rows", Passed: true, Message: fmt.Sprintf("all %d rows usable", d.TotalRows)}
	}
}

// checkWebhook verifies the webhook URL parses and its host accepts TCP
// connections.
func checkWebhook(ctx context.Context, webhookURL string) doctorCheck {
	if webhookURL == "" {
		return doctorCheck{Name: "Assistant webhook", Passed: false, Message: "not configured; chat is disabled"}
	}
	u, err := url.Parse(webhookURL)
	if err != nil || u.Host == "" {
		return doctorCheck{Name: "Assistant webhook", Passed: false, Message: fmt.Sprintf("invalid URL: %s", webhookURL)}
	}
	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	d := net.Dialer{Timeout: doctorDialTimeout}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return doctorCheck{Name: "Assistant webhook", Passed: false, Message: fmt.Sprintf("unreachable: %v", err)}
	}
	_ = conn.Close()
	return doctorCheck{Name: "Assistant webhook", Passed: true, Message: webhookURL}
}

// checkLogDir verifies the log file directory exists or can be created.
func checkLogDir(path string) doctorCheck {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return doctorCheck{Name: "Log file", Passed: false, Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	return doctorCheck{Name: "Log file", Passed: true, Message: path}
}

// checkWatchDaemon reports the watch daemon. Not running is not a failure.
func checkWatchDaemon() doctorCheck {
	pid, err := readPID()
	if err != nil {
		return doctorCheck{Name: "Watch daemon", Passed: true, Message: "not running"}
	}
	if !processExists(pid) {
		return doctorCheck{
			Name:    "Watch daemon",
			Passed:  false,
			Message: fmt.Sprintf("PID %d is not running (stale PID file %s)", pid, pidFilePath()),
		}
	}
	return doctorCheck{Name: "Watch daemon", Passed: true, Message: fmt.Sprintf("running (PID %d)", pid)}
}
