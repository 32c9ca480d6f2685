package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Notifier delivers alerts as desktop notifications: osascript on macOS,
// notify-send on Linux, and a line on Fallback everywhere else or when the
// platform tool fails.
type Notifier struct {
	GOOS     string
	Fallback io.Writer

	run      func(name string, args ...string) error
	lookPath func(file string) (string, error)
}

// NewNotifier returns a Notifier for the running platform that falls back
// to stderr.
func NewNotifier() *Notifier {
	return &Notifier{
		GOOS:     runtime.GOOS,
		Fallback: os.Stderr,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
		lookPath: exec.LookPath,
	}
}

var defaultNotifier = NewNotifier()

// Notify sends a desktop notification for a with the default Notifier.
func Notify(a Alert) error {
	return defaultNotifier.Notify(a)
}

// Notify sends a desktop notification for a.
func (n *Notifier) Notify(a Alert) error {
	switch n.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title "clientdash" subtitle %q`, a.Message, a.Title)
		if err := n.run("osascript", "-e", script); err != nil {
			return n.fallback(a)
		}
		return nil
	case "linux":
		if _, err := n.lookPath("notify-send"); err != nil {
			return n.fallback(a)
		}
		args := []string{"-u", urgency(a.Level), "-a", "clientdash", "clientdash: " + a.Title, a.Message}
		if err := n.run("notify-send", args...); err != nil {
			return n.fallback(a)
		}
		return nil
	default:
		return n.fallback(a)
	}
}

func (n *Notifier) fallback(a Alert) error {
	_, err := fmt.Fprintf(n.Fallback, "[%s] %s: %s\n", a.Level, a.Title, a.Message)
	return err
}

// urgency maps an alert level to a notify-send urgency.
func urgency(level string) string {
	switch level {
	case "critical":
		return "critical"
	case "warning":
		return "normal"
	default:
		return "low"
	}
}
