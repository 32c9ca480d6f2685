package watcher

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type recordedCall struct {
	name string
	args []string
}

func fakeNotifier(goos string, runErr, lookErr error) (*Notifier, *[]recordedCall, *bytes.Buffer) {
	var calls []recordedCall
	var buf bytes.Buffer
	n := &Notifier{
		GOOS:     goos,
		Fallback: &buf,
		run: func(name string, args ...string) error {
			calls = append(calls, recordedCall{name, args})
			return runErr
		},
		lookPath: func(string) (string, error) { return "/usr/bin/notify-send", lookErr },
	}
	return n, &calls, &buf
}

func TestNotifier_Linux(t *testing.T) {
	n, calls, buf := fakeNotifier("linux", nil, nil)
	a := Alert{Level: "critical", Title: "Refresh failed", Message: "unexpected status 502"}

	if err := n.Notify(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0].name != "notify-send" {
		t.Fatalf("expected one notify-send call, got %+v", *calls)
	}
	got := strings.Join((*calls)[0].args, "|")
	want := "-u|critical|-a|clientdash|clientdash: Refresh failed|unexpected status 502"
	if got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
	if buf.Len() != 0 {
		t.Errorf("fallback should not be used, got %q", buf.String())
	}
}

func TestNotifier_MacOS(t *testing.T) {
	n, calls, _ := fakeNotifier("darwin", nil, nil)
	if err := n.Notify(Alert{Level: "info", Title: "1 new client(s)", Message: "Dune"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0].name != "osascript" {
		t.Fatalf("expected one osascript call, got %+v", *calls)
	}
	script := (*calls)[0].args[1]
	if !strings.Contains(script, `"Dune"`) || !strings.Contains(script, `subtitle "1 new client(s)"`) {
		t.Errorf("unexpected script %q", script)
	}
}

func TestNotifier_FallsBack(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		runErr  error
		lookErr error
	}{
		{"no notify-send", "linux", nil, errors.New("not found")},
		{"notify-send fails", "linux", errors.New("no display"), nil},
		{"osascript fails", "darwin", errors.New("denied"), nil},
		{"other platform", "windows", nil, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, _, buf := fakeNotifier(tc.goos, tc.runErr, tc.lookErr)
			if err := n.Notify(Alert{Level: "warning", Title: "Revenue dropped", Message: "-25%"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := buf.String(); got != "[warning] Revenue dropped: -25%\n" {
				t.Errorf("fallback output = %q", got)
			}
		})
	}
}

func TestUrgency(t *testing.T) {
	for level, want := range map[string]string{"critical": "critical", "warning": "normal", "info": "low", "": "low"} {
		if got := urgency(level); got != want {
			t.Errorf("urgency(%q) = %q, want %q", level, got, want)
		}
	}
}
