package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
	"github.com/blackwell-systems/clientdash/internal/chat"
	"github.com/blackwell-systems/clientdash/internal/source"
)

const sheet = "Clients,No. of Headshots,Price,Status,Email\n" +
	"Acme Co,10,\"$1,200.50\",Active,a@x.test\n" +
	"Bolt Studio,4,$300,Pending,b@x.test\n" +
	"Cinder,2,$100,Completed,c@x.test\n"

// resetFlags restores every package-level flag variable, since rootCmd is
// shared between tests.
func resetFlags() {
	flagNoColor, flagJSON, flagVerbose = false, false, false
	flagConfig, flagSource = "", ""
	recordsPage, recordsPerPage, recordsStatus = 1, 0, ""
	watchDaemon, watchInterval, watchStop, watchQuiet, watchDropPct = false, 0, false, false, 10
	serveAddr, serveNoRefresh = "", false
}

// runCLI executes the command tree with args in an isolated home and working
// directory and returns stdout.
func runCLI(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	t.Logf("stderr: %s", errOut.String())
	return out.String(), err
}

func sheetServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, sheet)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func webhookServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chat.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Message == "only acme" {
			fmt.Fprint(w, `{"message":"Filtered","data":[{"Clients":"Acme Co","Price":"$1,200.50","Status":"Active"}]}`)
			return
		}
		fmt.Fprint(w, `{"response":"You have 3 clients"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"records", "metrics", "status", "revenue", "chat", "watch", "serve", "mcp", "doctor"}
	have := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("%s subcommand not registered on rootCmd", name)
		}
	}
}

func TestDashboard_JSON(t *testing.T) {
	src := sheetServer(t)

	out, err := runCLI(t, context.Background(), "", "--source", src.URL, "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got dashboardOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if got.Metrics.TotalClients != 3 || got.Metrics.TotalHeadshots != 16 {
		t.Errorf("unexpected metrics %+v", got.Metrics)
	}
	if len(got.Records) != 3 || got.Records[0].Name != "Acme Co" {
		t.Errorf("unexpected records %+v", got.Records)
	}
	if got.Status.Count(analyzer.CategoryActive) != 2 {
		t.Errorf("unexpected status %+v", got.Status)
	}
	if len(got.Revenue) != 6 {
		t.Errorf("revenue periods = %d, want 6", len(got.Revenue))
	}
	if got.Source != src.URL || got.Version != 1 {
		t.Errorf("source = %q version = %d", got.Source, got.Version)
	}
}

func TestDashboard_Text(t *testing.T) {
	src := sheetServer(t)

	out, err := runCLI(t, context.Background(), "", "--source", src.URL, "--no-color")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Total revenue", "$1,600.5", "Acme Co", "$1,200.5", "Page 1 of 1", "Pending (1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDashboard_NoSource(t *testing.T) {
	_, err := runCLI(t, context.Background(), "")
	if !errors.Is(err, source.ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestDashboard_SourceFromEnv(t *testing.T) {
	src := sheetServer(t)
	t.Setenv("CLIENTDASH_SOURCE_URL", src.URL)

	out, err := runCLI(t, context.Background(), "", "metrics", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var m analyzer.Metrics
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if m.TotalClients != 3 || m.ActiveClients != 2 {
		t.Errorf("unexpected metrics %+v", m)
	}
}

func TestDashboard_SourceUnreachable(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer src.Close()

	_, err := runCLI(t, context.Background(), "", "--source", src.URL)
	var ferr *source.FetchError
	if !errors.As(err, &ferr) || ferr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected FetchError with 404, got %v", err)
	}
}

func TestRecords(t *testing.T) {
	src := sheetServer(t)

	tests := []struct {
		name      string
		args      []string
		wantNames []string
		wantPages int
		wantErr   bool
	}{
		{"second page", []string{"--page", "2", "--per-page", "2"}, []string{"Cinder"}, 2, false},
		{"status filter", []string{"--status", "pending"}, []string{"Bolt Studio"}, 1, false},
		{"unknown status", []string{"--status", "archived"}, nil, 0, true},
		{"zero page", []string{"--page", "0"}, nil, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"records", "--source", src.URL, "--json"}, tc.args...)
			out, err := runCLI(t, context.Background(), "", args...)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got recordsOutput
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decoding output: %v", err)
			}
			var names []string
			for _, r := range got.Records {
				names = append(names, r.Name)
			}
			if strings.Join(names, "|") != strings.Join(tc.wantNames, "|") {
				t.Errorf("names = %v, want %v", names, tc.wantNames)
			}
			if got.Pages != tc.wantPages {
				t.Errorf("pages = %d, want %d", got.Pages, tc.wantPages)
			}
		})
	}
}

func TestStatusAndRevenue_JSON(t *testing.T) {
	src := sheetServer(t)

	out, err := runCLI(t, context.Background(), "", "status", "--source", src.URL, "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var b analyzer.StatusBreakdown
	if err := json.Unmarshal([]byte(out), &b); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if b.Percentage(analyzer.CategoryActive) != 66.7 {
		t.Errorf("active share = %v, want 66.7", b.Percentage(analyzer.CategoryActive))
	}

	out, err = runCLI(t, context.Background(), "", "revenue", "--source", src.URL, "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var series []analyzer.RevenuePoint
	if err := json.Unmarshal([]byte(out), &series); err != nil {
		t.Fatalf("decoding revenue: %v", err)
	}
	if len(series) != 6 || series[5].Actual != 1600.5 || series[0].SyntheticTarget != 45000 {
		t.Errorf("unexpected series %+v", series)
	}
}

func TestChat_Once(t *testing.T) {
	src := sheetServer(t)
	hook := webhookServer(t)
	t.Setenv("CLIENTDASH_WEBHOOK_URL", hook.URL)

	out, err := runCLI(t, context.Background(), "", "chat", "--source", src.URL, "--json", "only", "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got chatOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if got.Reply.Content != "Filtered" || got.Reply.Sender != chat.SenderAssistant {
		t.Errorf("unexpected reply %+v", got.Reply)
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2 (load then update)", got.Version)
	}
}

func TestChat_Interactive(t *testing.T) {
	hook := webhookServer(t)
	t.Setenv("CLIENTDASH_WEBHOOK_URL", hook.URL)

	out, err := runCLI(t, context.Background(), "how many?\n\nexit\nnot sent\n", "chat", "--no-color")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, chat.GreetingText) {
		t.Errorf("missing greeting:\n%s", out)
	}
	if !strings.Contains(out, "You have 3 clients") {
		t.Errorf("missing reply:\n%s", out)
	}
	if strings.Count(out, "assistant") != 2 {
		t.Errorf("expected greeting and one reply:\n%s", out)
	}
}

func TestChat_WebhookDown(t *testing.T) {
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer hook.Close()
	t.Setenv("CLIENTDASH_WEBHOOK_URL", hook.URL)

	out, err := runCLI(t, context.Background(), "", "chat", "--no-color", "hello")
	var ferr *source.FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !strings.Contains(out, chat.FailureText) {
		t.Errorf("expected failure text in output:\n%s", out)
	}
}

func TestChat_Disabled(t *testing.T) {
	t.Setenv("CLIENTDASH_WEBHOOK_URL", " ")
	_, err := runCLI(t, context.Background(), "", "chat", "hello")
	if err == nil || !strings.Contains(err.Error(), "no assistant webhook") {
		t.Fatalf("expected webhook error, got %v", err)
	}
}

func TestWatch_RejectsShortInterval(t *testing.T) {
	src := sheetServer(t)
	_, err := runCLI(t, context.Background(), "", "watch", "--source", src.URL, "--interval", "1s")
	if err == nil || !strings.Contains(err.Error(), "interval must be at least") {
		t.Fatalf("expected interval error, got %v", err)
	}
}

func TestWatch_StopWithoutDaemon(t *testing.T) {
	_, err := runCLI(t, context.Background(), "", "watch", "--stop")
	if err == nil || !strings.Contains(err.Error(), "no daemon running") {
		t.Fatalf("expected no daemon error, got %v", err)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	src := sheetServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := runCLI(t, ctx, "", "serve", "--source", src.URL, "--addr", "127.0.0.1:0", "--no-refresh")
	if err != nil {
		t.Fatalf("serve returned %v", err)
	}
}

func TestMCP_ListsTools(t *testing.T) {
	src := sheetServer(t)
	hook := webhookServer(t)
	t.Setenv("CLIENTDASH_WEBHOOK_URL", hook.URL)

	in := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}` + "\n"
	out, err := runCLI(t, context.Background(), in, "mcp", "--source", src.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tool := range []string{"get_metrics", "get_records", "refresh_data", "send_chat_message"} {
		if !strings.Contains(out, `"`+tool+`"`) {
			t.Errorf("tools/list missing %s:\n%s", tool, out)
		}
	}
}

func TestDoctor_JSON(t *testing.T) {
	src := sheetServer(t)
	hook := webhookServer(t)
	t.Setenv("CLIENTDASH_WEBHOOK_URL", hook.URL)

	out, err := runCLI(t, context.Background(), "", "doctor", "--source", src.URL, "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got doctorOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if got.PassedCount != got.TotalCount {
		t.Errorf("expected all checks to pass, got %+v", got.Checks)
	}
}

func TestDoctor_ReportsProblems(t *testing.T) {
	t.Setenv("CLIENTDASH_WEBHOOK_URL", "http://127.0.0.1:1/hook")

	out, err := runCLI(t, context.Background(), "", "doctor", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got doctorOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	failed := make(map[string]bool)
	for _, c := range got.Checks {
		if !c.Passed {
			failed[c.Name] = true
		}
	}
	if !failed["Source URL"] || !failed["Assistant webhook"] {
		t.Errorf("expected source and webhook failures, got %+v", got.Checks)
	}
}

func TestCheckSheetColumns(t *testing.T) {
	ctrl := source.NewController(nil, source.Options{})
	snap, err := ctrl.ApplyExternalUpdate(source.UpdatePayload(`[{"Clients":"A","Notes":"x"},{"Clients":""}]`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	c := checkSheetColumns(snap)
	if c.Passed || !strings.Contains(c.Message, "1 of 2 rows") {
		t.Errorf("unexpected check %+v", c)
	}
}
