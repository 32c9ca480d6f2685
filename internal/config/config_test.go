package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.SourceURL)
	assert.Equal(t, DefaultWebhookURL, cfg.WebhookURL)
	assert.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, DefaultWebhookTimeout, cfg.WebhookTimeout)
	assert.Equal(t, DefaultRefreshInterval, cfg.RefreshInterval)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultRevenue, cfg.Revenue)
	assert.Equal(t, DefaultServer, cfg.Server)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DefaultOutput, cfg.Output)
}

func TestLoad_FileOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
source_url: https://docs.example.test/sheet/export?format=csv
fetch_timeout: 3s
refresh_interval: 1m
page_size: 25
revenue:
  periods: 12
  baseline: 1000
  increment: 50
output:
  color: false
  width: 120
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.test/sheet/export?format=csv", cfg.SourceURL)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, Revenue{Periods: 12, Baseline: 1000, Increment: 50}, cfg.Revenue)
	assert.False(t, cfg.Output.Color)
	assert.Equal(t, 120, cfg.Output.Width)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "source_url: https://file.example.test/a.csv\n")
	t.Setenv("CLIENTDASH_SOURCE_URL", "https://env.example.test/b.csv")
	t.Setenv("CLIENTDASH_REVENUE_PERIODS", "3")
	t.Setenv("CLIENTDASH_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.test/b.csv", cfg.SourceURL)
	assert.Equal(t, 3, cfg.Revenue.Periods)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CLIENTDASH_WEBHOOK_URL=https://hooks.example.test/dash\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CLIENTDASH_WEBHOOK_URL") })

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.test/dash", cfg.WebhookURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantKey string
	}{
		{"bad url", "source_url: not a url\n", "source_url"},
		{"zero periods", "revenue:\n  periods: 0\n", "revenue.periods"},
		{"negative timeout", "fetch_timeout: -1s\n", "fetch_timeout"},
		{"short interval", "refresh_interval: 10ms\n", "refresh_interval"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad addr", "server:\n  addr: nowhere\n", "server.addr"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantKey)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(writeConfig(t, "source_url: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "logs/dash.log"), expandPath("~/logs/dash.log"))
	assert.Equal(t, "/var/log/dash.log", expandPath("/var/log/dash.log"))
}
