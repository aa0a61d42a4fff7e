package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StrikeSentinel/internal/collector"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "SILVER", cfg.Source.Symbol)
	assert.Equal(t, collector.DefaultLayout, cfg.Source.Layout)
	assert.Equal(t, 300, cfg.Refresh.IntervalSeconds)
	assert.Equal(t, 15*time.Second, cfg.Browser.NavigationTimeout)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "Asia/Kolkata", cfg.Display.TimeZone)
	assert.Empty(t, cfg.Database.SQLitePath)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
source:
  symbol: GOLDM
  expiry_select: expirySelect
  columns:
    strike: 11
refresh:
  interval_seconds: 120
  auto_refresh: true
  tick: 2s
browser:
  headless: false
  remote_url: ws://127.0.0.1:9222
  navigation_timeout: 20s
  settle_delay: 0s
log:
  level: debug
  console: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "GOLDM", cfg.Source.Symbol)
	assert.Equal(t, "expirySelect", cfg.Source.ExpirySelect)
	assert.Equal(t, collector.DefaultLayout.EntryURL, cfg.Source.EntryURL)
	assert.Equal(t, 11, cfg.Source.Columns.Strike)
	assert.Equal(t, 21, cfg.Source.Columns.MinColumns)
	assert.Equal(t, 120, cfg.Refresh.IntervalSeconds)
	assert.True(t, cfg.Refresh.AutoRefresh)
	assert.Equal(t, 2*time.Second, cfg.Refresh.Tick)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "ws://127.0.0.1:9222", cfg.BrowserConfig().RemoteURL)
	assert.Equal(t, 20*time.Second, cfg.CollectorOptions().NavigationTimeout)
	assert.Zero(t, cfg.CollectorOptions().SettleDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Console)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("REFRESH_INTERVAL", "60")
	t.Setenv("AUTO_REFRESH", "true")
	t.Setenv("HTTPS_PROXY", "http://proxy:3128")
	t.Setenv("SQLITE_PATH", "data/journal.db")

	cfg, err := Load(writeConfig(t, "refresh:\n  interval_seconds: 120\n"))
	require.NoError(t, err)

	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, 60, cfg.Refresh.IntervalSeconds)
	assert.True(t, cfg.Refresh.AutoRefresh)
	assert.Equal(t, "http://proxy:3128", cfg.BrowserConfig().Proxy)
	assert.Equal(t, "data/journal.db", cfg.Database.SQLitePath)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "five minutes")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "REFRESH_INTERVAL")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "refresh: [unterminated"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero interval", func(c *Config) { c.Refresh.IntervalSeconds = 0 }, "interval_seconds"},
		{"sub-second tick", func(c *Config) { c.Refresh.Tick = 500 * time.Millisecond }, "tick"},
		{"no entry url", func(c *Config) { c.Source.EntryURL = "" }, "entry_url"},
		{"column out of range", func(c *Config) { c.Source.Columns.PEVolume = 30 }, "pe_volume"},
		{"no retries", func(c *Config) { c.Browser.NavigationRetries = 0 }, "navigation_retries"},
		{"zero timeout", func(c *Config) { c.Browser.DataTimeout = 0 }, "data_timeout"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }, "telegram"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, collector.DefaultLayout, cfg.Source.Layout)
	assert.Equal(t, collector.DefaultOptions, cfg.CollectorOptions())
	assert.Equal(t, "configs/strikes.txt", cfg.Strikes.SourcePath)
	assert.Empty(t, cfg.Database.SQLitePath)
}
