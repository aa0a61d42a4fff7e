package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"StrikeSentinel/internal/browser"
	"StrikeSentinel/internal/clock"
	"StrikeSentinel/internal/collector"
	"StrikeSentinel/internal/logging"
	"StrikeSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Source struct {
		Symbol           string `yaml:"symbol"`
		collector.Layout `yaml:",inline"`
	} `yaml:"source"`
	Browser struct {
		browser.Config    `yaml:",inline"`
		NavigationTimeout time.Duration `yaml:"navigation_timeout"`
		SelectionTimeout  time.Duration `yaml:"selection_timeout"`
		DataTimeout       time.Duration `yaml:"data_timeout"`
		ExtractTimeout    time.Duration `yaml:"extract_timeout"`
		NavigationRetries int           `yaml:"navigation_retries"`
		RetryBackoff      time.Duration `yaml:"retry_backoff"`
		SettleDelay       time.Duration `yaml:"settle_delay"`
		ReuseDriver       bool          `yaml:"reuse_driver"`
	} `yaml:"browser"`
	Refresh struct {
		IntervalSeconds int           `yaml:"interval_seconds"`
		AutoRefresh     bool          `yaml:"auto_refresh"`
		Expiry          string        `yaml:"expiry"`
		Tick            time.Duration `yaml:"tick"`
	} `yaml:"refresh"`
	Strikes struct {
		SourcePath string `yaml:"source_path"`
	} `yaml:"strikes"`
	Display struct {
		TimeZone string `yaml:"time_zone"`
	} `yaml:"display"`
	Telegram struct {
		BotToken      string `yaml:"bot_token"`
		ChatID        string `yaml:"chat_id"`
		NotifySuccess bool   `yaml:"notify_success"`
	} `yaml:"telegram"`
	Dashboard struct {
		Addr      string `yaml:"addr"`
		AuthToken string `yaml:"auth_token"`
	} `yaml:"dashboard"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log   logging.Config `yaml:"log"`
	Proxy string         `yaml:"proxy"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	cfg.Source.Symbol = "SILVER"
	cfg.Source.Layout = collector.DefaultLayout

	o := collector.DefaultOptions
	cfg.Browser.Headless = true
	cfg.Browser.NavigationTimeout = o.NavigationTimeout
	cfg.Browser.SelectionTimeout = o.SelectionTimeout
	cfg.Browser.DataTimeout = o.DataTimeout
	cfg.Browser.ExtractTimeout = o.ExtractTimeout
	cfg.Browser.NavigationRetries = o.NavigationRetries
	cfg.Browser.RetryBackoff = o.RetryBackoff
	cfg.Browser.SettleDelay = o.SettleDelay
	cfg.Browser.ReuseDriver = o.ReuseDriver

	cfg.Refresh.IntervalSeconds = model.DefaultIntervalSeconds
	cfg.Refresh.Tick = time.Second
	cfg.Strikes.SourcePath = "configs/strikes.txt"
	cfg.Display.TimeZone = clock.DefaultDisplayZone
	cfg.Dashboard.Addr = ":8080"
	cfg.Log = logging.DefaultConfig()
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"HTTPS_PROXY":        &c.Proxy,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"STRIKES_PATH":       &c.Strikes.SourcePath,
		"EXPIRY":             &c.Refresh.Expiry,
		"CHROME_PATH":        &c.Browser.ExecPath,
		"CHROME_REMOTE_URL":  &c.Browser.RemoteURL,
		"DASHBOARD_ADDR":     &c.Dashboard.Addr,
		"DASHBOARD_TOKEN":    &c.Dashboard.AuthToken,
		"LOG_LEVEL":          &c.Log.Level,
		"DISPLAY_TZ":         &c.Display.TimeZone,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REFRESH_INTERVAL: %w", err)
		}
		c.Refresh.IntervalSeconds = n
	}
	if v := os.Getenv("AUTO_REFRESH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTO_REFRESH: %w", err)
		}
		c.Refresh.AutoRefresh = b
	}
	if v := os.Getenv("CHROME_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHROME_HEADLESS: %w", err)
		}
		c.Browser.Headless = b
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Source.EntryURL == "" {
		return errors.New("source.entry_url is required")
	}
	if c.Source.ExpirySelect == "" || c.Source.TableLocator == "" {
		return errors.New("source.expiry_select and source.table_locator are required")
	}
	if err := validateColumns(c.Source.Columns); err != nil {
		return err
	}
	if c.Refresh.IntervalSeconds <= 0 {
		return fmt.Errorf("refresh.interval_seconds must be positive, got %d", c.Refresh.IntervalSeconds)
	}
	if c.Refresh.Tick < time.Second {
		return fmt.Errorf("refresh.tick must be at least 1s, got %s", c.Refresh.Tick)
	}
	if c.Browser.NavigationRetries < 1 {
		return errors.New("browser.navigation_retries must be at least 1")
	}
	for name, d := range map[string]time.Duration{
		"navigation_timeout": c.Browser.NavigationTimeout,
		"selection_timeout":  c.Browser.SelectionTimeout,
		"data_timeout":       c.Browser.DataTimeout,
		"extract_timeout":    c.Browser.ExtractTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("browser.%s must be positive", name)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func validateColumns(cols collector.Columns) error {
	idx := map[string]int{
		"strike": cols.Strike, "ce_volume": cols.CEVolume, "ce_bid_qty": cols.CEBidQty,
		"ce_bid": cols.CEBid, "ce_ask": cols.CEAsk, "ce_ask_qty": cols.CEAskQty,
		"pe_bid_qty": cols.PEBidQty, "pe_bid": cols.PEBid, "pe_ask": cols.PEAsk,
		"pe_ask_qty": cols.PEAskQty, "pe_volume": cols.PEVolume,
	}
	for name, i := range idx {
		if i < 0 || i >= cols.MinColumns {
			return fmt.Errorf("source.columns.%s=%d outside 0..%d", name, i, cols.MinColumns-1)
		}
	}
	return nil
}

// TelegramEnabled reports whether push notifications and chat commands are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// CollectorOptions converts the browser section into pipeline options.
func (c *Config) CollectorOptions() collector.Options {
	return collector.Options{
		NavigationTimeout: c.Browser.NavigationTimeout,
		SelectionTimeout:  c.Browser.SelectionTimeout,
		DataTimeout:       c.Browser.DataTimeout,
		ExtractTimeout:    c.Browser.ExtractTimeout,
		NavigationRetries: c.Browser.NavigationRetries,
		RetryBackoff:      c.Browser.RetryBackoff,
		SettleDelay:       c.Browser.SettleDelay,
		ReuseDriver:       c.Browser.ReuseDriver,
	}
}

// BrowserConfig returns the chromedp settings, with the shared proxy applied.
func (c *Config) BrowserConfig() browser.Config {
	bc := c.Browser.Config
	bc.Proxy = c.Proxy
	return bc
}
