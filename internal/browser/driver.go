// Package browser implements collector.PageDriver on top of chromedp, either
// launching a local headless Chrome or attaching to a remote CDP endpoint.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"StrikeSentinel/internal/collector"
)

// Config selects and tunes the browser backend.
type Config struct {
	Headless  bool   `yaml:"headless"`
	ExecPath  string `yaml:"exec_path"`
	RemoteURL string `yaml:"remote_url"` // ws:// or http:// DevTools endpoint; empty launches Chrome
	UserAgent string `yaml:"user_agent"`
	Proxy     string `yaml:"-"`
}

// Driver is a single browser tab.
type Driver struct {
	cfg Config

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	once sync.Once
}

var _ collector.PageDriver = (*Driver)(nil)

// New starts a browser (or attaches to one) and opens a tab. ctx bounds the
// startup only; the browser lives until Dispose.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	base := context.WithoutCancel(ctx)

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(base, cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.WindowSize(1920, 1080),
		)
		if cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
		}
		if cfg.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
		}
		if cfg.Proxy != "" {
			opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(base, opts...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			log.Debug().Str("component", "chromedp").Msgf(format, args...)
		}),
	)
	d := &Driver{cfg: cfg, allocCancel: allocCancel, tabCtx: tabCtx, tabCancel: tabCancel}

	// The first Run allocates the browser and must use the tab context itself,
	// otherwise cancelling the derived context would close the browser.
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		_ = d.Dispose()
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		}
		return nil, fmt.Errorf("start browser: %w", err)
	}
	log.Info().Bool("headless", cfg.Headless).Str("remote", cfg.RemoteURL).Msg("browser started")
	return d, nil
}

// Factory returns a collector.DriverFactory producing Drivers with cfg.
func Factory(cfg Config) collector.DriverFactory {
	return func(ctx context.Context) (collector.PageDriver, error) {
		return New(ctx, cfg)
	}
}

func (d *Driver) Name() string {
	if d.cfg.RemoteURL != "" {
		return "chromedp-remote"
	}
	return "chromedp"
}

// run executes actions in the tab, bounded by ctx's deadline and cancellation.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.tabCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}
	}
	return err
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

func (d *Driver) Click(ctx context.Context, locator string) error {
	return d.run(ctx,
		chromedp.WaitVisible(locator, chromedp.ByQuery),
		chromedp.Click(locator, chromedp.ByQuery),
	)
}

// evalEnvelope is what every page script returns.
type evalEnvelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

func (d *Driver) eval(ctx context.Context, script string, out interface{}) error {
	var env evalEnvelope
	if err := d.run(ctx, chromedp.Evaluate(script, &env)); err != nil {
		return err
	}
	if !env.OK {
		return errors.New(env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode page result: %w", err)
	}
	return nil
}

func (d *Driver) SelectOption(ctx context.Context, elementID, value string) error {
	if err := d.run(ctx, chromedp.WaitReady("#"+elementID, chromedp.ByQuery)); err != nil {
		return err
	}
	return d.eval(ctx, fmt.Sprintf(selectScript, jsString(elementID), jsString(value)), nil)
}

func (d *Driver) Options(ctx context.Context, elementID string) ([]string, error) {
	if err := d.run(ctx, chromedp.WaitReady("#"+elementID, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	var values []string
	if err := d.eval(ctx, fmt.Sprintf(optionsScript, jsString(elementID)), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// WaitForPresence reports false, without error, when locator does not show
// up within timeout.
func (d *Driver) WaitForPresence(ctx context.Context, locator string, timeout time.Duration) (bool, error) {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := d.run(wctx, chromedp.WaitReady(locator, chromedp.ByQuery))
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return false, nil
	default:
		return false, err
	}
}

func (d *Driver) ExtractRows(ctx context.Context, tableLocator string) ([][]string, error) {
	var rows [][]string
	if err := d.eval(ctx, fmt.Sprintf(extractScript, jsString(tableLocator)), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Dispose closes the tab and the browser. Safe to call more than once.
func (d *Driver) Dispose() error {
	var err error
	d.once.Do(func() {
		err = chromedp.Cancel(d.tabCtx)
		d.tabCancel()
		d.allocCancel()
		log.Debug().Msg("browser disposed")
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
