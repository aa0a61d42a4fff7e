package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"StrikeSentinel/internal/clock"
	"StrikeSentinel/internal/model"
	"StrikeSentinel/internal/session"
)

// Collector drives a PageDriver through the option-chain page and publishes
// the extracted rows into the session.
type Collector struct {
	Session *session.Session
	Layout  Layout
	Symbol  string
	Options Options
	Clock   clock.Clock

	factory DriverFactory

	mu     sync.Mutex
	driver PageDriver
}

// NewCollector creates a new Collector.
func NewCollector(sess *session.Session, factory DriverFactory, symbol string) *Collector {
	return &Collector{
		Session: sess,
		Layout:  DefaultLayout,
		Symbol:  symbol,
		Options: DefaultOptions,
		Clock:   clock.Real{},
		factory: factory,
	}
}

// RunFetch performs one complete fetch attempt. It never returns an error:
// failures are reported in the outcome. resolved is the expiry that was
// actually selected, which differs from expiry when expiry was empty.
func (c *Collector) RunFetch(ctx context.Context, trigger model.TriggerType, expiry string) (outcome model.FetchOutcome, resolved string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.Clock.Now()
	outcome = model.FetchOutcome{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Timestamp: start,
		Expiry:    expiry,
	}
	logger := log.With().Str("fetch_id", outcome.ID).Str("trigger", string(trigger)).Logger()
	logger.Info().Str("expiry", expiry).Msg("fetch started")

	var rows []model.StrikeRow
	err := c.withDriver(ctx, func(d PageDriver) error {
		var err error
		rows, resolved, err = c.fetch(ctx, d, expiry)
		return err
	})

	end := c.Clock.Now()
	outcome.Duration = end.Sub(start)
	if err != nil {
		outcome.ErrorKind = KindOf(err)
		outcome.Error = err.Error()
		logger.Error().Err(err).Str("kind", string(outcome.ErrorKind)).Dur("duration", outcome.Duration).Msg("fetch failed")
		return outcome, expiry
	}

	c.Session.ReplaceSnapshot(model.NewSnapshot(rows, end))
	outcome.Success = true
	outcome.RowCount = len(rows)
	outcome.Expiry = resolved
	logger.Info().Int("rows", len(rows)).Str("expiry", resolved).Dur("duration", outcome.Duration).Msg("fetch completed")
	return outcome, resolved
}

// ListExpiries opens the page, selects the instrument and returns the
// available expiry values.
func (c *Collector) ListExpiries(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiries []string
	err := c.withDriver(ctx, func(d PageDriver) error {
		if err := c.open(ctx, d); err != nil {
			return err
		}
		sctx, cancel := context.WithTimeout(ctx, c.Options.SelectionTimeout)
		defer cancel()
		if err := c.selectInstrument(sctx, d); err != nil {
			return err
		}
		var err error
		expiries, err = c.expiryOptions(sctx, d)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Strs("expiries", expiries).Msg("expiries listed")
	return expiries, nil
}

// Close disposes the cached driver, if any.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposeDriver()
}

// withDriver acquires a driver, runs fn and converts panics into PIPELINE
// failures. The driver is disposed after a failure, or after every run when
// drivers are not reused.
func (c *Collector) withDriver(ctx context.Context, fn func(PageDriver) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered panic in fetch pipeline")
			err = &FetchError{Kind: model.ErrPipeline, Step: "pipeline", Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil || !c.Options.ReuseDriver {
			if derr := c.disposeDriver(); derr != nil {
				log.Warn().Err(derr).Msg("dispose driver")
			}
		}
	}()

	d, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	return fn(d)
}

func (c *Collector) acquire(ctx context.Context) (PageDriver, error) {
	if c.driver != nil {
		return c.driver, nil
	}
	if c.factory == nil {
		return nil, &FetchError{Kind: model.ErrPipeline, Step: "start driver", Err: errors.New("no driver factory configured")}
	}
	d, err := c.factory(ctx)
	if err != nil {
		return nil, stepError(model.ErrPipeline, "start driver", err)
	}
	log.Debug().Str("driver", d.Name()).Msg("page driver started")
	c.driver = d
	return d, nil
}

func (c *Collector) disposeDriver() error {
	if c.driver == nil {
		return nil
	}
	d := c.driver
	c.driver = nil
	if err := d.Dispose(); err != nil {
		return fmt.Errorf("dispose %s: %w", d.Name(), err)
	}
	return nil
}

func (c *Collector) fetch(ctx context.Context, d PageDriver, expiry string) ([]model.StrikeRow, string, error) {
	if err := c.open(ctx, d); err != nil {
		return nil, "", err
	}

	resolved, err := c.selectExpiry(ctx, d, expiry)
	if err != nil {
		return nil, "", err
	}

	if err := c.waitFor(ctx, d, "wait for data", c.Layout.DataReadyLocator, c.Options.DataTimeout); err != nil {
		return nil, "", err
	}
	if c.Layout.TableLocator != c.Layout.DataReadyLocator {
		if err := c.waitFor(ctx, d, "wait for table", c.Layout.TableLocator, c.Options.ExtractTimeout); err != nil {
			return nil, "", err
		}
	}
	if err := sleepCtx(ctx, c.Options.SettleDelay); err != nil {
		return nil, "", stepError(model.ErrTimeout, "wait for table", err)
	}

	ectx, cancelExtract := context.WithTimeout(ctx, c.Options.ExtractTimeout)
	defer cancelExtract()
	raw, err := d.ExtractRows(ectx, c.Layout.TableLocator)
	if err != nil {
		return nil, "", stepError(model.ErrPipeline, "extract rows", err)
	}
	rows := c.Layout.ParseRows(raw)
	if len(rows) == 0 {
		return nil, "", &FetchError{
			Kind: model.ErrEmptyResult,
			Step: "extract rows",
			Err:  fmt.Errorf("no valid rows among %d extracted", len(raw)),
		}
	}
	return rows, resolved, nil
}

// waitFor reports a locator that does not appear within timeout as TIMEOUT.
func (c *Collector) waitFor(ctx context.Context, d PageDriver, step, locator string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ok, err := d.WaitForPresence(wctx, locator, timeout)
	if err != nil {
		return stepError(model.ErrTimeout, step, err)
	}
	if !ok {
		return &FetchError{
			Kind: model.ErrTimeout,
			Step: step,
			Err:  fmt.Errorf("%q not present after %s", locator, timeout),
		}
	}
	return nil
}

// open navigates to the entry page and switches to the commodity view,
// retrying with a fixed back-off.
func (c *Collector) open(ctx context.Context, d PageDriver) error {
	attempts := c.Options.NavigationRetries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = c.navigateOnce(ctx, d)
		if lastErr == nil {
			return nil
		}
		log.Warn().Err(lastErr).Int("attempt", attempt).Int("max_attempts", attempts).Msg("navigation failed")
		if ctx.Err() != nil || attempt == attempts {
			break
		}
		if err := sleepCtx(ctx, c.Options.RetryBackoff); err != nil {
			break
		}
	}
	return stepError(model.ErrNavigation, "navigate", lastErr)
}

func (c *Collector) navigateOnce(ctx context.Context, d PageDriver) error {
	nctx, cancel := context.WithTimeout(ctx, c.Options.NavigationTimeout)
	defer cancel()
	if err := d.Navigate(nctx, c.Layout.EntryURL); err != nil {
		return fmt.Errorf("navigate %s: %w", c.Layout.EntryURL, err)
	}
	if err := sleepCtx(nctx, c.Options.SettleDelay); err != nil {
		return err
	}
	if c.Layout.ViewLocator == "" {
		return nil
	}
	if err := d.Click(nctx, c.Layout.ViewLocator); err != nil {
		return fmt.Errorf("click %s: %w", c.Layout.ViewLocator, err)
	}
	return sleepCtx(nctx, c.Options.SettleDelay)
}

func (c *Collector) selectInstrument(ctx context.Context, d PageDriver) error {
	if c.Layout.InstrumentSelect == "" || c.Symbol == "" {
		return nil
	}
	if err := d.SelectOption(ctx, c.Layout.InstrumentSelect, c.Symbol); err != nil {
		return stepError(model.ErrSelection, "select instrument", fmt.Errorf("%s=%s: %w", c.Layout.InstrumentSelect, c.Symbol, err))
	}
	if err := sleepCtx(ctx, c.Options.SettleDelay); err != nil {
		return stepError(model.ErrSelection, "select instrument", err)
	}
	return nil
}

// selectExpiry selects expiry, or the first listed expiry when it is empty.
func (c *Collector) selectExpiry(ctx context.Context, d PageDriver, expiry string) (string, error) {
	sctx, cancel := context.WithTimeout(ctx, c.Options.SelectionTimeout)
	defer cancel()

	if err := c.selectInstrument(sctx, d); err != nil {
		return "", err
	}
	if expiry == "" {
		options, err := c.expiryOptions(sctx, d)
		if err != nil {
			return "", err
		}
		if len(options) == 0 {
			return "", &FetchError{Kind: model.ErrSelection, Step: "select expiry", Err: errors.New("no expiry options available")}
		}
		expiry = options[0]
		log.Info().Str("expiry", expiry).Msg("no expiry selected, using first available")
	}
	if err := d.SelectOption(sctx, c.Layout.ExpirySelect, expiry); err != nil {
		return "", stepError(model.ErrSelection, "select expiry", fmt.Errorf("%s=%s: %w", c.Layout.ExpirySelect, expiry, err))
	}
	if err := sleepCtx(sctx, c.Options.SettleDelay); err != nil {
		return "", stepError(model.ErrSelection, "select expiry", err)
	}
	return expiry, nil
}

func (c *Collector) expiryOptions(ctx context.Context, d PageDriver) ([]string, error) {
	options, err := d.Options(ctx, c.Layout.ExpirySelect)
	if err != nil {
		return nil, stepError(model.ErrSelection, "list expiries", err)
	}
	return c.Layout.ExpiryValues(options), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
