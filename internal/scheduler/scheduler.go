// Package scheduler owns the refresh state machine: it serialises manual and
// timed fetches so that at most one runs at a time and records their outcomes.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"StrikeSentinel/internal/clock"
	"StrikeSentinel/internal/model"
	"StrikeSentinel/internal/recorder"
	"StrikeSentinel/internal/session"
	"StrikeSentinel/internal/strikes"
)

var (
	// ErrNotReady rejects a fetch before strike lists are loaded.
	ErrNotReady = errors.New("strike lists not loaded")
	// ErrFetchInProgress rejects a trigger while another fetch holds the driver.
	ErrFetchInProgress = errors.New("fetch already in progress")
	// ErrUnknownExpiry rejects an expiry that is not among the listed ones.
	ErrUnknownExpiry = errors.New("unknown expiry")
)

// Fetcher runs the fetch pipeline. *collector.Collector implements it.
type Fetcher interface {
	RunFetch(ctx context.Context, trigger model.TriggerType, expiry string) (model.FetchOutcome, string)
	ListExpiries(ctx context.Context) ([]string, error)
}

// Notifier pushes fetch outcomes to the user.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options seeds the initial RefreshState.
type Options struct {
	IntervalSeconds int
	AutoRefresh     bool
	Expiry          string
	// Tick is how often the auto trigger is evaluated.
	Tick time.Duration
	// NotifySuccess also pushes successful outcomes, not only failures.
	NotifySuccess bool
	Location      *time.Location
	// StrikesPath is the file re-read by ReloadStrikes when no path is given.
	StrikesPath string
}

// Scheduler manages the refresh state and the auto-refresh cron job.
type Scheduler struct {
	Cron     *cron.Cron
	Fetcher  Fetcher
	Session  *session.Session
	Recorder recorder.Recorder
	Notifier Notifier
	Clock    clock.Clock
	Ctx      context.Context

	tick          time.Duration
	notifySuccess bool
	loc           *time.Location
	strikesPath   string

	mu    sync.Mutex
	state model.RefreshState
	last  *model.FetchOutcome
	hooks []func(model.FetchOutcome)
}

// NewScheduler creates a new Scheduler. ctx is used for timed fetches and
// chat commands; cancelling it aborts any fetch in flight.
func NewScheduler(ctx context.Context, f Fetcher, sess *session.Session, rec recorder.Recorder, opts Options) *Scheduler {
	if opts.IntervalSeconds <= 0 {
		opts.IntervalSeconds = model.DefaultIntervalSeconds
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	mode := model.ModeManual
	if opts.AutoRefresh {
		mode = model.ModeAuto
	}
	logger := cronLogger{}
	return &Scheduler{
		Cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Fetcher:       f,
		Session:       sess,
		Recorder:      rec,
		Clock:         clock.Real{},
		Ctx:           ctx,
		tick:          opts.Tick,
		notifySuccess: opts.NotifySuccess,
		loc:           opts.Location,
		strikesPath:   opts.StrikesPath,
		state: model.RefreshState{
			Mode:            mode,
			IntervalSeconds: opts.IntervalSeconds,
			Expiry:          opts.Expiry,
		},
	}
}

// Start registers the auto-refresh tick and starts the cron scheduler.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.tick)
	if _, err := s.Cron.AddFunc(spec, func() { s.AutoTrigger(s.Ctx) }); err != nil {
		return fmt.Errorf("register auto refresh: %w", err)
	}
	s.Cron.Start()
	log.Info().Dur("tick", s.tick).Msg("scheduler started")
	return nil
}

// Stop stops the cron scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// OnComplete registers fn to be called after every fetch attempt.
func (s *Scheduler) OnComplete(fn func(model.FetchOutcome)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// TriggerManual runs a fetch on the caller's goroutine. It returns
// ErrNotReady or ErrFetchInProgress without side effects when the fetch
// cannot start; otherwise the error is nil and the outcome says how it went.
func (s *Scheduler) TriggerManual(ctx context.Context) (model.FetchOutcome, error) {
	expiry, err := s.begin()
	if err != nil {
		log.Info().Err(err).Msg("manual trigger rejected")
		return model.FetchOutcome{}, err
	}
	return s.execute(ctx, model.TriggerManual, expiry), nil
}

// AutoTrigger fetches if auto mode is on, strikes are loaded, a first fetch
// has succeeded and the next refresh is due. It reports whether it fetched.
func (s *Scheduler) AutoTrigger(ctx context.Context) bool {
	expiry, ok := s.beginAuto()
	if !ok {
		return false
	}
	s.execute(ctx, model.TriggerAuto, expiry)
	return true
}

func (s *Scheduler) begin() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Session.StrikesLoaded() {
		return "", ErrNotReady
	}
	if s.state.IsFetching {
		return "", ErrFetchInProgress
	}
	s.state.IsFetching = true
	return s.state.Expiry, nil
}

func (s *Scheduler) beginAuto() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode != model.ModeAuto || s.state.IsFetching || !s.state.HasFetched() || !s.Session.StrikesLoaded() {
		return "", false
	}
	now := s.Clock.Now()
	if s.state.NextDue.IsZero() {
		s.state.NextDue = now.Add(s.state.Interval())
		return "", false
	}
	if now.Before(s.state.NextDue) {
		return "", false
	}
	s.state.IsFetching = true
	return s.state.Expiry, true
}

// execute runs the pipeline and always completes the state transition.
func (s *Scheduler) execute(ctx context.Context, trigger model.TriggerType, expiry string) (out model.FetchOutcome) {
	resolved := expiry
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered panic in fetch")
			out = model.FetchOutcome{
				ID:        uuid.NewString(),
				Trigger:   trigger,
				Timestamp: s.Clock.Now(),
				ErrorKind: model.ErrPipeline,
				Error:     fmt.Sprintf("panic: %v", r),
				Expiry:    expiry,
			}
		}
		s.complete(out, resolved)
	}()
	out, resolved = s.Fetcher.RunFetch(ctx, trigger, expiry)
	return out
}

func (s *Scheduler) complete(out model.FetchOutcome, resolved string) {
	now := s.Clock.Now()

	s.mu.Lock()
	s.state.IsFetching = false
	if out.Success {
		s.state.LastFetch = now
		s.state.FetchCount++
		if resolved != "" {
			s.state.Expiry = resolved
		}
	}
	if s.state.Mode == model.ModeAuto {
		s.state.NextDue = now.Add(s.state.Interval())
	}
	o := out
	s.last = &o
	hooks := append([]func(model.FetchOutcome){}, s.hooks...)
	s.mu.Unlock()

	if err := s.Recorder.RecordFetch(&out); err != nil {
		log.Error().Err(err).Str("fetch_id", out.ID).Msg("record fetch outcome")
	}
	if !out.Success || s.notifySuccess {
		s.trySend(s.formatOutcome(out))
	}
	for _, fn := range hooks {
		fn(out)
	}
}

// SetAutoRefresh switches between auto and manual mode. Enabling auto mode
// clears the due time; the next tick schedules it one interval ahead.
func (s *Scheduler) SetAutoRefresh(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.state.Mode = model.ModeAuto
	} else {
		s.state.Mode = model.ModeManual
	}
	s.state.NextDue = time.Time{}
	log.Info().Str("mode", string(s.state.Mode)).Msg("refresh mode changed")
}

// SetInterval changes the auto-refresh period.
func (s *Scheduler) SetInterval(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("interval must be positive, got %d", seconds)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IntervalSeconds = seconds
	if s.state.Mode == model.ModeAuto && !s.state.NextDue.IsZero() {
		s.state.NextDue = s.Clock.Now().Add(s.state.Interval())
	}
	log.Info().Int("interval_seconds", seconds).Msg("refresh interval changed")
	return nil
}

// SelectExpiry sets the expiry used by subsequent fetches. An empty value
// selects the first listed expiry on the next fetch.
func (s *Scheduler) SelectExpiry(expiry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expiry != "" && len(s.state.AvailableExpiries) > 0 && !contains(s.state.AvailableExpiries, expiry) {
		return fmt.Errorf("%w: %s", ErrUnknownExpiry, expiry)
	}
	s.state.Expiry = expiry
	log.Info().Str("expiry", expiry).Msg("expiry selected")
	return nil
}

// ListExpiries asks the page for the available expiries. It holds the same
// exclusion as a fetch because it drives the shared page driver.
func (s *Scheduler) ListExpiries(ctx context.Context) (expiries []string, err error) {
	s.mu.Lock()
	if s.state.IsFetching {
		s.mu.Unlock()
		return nil, ErrFetchInProgress
	}
	s.state.IsFetching = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			expiries, err = nil, fmt.Errorf("list expiries: panic: %v", r)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.IsFetching = false
		if err == nil {
			s.state.AvailableExpiries = append([]string(nil), expiries...)
			if s.state.Expiry == "" && len(expiries) > 0 {
				s.state.Expiry = expiries[0]
			}
		}
	}()

	expiries, err = s.Fetcher.ListExpiries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expiries: %w", err)
	}
	return expiries, nil
}

// LoadStrikes parses text and replaces the session's strike lists. On a
// parse error the previous lists, if any, stay in place.
func (s *Scheduler) LoadStrikes(text, source string) error {
	ce, pe, err := strikes.Parse(text)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("strikes rejected")
		return err
	}
	s.installStrikes(ce, pe, source)
	return nil
}

// ReloadStrikes re-reads the strikes file at path, or the configured
// strikes path when path is empty.
func (s *Scheduler) ReloadStrikes(path string) error {
	if path == "" {
		path = s.strikesPath
	}
	if path == "" {
		return errors.New("no strikes path configured")
	}
	ce, pe, err := strikes.LoadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("source", path).Msg("strikes rejected")
		return err
	}
	s.installStrikes(ce, pe, path)
	return nil
}

func (s *Scheduler) installStrikes(ce, pe model.StrikeList, source string) {
	s.Session.LoadStrikes(ce, pe, source)
	log.Info().Str("source", source).Int("ce", len(ce)).Int("pe", len(pe)).Msg("strike lists loaded")
}

// State returns a copy of the current RefreshState.
func (s *Scheduler) State() model.RefreshState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.AvailableExpiries = append([]string(nil), s.state.AvailableExpiries...)
	return st
}

// Status derives the display status at the current instant.
func (s *Scheduler) Status() model.RefreshStatus {
	return s.State().StatusAt(s.Clock.Now())
}

// LastOutcome returns the most recent fetch outcome, if any.
func (s *Scheduler) LastOutcome() (model.FetchOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return model.FetchOutcome{}, false
	}
	return *s.last, true
}

// Location is the display zone for user-facing text.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
