package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"StrikeSentinel/internal/dashboard"
	"StrikeSentinel/internal/notifier"
	"StrikeSentinel/internal/recorder"
	"StrikeSentinel/internal/scheduler"
	"StrikeSentinel/internal/session"
)

func newRunCmd(app *App) *cobra.Command {
	var fetchOnStart bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler, Telegram bot and dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd.Context(), fetchOnStart)
		},
	}
	cmd.Flags().BoolVar(&fetchOnStart, "fetch-on-start", os.Getenv("RUN_ON_START") == "true", "run one manual fetch at startup")
	return cmd
}

func (a *App) run(parent context.Context, fetchOnStart bool) error {
	cfg := a.Config
	log.Info().Str("symbol", cfg.Source.Symbol).Msg("StrikeSentinel starting")

	ctx, stop := context.WithCancel(parent)
	defer stop()

	// Closed last: fetches still completing during shutdown record through it.
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	sess := session.New()
	col := a.newCollector(sess)
	defer func() {
		if err := col.Close(); err != nil {
			log.Warn().Err(err).Msg("close page driver")
		}
	}()

	sched := scheduler.NewScheduler(ctx, col, sess, rec, scheduler.Options{
		IntervalSeconds: cfg.Refresh.IntervalSeconds,
		AutoRefresh:     cfg.Refresh.AutoRefresh,
		Expiry:          cfg.Refresh.Expiry,
		Tick:            cfg.Refresh.Tick,
		NotifySuccess:   cfg.Telegram.NotifySuccess,
		Location:        a.Loc,
		StrikesPath:     cfg.Strikes.SourcePath,
	})
	if err := sched.ReloadStrikes(""); err != nil {
		log.Warn().Err(err).Msg("strikes not loaded; fix the file, then /reload or POST /api/strikes")
	}

	pollDone := make(chan struct{})
	if cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sched.Notifier = tn
		go func() {
			defer close(pollDone)
			tn.StartPolling(ctx, sched.HandleCommand)
		}()
		log.Info().Msg("telegram polling started")
	} else {
		close(pollDone)
		log.Info().Msg("telegram not configured")
	}

	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	var srv *dashboard.Server
	if cfg.Dashboard.Addr != "" {
		srv = dashboard.NewServer(dashboard.Config{
			Addr:      cfg.Dashboard.Addr,
			AuthToken: cfg.Dashboard.AuthToken,
		}, sched, sess, rec)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("dashboard server stopped")
				stop()
			}
		}()
	}

	if fetchOnStart {
		go func() {
			out, err := sched.TriggerManual(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("startup fetch rejected")
				return
			}
			log.Info().Bool("success", out.Success).Int("rows", out.RowCount).Msg("startup fetch finished")
		}()
	}

	log.Info().Msg("StrikeSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("dashboard shutdown")
		}
	}
	<-pollDone
	return nil
}
