package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"StrikeSentinel/internal/browser"
	"StrikeSentinel/internal/clock"
	"StrikeSentinel/internal/collector"
	"StrikeSentinel/internal/config"
	"StrikeSentinel/internal/logging"
	"StrikeSentinel/internal/session"
	"StrikeSentinel/internal/strikes"
)

// App holds what every subcommand needs.
type App struct {
	Config *config.Config
	Loc    *time.Location
	Mock   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "StrikeSentinel - option chain watcher for a fixed strike list",
		Long: `StrikeSentinel fetches the live option chain for one commodity from the
exchange page, reconciles it against the CE/PE strikes in your strikes file,
and serves the result over Telegram and a small HTTP dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Log.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			logging.Setup(cfg.Log)

			app.Config = cfg
			app.Loc = clock.LoadZone(cfg.Display.TimeZone)
			app.Mock, _ = cmd.Flags().GetBool("mock")
			return nil
		},
	}

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().String("config", defaultPath, "path to config.yaml (env CONFIG_PATH)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("mock", false, "use a synthetic option chain instead of a browser")

	rootCmd.AddCommand(
		newRunCmd(app),
		newFetchCmd(app),
		newParseCmd(app),
		newExpiriesCmd(app),
	)
	return rootCmd
}

// loadStrikes reads the strikes file into sess. On error the session is
// left not ready.
func (a *App) loadStrikes(sess *session.Session) error {
	path := a.Config.Strikes.SourcePath
	ce, pe, err := strikes.LoadFile(path)
	if err != nil {
		return err
	}
	sess.LoadStrikes(ce, pe, path)
	log.Info().Str("path", path).Int("ce", len(ce)).Int("pe", len(pe)).Msg("strike lists loaded")
	return nil
}

func (a *App) newCollector(sess *session.Session) *collector.Collector {
	var factory collector.DriverFactory
	if a.Mock {
		d := &collector.MockDriver{
			Rows:     collector.MockChain(110000, 250, 40),
			Expiries: []string{"26-Mar-2026", "27-Apr-2026", "27-May-2026"},
		}
		factory = d.Factory()
		log.Warn().Msg("using mock page driver")
	} else {
		factory = collector.BreakerFactory(browser.Factory(a.Config.BrowserConfig()), collector.DefaultBreakerSettings)
	}

	c := collector.NewCollector(sess, factory, a.Config.Source.Symbol)
	c.Layout = a.Config.Source.Layout
	c.Options = a.Config.CollectorOptions()
	return c
}
