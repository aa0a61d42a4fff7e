package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"StrikeSentinel/internal/model"
	"StrikeSentinel/internal/notifier"
	"StrikeSentinel/internal/reconcile"
	"StrikeSentinel/internal/session"
	"StrikeSentinel/internal/strikes"
)

func newFetchCmd(app *App) *cobra.Command {
	var expiry string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the option chain once and print the reconciled strikes",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := session.New()
			if err := app.loadStrikes(sess); err != nil {
				return err
			}
			col := app.newCollector(sess)
			defer col.Close()

			if expiry == "" {
				expiry = app.Config.Refresh.Expiry
			}
			out, resolved := col.RunFetch(cmd.Context(), model.TriggerManual, expiry)
			if !out.Success {
				return fmt.Errorf("fetch failed [%s]: %s", out.ErrorKind, out.Error)
			}

			ce, pe := sess.Strikes()
			res := reconcile.Assemble(ce, pe, sess.Snapshot())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			st := model.RefreshState{
				Mode:       model.ModeManual,
				LastFetch:  out.Timestamp.Add(out.Duration),
				FetchCount: 1,
				Expiry:     resolved,
			}
			fmt.Fprintln(cmd.OutOrStdout(), plain(notifier.FormatReport(res, st, app.Loc)))
			return nil
		},
	}
	cmd.Flags().StringVar(&expiry, "expiry", "", "expiry to select (default: config, then first listed)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")
	return cmd
}

func newParseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a strikes file and print the CE and PE lists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.Config.Strikes.SourcePath
			if len(args) == 1 {
				path = args[0]
			}
			ce, pe, err := strikes.LoadFile(path)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "CE (%d): %s\n", len(ce), strings.Join(ce, " "))
			fmt.Fprintf(w, "PE (%d): %s\n", len(pe), strings.Join(pe, " "))
			return nil
		},
	}
}

func newExpiriesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "expiries",
		Short: "List the expiries offered by the page",
		RunE: func(cmd *cobra.Command, args []string) error {
			col := app.newCollector(session.New())
			defer col.Close()

			list, err := col.ListExpiries(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range list {
				fmt.Fprintln(cmd.OutOrStdout(), e)
			}
			return nil
		},
	}
}

var htmlTags = strings.NewReplacer("<b>", "", "</b>", "", "<pre>", "", "</pre>", "", "&lt;", "<", "&gt;", ">", "&amp;", "&")

// plain strips the Telegram HTML markup from a formatted message.
func plain(s string) string {
	return htmlTags.Replace(s)
}
