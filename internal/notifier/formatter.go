package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"StrikeSentinel/internal/clock"
	"StrikeSentinel/internal/model"
	"StrikeSentinel/internal/reconcile"
)

const timeLayout = "2006-01-02 15:04:05 MST"

func displayTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "never"
	}
	return clock.Display(t, loc).Format(timeLayout)
}

// FormatReport renders the reconciled rows as a flattened text report.
func FormatReport(res reconcile.Result, st model.RefreshState, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("📊 <b>StrikeSentinel</b>")
	if st.Expiry != "" {
		b.WriteString(fmt.Sprintf(" | Expiry %s", html.EscapeString(st.Expiry)))
	}
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Last update: %s\n", displayTime(st.LastFetch, loc)))
	b.WriteString(fmt.Sprintf("Matches: %d/%d\n", res.MatchCount, res.Total))

	sum := reconcile.Summarize(res)
	b.WriteString(fmt.Sprintf("CE Bid/Ask: %d/%d | PE Bid/Ask: %d/%d\n", sum.CE.Quoted, sum.CE.Rows, sum.PE.Quoted, sum.PE.Rows))
	b.WriteString(fmt.Sprintf("CE Volume: %d | PE Volume: %d\n", sum.CE.WithVol, sum.PE.WithVol))
	if nf := sum.CE.NotFound + sum.PE.NotFound; nf > 0 {
		b.WriteString(fmt.Sprintf("⚠️ %d strikes not found\n", nf))
	}

	for _, side := range []model.Side{model.SideCE, model.SidePE} {
		rows := res.Side(side)
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", side))
		if len(rows) == 0 {
			b.WriteString("  (none)\n")
			continue
		}
		b.WriteString("<pre>")
		b.WriteString(fmt.Sprintf("%-10s %8s %8s %10s %10s %8s\n", "Strike", "Volume", "BidQty", "Bid", "Ask", "AskQty"))
		for _, r := range rows {
			f := r.Fields
			b.WriteString(fmt.Sprintf("%-10s %8s %8s %10s %10s %8s", r.DisplayStrike, f.Volume, f.BidQty, f.Bid, f.Ask, f.AskQty))
			switch {
			case !r.Status.Found():
				b.WriteString("  not found")
			case r.Suspect():
				b.WriteString(fmt.Sprintf("  ~%s", r.MatchedKey))
			}
			b.WriteString("\n")
		}
		b.WriteString("</pre>")
	}
	return b.String()
}

// FormatStatus renders the scheduler state at status.Now.
func FormatStatus(st model.RefreshState, status model.RefreshStatus, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("⏱ <b>Refresh status</b>\n\n")
	b.WriteString(fmt.Sprintf("Now: %s\n", displayTime(status.Now, loc)))
	b.WriteString(fmt.Sprintf("Last update: %s\n", displayTime(st.LastFetch, loc)))
	if st.HasFetched() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", humanize.RelTime(st.LastFetch, status.Now, "ago", "from now")))
	}
	if st.Expiry != "" {
		b.WriteString(fmt.Sprintf("Expiry: %s\n", html.EscapeString(st.Expiry)))
	}
	switch {
	case st.IsFetching:
		b.WriteString("Status: 🔄 fetching\n")
	case st.Mode != model.ModeAuto:
		b.WriteString("Status: manual mode\n")
	case !st.HasFetched():
		b.WriteString("Status: auto mode, waiting for first manual fetch\n")
	case status.RefreshPending:
		b.WriteString("Status: 🔄 refresh due\n")
	default:
		secs := int(status.UntilNext / time.Second)
		b.WriteString(fmt.Sprintf("Next refresh: %d:%02d (%.0f%%)\n", secs/60, secs%60, status.Progress*100))
	}
	b.WriteString(fmt.Sprintf("Interval: %ds | Refreshes: %d\n", st.IntervalSeconds, st.FetchCount))
	return b.String()
}

// FormatOutcome renders a single fetch attempt.
func FormatOutcome(o model.FetchOutcome, loc *time.Location) string {
	if o.Success {
		return fmt.Sprintf("✅ <b>%s fetch</b> | %s\n%d rows in %s, expiry %s",
			o.Trigger, displayTime(o.Timestamp, loc), o.RowCount, o.Duration.Round(time.Millisecond), html.EscapeString(o.Expiry))
	}
	return fmt.Sprintf("❌ <b>%s fetch failed</b> [%s] | %s\n%s",
		o.Trigger, o.ErrorKind, displayTime(o.Timestamp, loc), html.EscapeString(o.Error))
}

// FormatExpiries renders the available expiries, marking the selected one.
func FormatExpiries(expiries []string, selected string) string {
	if len(expiries) == 0 {
		return "No expiries available"
	}
	var b strings.Builder
	b.WriteString("📅 <b>Expiries</b>\n")
	for _, e := range expiries {
		mark := "  "
		if e == selected {
			mark = "✓ "
		}
		b.WriteString(fmt.Sprintf("%s%s\n", mark, html.EscapeString(e)))
	}
	return b.String()
}
