package scheduler

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"StrikeSentinel/internal/model"
	"StrikeSentinel/internal/notifier"
	"StrikeSentinel/internal/reconcile"
)

const helpText = "Available commands:\n" +
	"• /refresh - fetch now\n" +
	"• /status - refresh status\n" +
	"• /report - reconciled strikes\n" +
	"• /auto on|off - toggle auto refresh\n" +
	"• /interval &lt;seconds&gt; - auto refresh period\n" +
	"• /expiries - list expiries\n" +
	"• /expiry &lt;value&gt; - select expiry\n" +
	"• /reload [path] - reload the strikes file"

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// "/status@SomeBot" in group chats.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/refresh":
		out, err := s.TriggerManual(s.Ctx)
		if err != nil {
			return rejection(err)
		}
		if !out.Success {
			// complete has already pushed the failure.
			if s.Notifier != nil {
				return ""
			}
			return s.formatOutcome(out)
		}
		return s.Report()
	case "/status":
		st := s.State()
		return notifier.FormatStatus(st, st.StatusAt(s.Clock.Now()), s.loc)
	case "/report":
		return s.Report()
	case "/auto":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return "Usage: /auto on|off"
		}
		s.SetAutoRefresh(args[0] == "on")
		return fmt.Sprintf("Auto refresh %s", args[0])
	case "/interval":
		if len(args) != 1 {
			return "Usage: /interval &lt;seconds&gt;"
		}
		n, err := strconv.Atoi(args[0])
		if err == nil {
			err = s.SetInterval(n)
		}
		if err != nil {
			return fmt.Sprintf("Invalid interval: %v", err)
		}
		return fmt.Sprintf("Refresh interval set to %ds", n)
	case "/expiries":
		expiries, err := s.ListExpiries(s.Ctx)
		if err != nil {
			return rejection(err)
		}
		return notifier.FormatExpiries(expiries, s.State().Expiry)
	case "/expiry":
		if len(args) != 1 {
			return "Usage: /expiry &lt;value&gt;"
		}
		if err := s.SelectExpiry(args[0]); err != nil {
			return rejection(err)
		}
		return fmt.Sprintf("Expiry set to %s", args[0])
	case "/reload":
		if len(args) > 1 {
			return "Usage: /reload [path]"
		}
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		if err := s.ReloadStrikes(path); err != nil {
			return rejection(err)
		}
		ce, pe := s.Session.Strikes()
		return fmt.Sprintf("Loaded %d CE / %d PE strikes from %s", len(ce), len(pe), html.EscapeString(s.Session.Source()))
	default:
		return helpText
	}
}

// Report assembles the current snapshot against the loaded strikes.
func (s *Scheduler) Report() string {
	if !s.Session.StrikesLoaded() {
		return rejection(ErrNotReady)
	}
	ce, pe := s.Session.Strikes()
	res := reconcile.Assemble(ce, pe, s.Session.Snapshot())
	return notifier.FormatReport(res, s.State(), s.loc)
}

func (s *Scheduler) formatOutcome(out model.FetchOutcome) string {
	return notifier.FormatOutcome(out, s.loc)
}

func rejection(err error) string {
	switch {
	case errors.Is(err, ErrNotReady):
		return "⚠️ Load strikes first"
	case errors.Is(err, ErrFetchInProgress):
		return "⏳ A fetch is already running"
	default:
		return fmt.Sprintf("❌ %s", html.EscapeString(err.Error()))
	}
}
