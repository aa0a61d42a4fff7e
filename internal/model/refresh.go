package model

import "time"

// RefreshMode is the scheduler's trigger mode.
type RefreshMode string

const (
	ModeManual RefreshMode = "MANUAL"
	ModeAuto   RefreshMode = "AUTO"
)

// DefaultIntervalSeconds is the auto-refresh period used when none is configured.
const DefaultIntervalSeconds = 300

// RefreshState is the scheduler's state. Zero instants mean "unset".
type RefreshState struct {
	Mode              RefreshMode `json:"mode"`
	IntervalSeconds   int         `json:"interval_seconds"`
	LastFetch         time.Time   `json:"last_fetch"`
	NextDue           time.Time   `json:"next_due"`
	IsFetching        bool        `json:"is_fetching"`
	FetchCount        int         `json:"fetch_count"`
	Expiry            string      `json:"expiry,omitempty"`
	AvailableExpiries []string    `json:"available_expiries,omitempty"`
}

// Interval returns IntervalSeconds as a duration.
func (s RefreshState) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// HasFetched reports whether a successful fetch has completed.
func (s RefreshState) HasFetched() bool { return !s.LastFetch.IsZero() }

// RefreshStatus is a display-oriented view of RefreshState at a given instant.
type RefreshStatus struct {
	Now            time.Time     `json:"now"`
	Age            time.Duration `json:"age"`
	UntilNext      time.Duration `json:"until_next"`
	Progress       float64       `json:"progress"` // 0.0 ~ 1.0
	RefreshPending bool          `json:"refresh_pending"`
}

// StatusAt derives the RefreshStatus of s at now.
func (s RefreshState) StatusAt(now time.Time) RefreshStatus {
	st := RefreshStatus{Now: now}
	if !s.HasFetched() {
		return st
	}
	st.Age = now.Sub(s.LastFetch)
	if s.Mode != ModeAuto || s.IntervalSeconds <= 0 {
		return st
	}
	interval := s.Interval()
	if s.NextDue.IsZero() {
		st.Progress = clamp01(float64(st.Age) / float64(interval))
		st.RefreshPending = st.Age >= interval && !s.IsFetching
		return st
	}
	until := s.NextDue.Sub(now)
	if until < 0 {
		until = 0
	}
	st.UntilNext = until
	st.Progress = clamp01(float64(interval-until) / float64(interval))
	st.RefreshPending = until == 0 && !s.IsFetching
	return st
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
