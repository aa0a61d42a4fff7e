package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func TestNewSnapshot_DuplicateKeys(t *testing.T) {
	first := StrikeRow{Key: "112,250.00", CE: RowData{Bid: "1"}}
	latest := StrikeRow{Key: "112,250.00", CE: RowData{Bid: "2"}}
	other := StrikeRow{Key: "112,750.00"}

	s := NewSnapshot([]StrikeRow{first, other, latest}, t0)

	assert.Equal(t, []string{"112,250.00", "112,750.00"}, s.Keys())
	assert.Equal(t, 2, s.Len())
	row, ok := s.Row("112,250.00")
	assert.True(t, ok)
	assert.Equal(t, "2", row.CE.Bid)
	assert.Equal(t, t0, s.FetchedAt)
}

func TestSnapshot_NilSafe(t *testing.T) {
	var s *Snapshot
	assert.Nil(t, s.Keys())
	assert.Zero(t, s.Len())
	assert.True(t, s.Empty())
	_, ok := s.Row("1,000.00")
	assert.False(t, ok)

	assert.True(t, NewSnapshot(nil, t0).Empty())
}

func TestSnapshot_KeysIsACopy(t *testing.T) {
	s := NewSnapshot([]StrikeRow{{Key: "a"}, {Key: "b"}}, t0)
	keys := s.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, s.Keys())
}

func TestRowData(t *testing.T) {
	assert.False(t, AllNA().HasQuote())
	assert.True(t, RowData{Bid: "1", Ask: "2", Volume: NA}.HasQuote())

	r := StrikeRow{CE: RowData{Bid: "ce"}, PE: RowData{Bid: "pe"}}
	assert.Equal(t, "ce", r.Side(SideCE).Bid)
	assert.Equal(t, "pe", r.Side(SidePE).Bid)
}

func TestStrikeList_Clone(t *testing.T) {
	var nilList StrikeList
	assert.Nil(t, nilList.Clone())

	l := StrikeList{"1,000.00"}
	c := l.Clone()
	c[0] = "2,000.00"
	assert.Equal(t, "1,000.00", l[0])
}

func TestMatchStatus(t *testing.T) {
	assert.True(t, MatchExact.Found())
	assert.True(t, MatchSuffix.Found())
	assert.False(t, MatchNotFound.Found())
	assert.False(t, MatchStatus("").Found())
	assert.True(t, ReconciledRow{Status: MatchSuffix}.Suspect())
	assert.False(t, ReconciledRow{Status: MatchNormalized}.Suspect())
}

func TestStatusAt(t *testing.T) {
	interval := 300 * time.Second

	tests := []struct {
		name  string
		state RefreshState
		now   time.Time
		want  RefreshStatus
	}{
		{
			name:  "never fetched",
			state: RefreshState{Mode: ModeAuto, IntervalSeconds: 300},
			now:   t0,
			want:  RefreshStatus{Now: t0},
		},
		{
			name:  "manual mode only reports age",
			state: RefreshState{Mode: ModeManual, IntervalSeconds: 300, LastFetch: t0},
			now:   t0.Add(time.Minute),
			want:  RefreshStatus{Now: t0.Add(time.Minute), Age: time.Minute},
		},
		{
			name:  "auto halfway",
			state: RefreshState{Mode: ModeAuto, IntervalSeconds: 300, LastFetch: t0, NextDue: t0.Add(interval)},
			now:   t0.Add(150 * time.Second),
			want: RefreshStatus{
				Now:       t0.Add(150 * time.Second),
				Age:       150 * time.Second,
				UntilNext: 150 * time.Second,
				Progress:  0.5,
			},
		},
		{
			name:  "auto overdue",
			state: RefreshState{Mode: ModeAuto, IntervalSeconds: 300, LastFetch: t0, NextDue: t0.Add(interval)},
			now:   t0.Add(400 * time.Second),
			want: RefreshStatus{
				Now:            t0.Add(400 * time.Second),
				Age:            400 * time.Second,
				Progress:       1,
				RefreshPending: true,
			},
		},
		{
			name:  "overdue while fetching is not pending",
			state: RefreshState{Mode: ModeAuto, IntervalSeconds: 300, LastFetch: t0, NextDue: t0.Add(interval), IsFetching: true},
			now:   t0.Add(400 * time.Second),
			want: RefreshStatus{
				Now:      t0.Add(400 * time.Second),
				Age:      400 * time.Second,
				Progress: 1,
			},
		},
		{
			name:  "auto without due time uses age",
			state: RefreshState{Mode: ModeAuto, IntervalSeconds: 300, LastFetch: t0},
			now:   t0.Add(75 * time.Second),
			want: RefreshStatus{
				Now:      t0.Add(75 * time.Second),
				Age:      75 * time.Second,
				Progress: 0.25,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.StatusAt(tt.now))
		})
	}
}

func TestRefreshState_Interval(t *testing.T) {
	st := RefreshState{IntervalSeconds: 90}
	assert.Equal(t, 90*time.Second, st.Interval())
	assert.False(t, st.HasFetched())
	st.LastFetch = t0
	assert.True(t, st.HasFetched())
}
