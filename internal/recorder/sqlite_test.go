package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StrikeSentinel/internal/model"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	defer r.Close()

	t0 := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	ok := model.FetchOutcome{
		ID: "a", Trigger: model.TriggerManual, Timestamp: t0,
		Duration: 4200 * time.Millisecond, Success: true, RowCount: 42, Expiry: "26-Mar-2026",
	}
	failed := model.FetchOutcome{
		ID: "b", Trigger: model.TriggerAuto, Timestamp: t0.Add(5 * time.Minute),
		Duration: time.Second, ErrorKind: model.ErrEmptyResult, Error: "no rows",
	}
	require.NoError(t, r.RecordFetch(&ok))
	require.NoError(t, r.RecordFetch(&failed))

	got, err := r.RecentFetches(10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, failed, got[0])
	assert.Equal(t, ok, got[1])

	got, err = r.RecentFetches(1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteRecorder_DuplicateIDRejected(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer r.Close()

	o := model.FetchOutcome{ID: "dup", Trigger: model.TriggerManual, Timestamp: time.Now()}
	require.NoError(t, r.RecordFetch(&o))
	assert.Error(t, r.RecordFetch(&o))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordFetch(&model.FetchOutcome{}))
	got, err := r.RecentFetches(5)
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, r.Close())
}
