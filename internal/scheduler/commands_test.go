package scheduler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StrikeSentinel/internal/model"
)

func TestHandleCommand(t *testing.T) {
	fx := newFixture(t, Options{})
	fx.fetch.expiries = []string{"26-Mar-2026", "27-Apr-2026"}

	assert.Contains(t, fx.sched.HandleCommand("/report"), "Load strikes first")
	assert.Contains(t, fx.sched.HandleCommand("/refresh"), "Load strikes first")

	fx.loadStrikes()
	fx.sess.ReplaceSnapshot(model.NewSnapshot([]model.StrikeRow{
		{Key: "112,250", CE: model.RowData{Volume: "5", BidQty: "1", Bid: "10.00", Ask: "11.00", AskQty: "2"}, PE: model.AllNA()},
	}, t0))

	assert.Contains(t, fx.sched.HandleCommand("/refresh"), "Matches: 1/2")
	assert.Contains(t, fx.sched.HandleCommand("/status@StrikeSentinelBot"), "Refreshes: 1")

	assert.Equal(t, "Auto refresh on", fx.sched.HandleCommand("/auto on"))
	assert.Equal(t, model.ModeAuto, fx.sched.State().Mode)
	assert.Contains(t, fx.sched.HandleCommand("/auto maybe"), "Usage")

	assert.Equal(t, "Refresh interval set to 60s", fx.sched.HandleCommand("/interval 60"))
	assert.Contains(t, fx.sched.HandleCommand("/interval soon"), "Invalid interval")

	assert.Contains(t, fx.sched.HandleCommand("/expiries"), "27-Apr-2026")
	assert.Equal(t, "Expiry set to 27-Apr-2026", fx.sched.HandleCommand("/expiry 27-Apr-2026"))
	assert.Contains(t, fx.sched.HandleCommand("/expiry 01-Jan-2020"), "unknown expiry")

	assert.Contains(t, fx.sched.HandleCommand("hello"), "Available commands")
	assert.Contains(t, fx.sched.HandleCommand("   "), "Available commands")
}

func TestHandleCommand_RefreshFailureWithoutNotifier(t *testing.T) {
	fx := newFixture(t, Options{})
	fx.loadStrikes()
	fx.fetch.fail.Store(true)

	assert.Contains(t, fx.sched.HandleCommand("/refresh"), "fetch failed")
}

func TestHandleCommand_Reload(t *testing.T) {
	fx := newFixture(t, Options{})
	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("CE STRIKE = []"), 0o644))

	assert.Contains(t, fx.sched.HandleCommand("/reload "+bad), "no CE/PE strike list found")
	assert.Contains(t, fx.sched.HandleCommand("/refresh"), "Load strikes first")
	assert.Contains(t, fx.sched.HandleCommand("/reload a b"), "Usage")

	good := filepath.Join(t.TempDir(), "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("CE STRIKE = ['112,250']\nPE STRIKE = ['112,750']"), 0o644))
	assert.Equal(t, "Loaded 1 CE / 1 PE strikes from "+good, fx.sched.HandleCommand("/reload "+good))
	assert.True(t, fx.sess.StrikesLoaded())
}
