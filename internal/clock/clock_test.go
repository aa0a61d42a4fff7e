package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReal_IsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Real{}.Now().Location())
}

func TestFake_AdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	f := NewFake(start)
	f.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), f.Now())

	f.Set(start)
	assert.Equal(t, start, f.Now())
}

func TestDisplay_ConvertsWithoutChangingInstant(t *testing.T) {
	utc := time.Date(2025, 3, 1, 4, 30, 0, 0, time.UTC)
	ist := Display(utc, LoadZone(""))

	assert.True(t, ist.Equal(utc))
	assert.Equal(t, 10, ist.Hour())
	assert.Equal(t, 0, ist.Minute())
}

func TestLoadZone_UnknownFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadZone("Nowhere/Unknown"))
}
