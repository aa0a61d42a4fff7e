// Package clock supplies the current instant in UTC and converts instants
// to a display zone.
package clock

import (
	"sync"
	"time"
)

// DefaultDisplayZone is the exchange's local zone.
const DefaultDisplayZone = "Asia/Kolkata"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// Real is the wall clock, always in UTC.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Fake is a manually driven clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a Fake clock set to t.
func NewFake(t time.Time) *Fake { return &Fake{now: t.UTC()} }

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// LoadZone resolves a display zone by name. IST falls back to a fixed
// +05:30 offset when the zone database is unavailable.
func LoadZone(name string) *time.Location {
	if name == "" {
		name = DefaultDisplayZone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if name == DefaultDisplayZone {
		return time.FixedZone("IST", 5*3600+30*60)
	}
	return time.UTC
}

// Display converts t to loc for presentation.
func Display(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t.UTC()
	}
	return t.In(loc)
}
