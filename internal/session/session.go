// Package session holds the long-lived state shared by the fetch path and
// the display path: the target strike lists and the live snapshot.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"StrikeSentinel/internal/model"
)

// Session is the explicit per-process state object. The snapshot is replaced
// wholesale and read without locks; strike lists change only on reload.
type Session struct {
	mu     sync.RWMutex
	ce     model.StrikeList
	pe     model.StrikeList
	source string
	loaded bool

	snapshot atomic.Pointer[model.Snapshot]
}

// New creates an empty Session.
func New() *Session {
	return &Session{}
}

// LoadStrikes replaces both strike lists.
func (s *Session) LoadStrikes(ce, pe model.StrikeList, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ce = ce.Clone()
	s.pe = pe.Clone()
	s.source = source
	s.loaded = true
}

// Strikes returns copies of the CE and PE lists.
func (s *Session) Strikes() (ce, pe model.StrikeList) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ce.Clone(), s.pe.Clone()
}

// StrikesLoaded reports whether strike lists have been loaded.
func (s *Session) StrikesLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Source returns where the strike lists were loaded from.
func (s *Session) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Snapshot returns the live snapshot, or an empty one before the first fetch.
func (s *Session) Snapshot() *model.Snapshot {
	if snap := s.snapshot.Load(); snap != nil {
		return snap
	}
	return model.NewSnapshot(nil, time.Time{})
}

// ReplaceSnapshot atomically swaps in snap.
func (s *Session) ReplaceSnapshot(snap *model.Snapshot) {
	s.snapshot.Store(snap)
}
