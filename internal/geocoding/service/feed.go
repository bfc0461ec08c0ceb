package service

import (
	"sync"
	"time"

	"github.com/natalis-app/natalis-backend/internal/geocoding/domain"
)

const DefaultFeedIdle = 10 * time.Minute

// Feed gates search results per client session: only the response to the
// most recently issued query may become visible. Responses to superseded
// queries are dropped whatever order they arrive in.
type Feed struct {
	mu        sync.Mutex
	sessions  map[string]*feedState
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type feedState struct {
	issued  uint64
	shown   uint64
	items   []domain.Candidate
	touched time.Time
}

func NewFeed(idle time.Duration) *Feed {
	if idle <= 0 {
		idle = DefaultFeedIdle
	}
	return &Feed{sessions: make(map[string]*feedState), idle: idle, now: time.Now}
}

// Issue hands out the next sequence number for session.
func (f *Feed) Issue(session string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.sweepLocked(now)

	st, ok := f.sessions[session]
	if !ok {
		st = &feedState{}
		f.sessions[session] = st
	}
	st.issued++
	st.touched = now
	return st.issued
}

// Deliver publishes items for seq. It reports false when a newer query was
// issued in the meantime or the session is unknown.
func (f *Feed) Deliver(session string, seq uint64, items []domain.Candidate) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.sessions[session]
	if !ok || seq != st.issued || seq <= st.shown {
		return false
	}
	st.shown = seq
	st.items = items
	st.touched = f.now()
	return true
}

// Visible returns the last accepted result set for session.
func (f *Feed) Visible(session string) []domain.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()

	if st, ok := f.sessions[session]; ok && st.items != nil {
		return st.items
	}
	return []domain.Candidate{}
}

// Len is the number of tracked sessions.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *Feed) sweepLocked(now time.Time) {
	if now.Sub(f.lastSweep) < f.idle {
		return
	}
	f.lastSweep = now
	for id, st := range f.sessions {
		if now.Sub(st.touched) >= f.idle {
			delete(f.sessions, id)
		}
	}
}
