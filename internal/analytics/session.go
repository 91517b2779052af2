package analytics

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxSessionEntries bounds the dedup map so a flood of synthetic session IDs
// cannot grow it without limit between prune runs.
const maxSessionEntries = 100_000

type sessionKey struct {
	customerID uuid.UUID
	sessionID  string
}

// SessionDeduper tracks which (customer, session) pairs already counted a
// visit inside the configured window. State lives in memory only and resets
// on restart; visit counting is an analytics signal, not an audit trail.
type SessionDeduper struct {
	mu      sync.Mutex
	entries map[sessionKey]time.Time
	window  time.Duration
	now     func() time.Time
}

// NewSessionDeduper builds a deduper with the given window. The now function
// is injectable for tests; pass nil to use the wall clock.
func NewSessionDeduper(window time.Duration, now func() time.Time) *SessionDeduper {
	if window <= 0 {
		window = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &SessionDeduper{
		entries: make(map[sessionKey]time.Time),
		window:  window,
		now:     now,
	}
}

// FirstSeen reports whether this (customer, session) pair should count a
// visit, and marks it seen. Repeat calls inside the window return false; once
// the window lapses the pair counts again.
func (d *SessionDeduper) FirstSeen(customerID uuid.UUID, sessionID string) bool {
	if sessionID == "" {
		// no session to key on, count every call
		return true
	}

	key := sessionKey{customerID: customerID, sessionID: sessionID}
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	seenAt, ok := d.entries[key]
	if ok && now.Sub(seenAt) < d.window {
		return false
	}
	if len(d.entries) >= maxSessionEntries && !ok {
		d.pruneLocked(now)
		if len(d.entries) >= maxSessionEntries {
			// still full of live entries, count rather than evict
			return true
		}
	}
	d.entries[key] = now
	return true
}

// Prune drops entries whose window has lapsed and returns how many were
// removed.
func (d *SessionDeduper) Prune() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pruneLocked(d.now())
}

func (d *SessionDeduper) pruneLocked(now time.Time) int {
	removed := 0
	for key, seenAt := range d.entries {
		if now.Sub(seenAt) >= d.window {
			delete(d.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked pairs.
func (d *SessionDeduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
