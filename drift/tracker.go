package drift

import (
	"fmt"
	"sync"
	"time"
)

// Observation is the outcome of recording one fingerprint for a source.
type Observation struct {
	Source      string
	Fingerprint uint64

	// Previous is the last fingerprint seen for the source; only
	// meaningful when HasPrevious is true.
	Previous    uint64
	HasPrevious bool

	// Distance is the Hamming distance to Previous, or -1 without one.
	Distance int

	// Drifted is true when Distance exceeds the tracker threshold.
	Drifted bool
}

// Hex renders the fingerprint as a fixed-width hex string.
func (o Observation) Hex() string {
	return fmt.Sprintf("%016x", o.Fingerprint)
}

type entry struct {
	fingerprint uint64
	seenAt      time.Time
}

// Tracker remembers the most recent fingerprint per source. It is safe for
// concurrent use. Nothing is persisted: a restart starts from scratch.
type Tracker struct {
	mu        sync.Mutex
	last      map[string]entry
	latest    map[string]Observation
	threshold int
}

// NewTracker creates a Tracker flagging distances above threshold.
func NewTracker(threshold int) *Tracker {
	return &Tracker{
		last:      make(map[string]entry),
		latest:    make(map[string]Observation),
		threshold: threshold,
	}
}

// Observe records fp for source and compares it with the previous one.
// A zero fingerprint (empty document) is reported but not remembered.
func (t *Tracker) Observe(source string, fp uint64) Observation {
	obs := Observation{Source: source, Fingerprint: fp, Distance: -1}

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.last[source]; ok {
		obs.Previous = prev.fingerprint
		obs.HasPrevious = true
		obs.Distance = Distance(prev.fingerprint, fp)
		obs.Drifted = obs.Distance > t.threshold
	}
	if fp != 0 {
		t.last[source] = entry{fingerprint: fp, seenAt: time.Now()}
	}
	t.latest[source] = obs
	return obs
}

// Latest returns the most recent observation for source.
func (t *Tracker) Latest(source string) (Observation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obs, ok := t.latest[source]
	return obs, ok
}

// LastSeen returns when source was last fingerprinted.
func (t *Tracker) LastSeen(source string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.last[source]
	return e.seenAt, ok
}
