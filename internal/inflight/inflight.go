// Package inflight provides a non-blocking per-location guard so at most one
// publish or reconcile touches a location's sync status at a time.
package inflight

import (
	"sync"

	"github.com/rotisserie/eris"
)

// ErrAlreadyInProgress is returned when an operation for the same
// (agency, location) pair is already in flight.
var ErrAlreadyInProgress = eris.New("inflight: operation already in progress for this location")

type key struct {
	agencyID   string
	locationID string
}

// Guard tracks in-flight operations keyed by (agencyID, locationID).
// Acquisition is non-blocking: a busy key fails immediately instead of queuing.
type Guard struct {
	mu     sync.Mutex
	active map[key]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[key]struct{})}
}

// TryAcquire marks the pair as in flight and returns a release function, or
// ErrAlreadyInProgress if another operation holds it. The release function is
// idempotent and must be called on every exit path, including timeout and panic
// paths (defer it immediately).
func (g *Guard) TryAcquire(agencyID, locationID string) (func(), error) {
	k := key{agencyID: agencyID, locationID: locationID}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[k]; busy {
		return nil, ErrAlreadyInProgress
	}
	g.active[k] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, k)
			g.mu.Unlock()
		})
	}
	return release, nil
}

// InFlight reports whether the pair currently holds the guard.
func (g *Guard) InFlight(agencyID, locationID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[key{agencyID: agencyID, locationID: locationID}]
	return busy
}
