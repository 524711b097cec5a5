// Package state holds the latest values read by every tracker callback.
package state

import (
	"sync"

	"ride-tracker/internal/domain/event"
	"ride-tracker/internal/domain/trip"
)

// Inputs is a consistent copy of everything the reconciler needs.
type Inputs struct {
	Snapshot *trip.Snapshot
	Status   *event.TripStatus
	Location *event.DriverLocation
}

// Store is the mutex-guarded container for the latest snapshot and push events.
// Writers never block: change notifications are coalesced into a single pending signal.
type Store struct {
	mu       sync.RWMutex
	snapshot *trip.Snapshot
	status   *event.TripStatus
	location *event.DriverLocation
	changes  chan struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{changes: make(chan struct{}, 1)}
}

// Changes signals after any write. Several writes between two reads collapse into one signal.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// SetSnapshot replaces the polled snapshot. When the trip id changes, a retained
// location event of another trip is dropped. It reports whether the trip id changed.
func (s *Store) SetSnapshot(snap *trip.Snapshot) bool {
	s.mu.Lock()
	prev := tripIDOf(s.snapshot)
	next := tripIDOf(snap)

	if snap != nil {
		cp := *snap
		snap = &cp
	}
	s.snapshot = snap

	if prev != next && s.location != nil && s.location.TripID != next {
		s.location = nil
	}
	s.mu.Unlock()

	s.notify()
	return prev != next
}

// ClearTrip forgets the snapshot and both push events.
func (s *Store) ClearTrip() {
	s.mu.Lock()
	s.snapshot = nil
	s.status = nil
	s.location = nil
	s.mu.Unlock()

	s.notify()
}

// SetStatus retains the latest TRIP_STATUS event.
func (s *Store) SetStatus(e event.TripStatus) {
	s.mu.Lock()
	s.status = &e
	s.mu.Unlock()

	s.notify()
}

// ClearStatus drops the retained TRIP_STATUS event.
func (s *Store) ClearStatus() {
	s.mu.Lock()
	s.status = nil
	s.mu.Unlock()

	s.notify()
}

// SetLocation retains a location event when it belongs to the current trip.
// Before the first snapshot arrives any event is kept; the reconciler still matches on trip id.
func (s *Store) SetLocation(e event.DriverLocation) bool {
	s.mu.Lock()
	current := tripIDOf(s.snapshot)
	if current != "" && e.TripID != current {
		s.mu.Unlock()
		return false
	}
	s.location = &e
	s.mu.Unlock()

	s.notify()
	return true
}

// CurrentTripID returns the trip id of the retained snapshot or "".
func (s *Store) CurrentTripID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tripIDOf(s.snapshot)
}

// Snapshot returns a copy of the retained snapshot.
func (s *Store) Snapshot() *trip.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil
	}
	cp := *s.snapshot
	return &cp
}

// Inputs returns copies of all retained values taken under one lock.
func (s *Store) Inputs() Inputs {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var in Inputs
	if s.snapshot != nil {
		cp := *s.snapshot
		in.Snapshot = &cp
	}
	if s.status != nil {
		cp := *s.status
		in.Status = &cp
	}
	if s.location != nil {
		cp := *s.location
		in.Location = &cp
	}
	return in
}

func tripIDOf(snap *trip.Snapshot) string {
	if snap == nil {
		return ""
	}
	return snap.TripID
}
