// Package reconcile merges the polled trip snapshot with the latest push events.
package reconcile

import (
	"ride-tracker/internal/domain/event"
	"ride-tracker/internal/domain/trip"
)

// Reconcile derives the render-ready view. It is a pure function: nil snapshot gives nil.
//
// The location event only counts when it belongs to the snapshot's trip; then its position
// and driver status win. Otherwise the pickup point and the "assigned" status are used.
// The poll stays authoritative for trip identity and snapshot status.
func Reconcile(snapshot *trip.Snapshot, status *event.TripStatus, location *event.DriverLocation) *trip.View {
	if snapshot == nil {
		return nil
	}

	view := &trip.View{
		TripID:         snapshot.TripID,
		DriverID:       snapshot.DriverIDOrEmpty(),
		TargetPosition: snapshot.Pickup.Point,
		RoutePhase:     trip.PhaseOf(trip.AssignedStatus),
		StatusText:     statusText(snapshot.Status),
		SnapshotStatus: snapshot.Status,
		Pickup:         snapshot.Pickup,
		Dropoff:        snapshot.Dropoff,
	}

	if status != nil {
		view.StatusMessage = status.Message
	}

	if location != nil && location.TripID == snapshot.TripID {
		view.TargetPosition = trip.Point{Lat: location.Lat, Lng: location.Lng}
		view.RoutePhase = trip.PhaseOf(location.Status)
		view.Live = true
		if view.DriverID == "" {
			view.DriverID = location.DriverID
		}
		view.Driver = &trip.DriverDisplay{
			Name:      location.Name,
			Phone:     location.Phone,
			PhotoURL:  location.PhotoURL,
			CarNumber: location.CarNumber,
			CarColor:  location.CarColor,
		}
	}

	return view
}

func statusText(status trip.Status) string {
	if status == trip.StatusSearching {
		return trip.StatusTextSearching
	}
	return trip.StatusTextLocating
}

// Change describes one recomputation of the view.
type Change struct {
	Prev        *trip.View
	Next        *trip.View
	TripChanged bool // a different ride (or no ride) than before
}

// PositionChanged reports whether the driver target moved.
func (c Change) PositionChanged() bool {
	if c.Next == nil {
		return false
	}
	return c.TripChanged || c.Prev == nil || c.Prev.TargetPosition != c.Next.TargetPosition
}

// PhaseChanged reports whether the route phase flipped.
func (c Change) PhaseChanged() bool {
	if c.Next == nil {
		return false
	}
	return c.TripChanged || c.Prev == nil || c.Prev.RoutePhase != c.Next.RoutePhase
}

// Reconciler remembers the working phase per trip and resets it when the trip id changes.
type Reconciler struct {
	tripID string
	phase  trip.Phase
	last   *trip.View
}

// New returns a Reconciler with no trip.
func New() *Reconciler {
	return &Reconciler{phase: trip.PhaseToPickup}
}

// Apply recomputes the view and reports how it differs from the previous one.
func (r *Reconciler) Apply(snapshot *trip.Snapshot, status *event.TripStatus, location *event.DriverLocation) Change {
	next := Reconcile(snapshot, status, location)

	nextID := ""
	if next != nil {
		nextID = next.TripID
	}

	change := Change{Prev: r.last, Next: next, TripChanged: nextID != r.tripID}
	if change.TripChanged {
		r.tripID = nextID
		r.phase = trip.PhaseOf(trip.AssignedStatus)
		// the view of a new ride never inherits anything from the previous one
		change.Prev = nil
	}
	if next != nil {
		r.phase = next.RoutePhase
	}
	r.last = next

	return change
}

// Phase returns the working phase of the current trip.
func (r *Reconciler) Phase() trip.Phase {
	return r.phase
}
