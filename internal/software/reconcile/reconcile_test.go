package reconcile

import (
	"testing"

	"ride-tracker/internal/domain/event"
	"ride-tracker/internal/domain/trip"

	"github.com/stretchr/testify/require"
)

func snapshot(id string, status trip.Status) *trip.Snapshot {
	return &trip.Snapshot{
		TripID:  id,
		Pickup:  trip.Place{Location: "Union Station", Point: trip.Point{Lat: 43.645, Lng: -79.38}},
		Dropoff: trip.Place{Location: "Pearson", Point: trip.Point{Lat: 43.677, Lng: -79.624}},
		Status:  status,
	}
}

func TestReconcileNilSnapshot(t *testing.T) {
	require.Nil(t, Reconcile(nil, nil, &event.DriverLocation{TripID: "T1"}))
}

func TestReconcileSearchingWithoutLocation(t *testing.T) {
	view := Reconcile(snapshot("T1", trip.StatusSearching), nil, nil)

	require.NotNil(t, view)
	require.Equal(t, trip.Point{Lat: 43.645, Lng: -79.38}, view.TargetPosition)
	require.Equal(t, trip.PhaseToPickup, view.RoutePhase)
	require.Equal(t, "Looking for a driver...", view.StatusText)
	require.False(t, view.Live)
}

func TestReconcileOnRouteLocation(t *testing.T) {
	loc := &event.DriverLocation{TripID: "T1", Status: "on route", Lat: 43.0, Lng: -79.0, Name: "Sam"}
	view := Reconcile(snapshot("T1", trip.StatusAccepted), nil, loc)

	require.Equal(t, trip.Point{Lat: 43.0, Lng: -79.0}, view.TargetPosition)
	require.Equal(t, trip.PhaseToDropoff, view.RoutePhase)
	require.Equal(t, "Locating driver...", view.StatusText)
	require.Equal(t, "Sam", view.Driver.Name)
	require.Equal(t, "Pearson", view.Destination().Location)
}

func TestReconcileIgnoresForeignTripLocation(t *testing.T) {
	snap := snapshot("T1", trip.StatusAccepted)
	base := Reconcile(snap, nil, nil)

	for _, loc := range []*event.DriverLocation{
		{TripID: "T0", Status: "on_route", Lat: 1, Lng: 1},
		{TripID: "", Status: "onroute", Lat: 2, Lng: 2},
		{TripID: "t1", Status: "On Route", Lat: 3, Lng: 3},
	} {
		require.Equal(t, base, Reconcile(snap, nil, loc))
	}
}

func TestReconcileCarriesStatusMessage(t *testing.T) {
	view := Reconcile(snapshot("T1", trip.StatusSearching), &event.TripStatus{Status: 100, Message: "finding you a driver"}, nil)
	require.Equal(t, "finding you a driver", view.StatusMessage)
}

func TestReconcilerResetsPhaseOnNewTrip(t *testing.T) {
	r := New()
	stale := &event.DriverLocation{TripID: "T1", Status: "on_route", Lat: 43, Lng: -79}

	change := r.Apply(snapshot("T1", trip.StatusAccepted), nil, stale)
	require.True(t, change.TripChanged)
	require.Equal(t, trip.PhaseToDropoff, r.Phase())

	// rider starts a new ride quickly; the cached event for T1 is still around
	change = r.Apply(snapshot("T2", trip.StatusSearching), nil, stale)
	require.True(t, change.TripChanged)
	require.Nil(t, change.Prev)
	require.Equal(t, trip.PhaseToPickup, r.Phase())
	require.Equal(t, trip.PhaseToPickup, change.Next.RoutePhase)
	require.True(t, change.PositionChanged())

	// same trip, same inputs: nothing moved
	change = r.Apply(snapshot("T2", trip.StatusSearching), nil, stale)
	require.False(t, change.TripChanged)
	require.False(t, change.PositionChanged())
	require.False(t, change.PhaseChanged())

	change = r.Apply(nil, nil, nil)
	require.True(t, change.TripChanged)
	require.Nil(t, change.Next)
}
