package state

import (
	"testing"

	"ride-tracker/internal/domain/event"
	"ride-tracker/internal/domain/trip"

	"github.com/stretchr/testify/require"
)

func drain(s *Store) bool {
	select {
	case <-s.Changes():
		return true
	default:
		return false
	}
}

func TestStoreDropsForeignLocation(t *testing.T) {
	s := New()
	s.SetSnapshot(&trip.Snapshot{TripID: "T1", Status: trip.StatusAccepted})
	drain(s)

	require.False(t, s.SetLocation(event.DriverLocation{TripID: "T0", Lat: 1, Lng: 1}))
	require.False(t, drain(s))
	require.Nil(t, s.Inputs().Location)

	require.True(t, s.SetLocation(event.DriverLocation{TripID: "T1", Lat: 2, Lng: 2}))
	require.True(t, drain(s))
	require.Equal(t, 2.0, s.Inputs().Location.Lat)
}

func TestStoreKeepsEarlyLocationUntilSnapshot(t *testing.T) {
	s := New()
	require.True(t, s.SetLocation(event.DriverLocation{TripID: "T9"}))

	changed := s.SetSnapshot(&trip.Snapshot{TripID: "T1"})
	require.True(t, changed)
	require.Nil(t, s.Inputs().Location)
}

func TestStoreCoalescesNotifications(t *testing.T) {
	s := New()
	s.SetStatus(event.TripStatus{Status: 100, Message: "a"})
	s.SetStatus(event.TripStatus{Status: 100, Message: "b"})
	s.SetSnapshot(&trip.Snapshot{TripID: "T1"})

	require.True(t, drain(s))
	require.False(t, drain(s))
	require.Equal(t, "b", s.Inputs().Status.Message)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := New()
	snap := &trip.Snapshot{TripID: "T1"}
	s.SetSnapshot(snap)
	snap.TripID = "mutated"

	got := s.Snapshot()
	require.Equal(t, "T1", got.TripID)
	got.TripID = "again"
	require.Equal(t, "T1", s.CurrentTripID())

	require.False(t, s.SetSnapshot(&trip.Snapshot{TripID: "T1", Status: trip.StatusAccepted}))

	s.ClearTrip()
	in := s.Inputs()
	require.Nil(t, in.Snapshot)
	require.Nil(t, in.Status)
	require.Nil(t, in.Location)
}
