package ports

import (
	"context"

	"ride-tracker/internal/domain/trip"

	"github.com/paulmach/orb"
)

// TripAPI is the persisted-trip REST backend.
type TripAPI interface {
	ActiveRideID(ctx context.Context) (string, bool, error)
	ActiveTrip(ctx context.Context, tripID string) (*trip.Snapshot, error)
	CancelRide(ctx context.Context, req CancelRequest) (bool, error)
}

// CancelRequest asks the backend to cancel a ride.
type CancelRequest struct {
	TripID   string
	DriverID string
	Reason   string
}

// Directions computes driving routes.
type Directions interface {
	Route(ctx context.Context, from, to trip.Point) (*trip.Route, error)
}

// Geocoder turns a point into a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p trip.Point) (string, error)
}

// ViewSink receives every reconciled view change. A nil view means the ride is gone.
type ViewSink interface {
	Name() string
	Publish(ctx context.Context, riderID string, view *trip.View) error
}

// ----- Presentation -----

// MarkerKind tells the surface how to draw a marker.
type MarkerKind string

const (
	MarkerDriver      MarkerKind = "driver"
	MarkerDestination MarkerKind = "destination"
	MarkerPickup      MarkerKind = "pickup"
	MarkerDropoff     MarkerKind = "dropoff"
)

// Marker is a point overlay on the map.
type Marker struct {
	ID       string
	Kind     MarkerKind
	Position trip.Point
	Color    string
}

// MapSurface is the map the tracker renders into.
type MapSurface interface {
	StyleLoaded() bool
	PlaceMarker(m Marker)
	MoveMarker(id string, p trip.Point) bool
	MarkerPosition(id string) (trip.Point, bool)
	RecolorMarker(id, color string) bool
	RemoveMarker(id string)
	SetRoute(tripID string, line orb.LineString)
	RemoveRoute()
}

// Screen is a client route.
type Screen string

const (
	ScreenHome     Screen = "/"
	ScreenLiveTrip Screen = "/on-ride"
	ScreenRequest  Screen = "/ride"
	ScreenProfile  Screen = "/profile"
	ScreenLogin    Screen = "/login"
)

// Navigator moves the client between screens.
type Navigator interface {
	Navigate(ctx context.Context, screen Screen)
	Current() Screen
}
