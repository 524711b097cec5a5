package trip

import (
	"errors"
	"strings"

	"github.com/paulmach/orb"
)

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Point is a WGS84 position.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks coordinate ranges.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return ErrInvalidLatitude
	}
	if p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// Orb converts to an orb point (lng, lat order).
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// FromOrb converts an orb point back to a Point.
func FromOrb(p orb.Point) Point {
	return Point{Lat: p.Lat(), Lng: p.Lon()}
}

// Place is a named point (pickup or dropoff).
type Place struct {
	Location string `json:"location"`
	Point
}

// NewPlace builds a Place and validates its coordinates.
func NewPlace(location string, lat, lng float64) (Place, error) {
	place := Place{Location: strings.TrimSpace(location), Point: Point{Lat: lat, Lng: lng}}
	if err := place.Validate(); err != nil {
		return Place{}, err
	}
	return place, nil
}
