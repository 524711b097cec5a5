package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ride-tracker/internal/domain/trip"
)

var ErrBadCoordinates = errors.New(`coordinates must look like "lat,lng"`)

// ParsePoint reads "lat,lng".
func ParsePoint(s string) (trip.Point, error) {
	latRaw, lngRaw, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return trip.Point{}, ErrBadCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return trip.Point{}, fmt.Errorf("%w: latitude %q", ErrBadCoordinates, latRaw)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return trip.Point{}, fmt.Errorf("%w: longitude %q", ErrBadCoordinates, lngRaw)
	}

	p := trip.Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return trip.Point{}, err
	}
	return p, nil
}

// ParsePlace reads "lat,lng" or "lat,lng@Name".
func ParsePlace(s string) (trip.Place, error) {
	coords, name, _ := strings.Cut(s, "@")
	p, err := ParsePoint(coords)
	if err != nil {
		return trip.Place{}, err
	}
	return trip.NewPlace(name, p.Lat, p.Lng)
}
