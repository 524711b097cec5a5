package trip

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

// ErrNoRoute means the directions provider found no drawable path.
var ErrNoRoute = errors.New("no route found")

// Route is a driving path between two points.
type Route struct {
	Line            orb.LineString
	DistanceMeters  float64
	DurationSeconds float64
}

// Quote prices the route.
func (r *Route) Quote() Quote {
	return QuoteFor(r.DistanceMeters, r.DurationSeconds)
}

// Usable reports whether the route can be drawn.
func (r *Route) Usable() bool {
	return r != nil && len(r.Line) >= 2
}

const (
	baseFare   = 3.5
	costPerKm  = 1.2
	costPerMin = 0.3
)

// Quote is the fare estimate shown before a ride is requested.
type Quote struct {
	DistanceKm  float64 `json:"estimated_distance_km"`
	DurationMin int     `json:"estimated_duration_min"`
	Price       float64 `json:"estimated_price"`
}

// QuoteFor prices a route from its metres and seconds.
func QuoteFor(distanceMeters, durationSeconds float64) Quote {
	km := round2(distanceMeters / 1000)
	minutes := int(math.Ceil(durationSeconds / 60))
	return Quote{
		DistanceKm:  km,
		DurationMin: minutes,
		Price:       round2(baseFare + km*costPerKm + float64(minutes)*costPerMin),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
