// Package animation moves map markers smoothly toward their latest target.
package animation

import (
	"math"
	"time"

	"ride-tracker/internal/domain/trip"
)

// EaseInOutQuad maps linear progress t in [0,1] to eased progress in [0,1].
func EaseInOutQuad(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// State is the animation of one marker.
type State struct {
	Current   trip.Point // position when the animation started
	Target    trip.Point
	StartTime time.Time
	Duration  time.Duration
}

// Progress returns the linear progress at now, clamped to [0,1].
func (s State) Progress(now time.Time) float64 {
	if s.Duration <= 0 {
		return 1
	}
	return clamp01(float64(now.Sub(s.StartTime)) / float64(s.Duration))
}

// Position interpolates between Current and Target with ease-in-out.
func (s State) Position(now time.Time) trip.Point {
	return Lerp(s.Current, s.Target, EaseInOutQuad(s.Progress(now)))
}

// Lerp linearly interpolates two points.
func Lerp(from, to trip.Point, f float64) trip.Point {
	return trip.Point{
		Lat: from.Lat + (to.Lat-from.Lat)*f,
		Lng: from.Lng + (to.Lng-from.Lng)*f,
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
