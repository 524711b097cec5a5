// Package plannerapp prices a ride from the command line.
package plannerapp

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/config"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/general/mapbox"
	"ride-tracker/internal/software/gesture"
	"ride-tracker/internal/software/mapview"
	"ride-tracker/internal/software/planner"
)

// defaultZoom frames a city-sized ride.
const defaultZoom = 13

// Request is one quote run. MovePickup/MoveDropoff simulate dropping a dragged marker.
type Request struct {
	Pickup      trip.Place
	Dropoff     trip.Place
	MovePickup  *trip.Point
	MoveDropoff *trip.Point
}

// Quote computes the route and fare for req and prints the plan.
func Quote(ctx context.Context, cfg *config.Config, log *logger.Logger, req Request, out io.Writer) (planner.Plan, error) {
	mb := mapbox.New(log, cfg.Mapbox.BaseURL, cfg.Mapbox.Token, &http.Client{Timeout: cfg.API.RequestTimeout})

	canvas := mapview.NewCanvas()
	canvas.SetStyleLoaded(true)

	projection := mapview.Projection{
		Center:   midpoint(req.Pickup.Point, req.Dropoff.Point),
		Zoom:     defaultZoom,
		Viewport: gesture.Viewport{Width: cfg.Tracker.ViewportWidth, Height: cfg.Tracker.ViewportHeight},
	}
	p := planner.New(log, mb, mb, canvas, projection, req.Pickup, req.Dropoff)

	plan, err := p.Refresh(ctx)
	if err != nil {
		return plan, err
	}

	if req.MovePickup != nil {
		if plan, err = p.DropAt(ctx, planner.MarkerPickupID, *req.MovePickup); err != nil {
			return plan, err
		}
	}
	if req.MoveDropoff != nil {
		if plan, err = p.DropAt(ctx, planner.MarkerDropoffID, *req.MoveDropoff); err != nil {
			return plan, err
		}
	}

	Print(out, plan)
	return plan, nil
}

// Print writes the plan in a human-readable form.
func Print(out io.Writer, plan planner.Plan) {
	fmt.Fprintf(out, "Pickup:   %s (%.6f, %.6f)\n", placeName(plan.Pickup), plan.Pickup.Lat, plan.Pickup.Lng)
	fmt.Fprintf(out, "Dropoff:  %s (%.6f, %.6f)\n", placeName(plan.Dropoff), plan.Dropoff.Lat, plan.Dropoff.Lng)
	if !plan.Priced {
		fmt.Fprintln(out, "Quote:    unavailable")
		return
	}
	fmt.Fprintf(out, "Distance: %.2f km\n", plan.Quote.DistanceKm)
	fmt.Fprintf(out, "Duration: %d min\n", plan.Quote.DurationMin)
	fmt.Fprintf(out, "Price:    $%.2f\n", plan.Quote.Price)
}

func placeName(p trip.Place) string {
	if p.Location == "" {
		return mapbox.FallbackPlaceName
	}
	return p.Location
}

func midpoint(a, b trip.Point) trip.Point {
	return trip.Point{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}
