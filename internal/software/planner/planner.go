// Package planner prices a ride before it is requested and lets the rider drag
// the pickup and dropoff markers to adjust it.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"
	"ride-tracker/internal/software/gesture"
	"ride-tracker/internal/software/mapview"
)

const (
	MarkerPickupID  = "pickup"
	MarkerDropoffID = "dropoff"
)

var ErrUnknownMarker = errors.New("unknown planner marker")

// Plan is the current pickup, dropoff and fare estimate.
type Plan struct {
	Pickup  trip.Place `json:"pickup"`
	Dropoff trip.Place `json:"dropoff"`
	Quote   trip.Quote `json:"quote"`
	Priced  bool       `json:"priced"`
}

// Planner owns the two draggable markers of the ride request screen.
type Planner struct {
	logger     *logger.Logger
	directions ports.Directions
	geocoder   ports.Geocoder
	surface    ports.MapSurface
	projection mapview.Projection

	mu       sync.Mutex
	plan     Plan
	machines map[string]*gesture.Machine
}

// New places the pickup and dropoff markers seeded from address search.
func New(log *logger.Logger, directions ports.Directions, geocoder ports.Geocoder, surface ports.MapSurface, projection mapview.Projection, pickup, dropoff trip.Place) *Planner {
	p := &Planner{
		logger:     log,
		directions: directions,
		geocoder:   geocoder,
		surface:    surface,
		projection: projection,
		plan:       Plan{Pickup: pickup, Dropoff: dropoff},
		machines:   make(map[string]*gesture.Machine, 2),
	}

	surface.PlaceMarker(ports.Marker{ID: MarkerPickupID, Kind: ports.MarkerPickup, Position: pickup.Point, Color: mapview.ColorPickupDestination})
	surface.PlaceMarker(ports.Marker{ID: MarkerDropoffID, Kind: ports.MarkerDropoff, Position: dropoff.Point, Color: mapview.ColorDropoffDestination})

	p.machines[MarkerPickupID] = gesture.NewMachine(projection.Viewport, projection.ToScreen(pickup.Point), gesture.WithoutClamp())
	p.machines[MarkerDropoffID] = gesture.NewMachine(projection.Viewport, projection.ToScreen(dropoff.Point), gesture.WithoutClamp())
	return p
}

// Plan returns the current plan.
func (p *Planner) Plan() Plan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plan
}

// Refresh recomputes the route and quote for the current markers.
func (p *Planner) Refresh(ctx context.Context) (Plan, error) {
	p.mu.Lock()
	from, to := p.plan.Pickup.Point, p.plan.Dropoff.Point
	p.mu.Unlock()

	route, err := p.directions.Route(ctx, from, to)
	if err != nil {
		return p.Plan(), fmt.Errorf("route: %w", err)
	}

	p.surface.SetRoute("", route.Line)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.plan.Quote = route.Quote()
	p.plan.Priced = true

	p.logger.Info(ctx, "quote_computed", "Ride quote computed", map[string]any{
		"distance_km":  p.plan.Quote.DistanceKm,
		"duration_min": p.plan.Quote.DurationMin,
		"price":        p.plan.Quote.Price,
	})
	return p.plan, nil
}

// PointerDown starts dragging a marker.
func (p *Planner) PointerDown(markerID string, at gesture.Point, button gesture.Button) (bool, error) {
	m, err := p.machine(markerID)
	if err != nil {
		return false, err
	}
	return m.PointerDown(at, button), nil
}

// PointerMove drags the marker on the surface.
func (p *Planner) PointerMove(markerID string, at gesture.Point) error {
	m, err := p.machine(markerID)
	if err != nil {
		return err
	}
	if !m.State().IsDragging {
		return nil
	}
	pos := m.PointerMove(at)
	p.surface.MoveMarker(markerID, p.projection.ToPoint(pos))
	return nil
}

// PointerUp ends the gesture. A drag re-geocodes the marker, then recomputes route and quote.
func (p *Planner) PointerUp(ctx context.Context, markerID string) (gesture.Outcome, Plan, error) {
	m, err := p.machine(markerID)
	if err != nil {
		return gesture.OutcomeNone, Plan{}, err
	}

	outcome := m.PointerUp()
	if outcome != gesture.OutcomeDrag {
		return outcome, p.Plan(), nil
	}

	plan, err := p.DropAt(ctx, markerID, p.projection.ToPoint(m.Position()))
	return outcome, plan, err
}

// DropAt moves a marker to point as if it had been dragged there.
func (p *Planner) DropAt(ctx context.Context, markerID string, point trip.Point) (Plan, error) {
	m, err := p.machine(markerID)
	if err != nil {
		return Plan{}, err
	}
	if err := point.Validate(); err != nil {
		return p.Plan(), err
	}

	m.SetPosition(p.projection.ToScreen(point))
	p.surface.MoveMarker(markerID, point)

	name, gerr := p.geocoder.ReverseGeocode(ctx, point)
	if gerr != nil {
		p.logger.Error(ctx, "reverse_geocode_failed", "Falling back to a generic place name", gerr, map[string]any{
			"marker": markerID,
		})
	}

	p.mu.Lock()
	place := trip.Place{Location: name, Point: point}
	if markerID == MarkerPickupID {
		p.plan.Pickup = place
	} else {
		p.plan.Dropoff = place
	}
	p.mu.Unlock()

	return p.Refresh(ctx)
}

func (p *Planner) machine(markerID string) (*gesture.Machine, error) {
	m, ok := p.machines[markerID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMarker, markerID)
	}
	return m, nil
}
