package route

import (
	"context"
	"errors"
	"sync"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"

	"github.com/paulmach/orb"
)

// Query is the input of one route lookup.
type Query struct {
	TripID string
	From   trip.Point
	To     trip.Point
	Phase  trip.Phase
}

// QueryFor picks source and destination for the view: driver to dropoff when on route,
// otherwise driver (or pickup while no driver position is known) to pickup.
func QueryFor(view *trip.View) Query {
	return Query{
		TripID: view.TripID,
		From:   view.TargetPosition,
		To:     view.Destination().Point,
		Phase:  view.RoutePhase,
	}
}

// Surface is the part of the map the redrawer touches.
type Surface interface {
	StyleLoaded() bool
	SetRoute(tripID string, line orb.LineString)
	RemoveRoute()
}

// Redrawer debounces route lookups and draws the latest result.
type Redrawer struct {
	logger     *logger.Logger
	surface    Surface
	directions ports.Directions
	debouncer  *Debouncer[scheduled]
	base       context.Context

	mu       sync.Mutex
	gen      uint64
	inFlight context.CancelFunc
}

// NewRedrawer creates a Redrawer. Lookups inherit ctx.
func NewRedrawer(ctx context.Context, log *logger.Logger, surface Surface, directions ports.Directions, delay time.Duration) *Redrawer {
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	r := &Redrawer{logger: log, surface: surface, directions: directions, base: ctx}
	r.debouncer = NewDebouncer(delay, r.redraw)
	return r
}

// scheduled pins a query to the generation current when it was scheduled.
type scheduled struct {
	query Query
	gen   uint64
}

// Schedule asks for a redraw; only the last query of a burst is looked up.
func (r *Redrawer) Schedule(q Query) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	r.debouncer.Trigger(scheduled{query: q, gen: gen})
}

// Pending reports whether a redraw is waiting for its quiet period.
func (r *Redrawer) Pending() bool {
	return r.debouncer.Pending()
}

// Stop cancels the pending redraw and any lookup in flight; late results are discarded.
func (r *Redrawer) Stop() {
	r.debouncer.Cancel()

	r.mu.Lock()
	r.gen++
	if r.inFlight != nil {
		r.inFlight()
		r.inFlight = nil
	}
	r.mu.Unlock()
}

func (r *Redrawer) redraw(s scheduled) {
	q, gen := s.query, s.gen
	ctx := r.logger.WithTripID(r.base, q.TripID)

	if !r.surface.StyleLoaded() {
		r.logger.Debug(ctx, "route_redraw_skipped", "Map style not loaded", nil)
		return
	}

	r.mu.Lock()
	if r.gen != gen {
		// stopped or rescheduled after the timer fired
		r.mu.Unlock()
		return
	}
	if r.inFlight != nil {
		r.inFlight()
	}
	lookupCtx, cancel := context.WithCancel(ctx)
	r.inFlight = cancel
	r.mu.Unlock()

	defer cancel()

	route, err := r.directions.Route(lookupCtx, q.From, q.To)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		return
	}
	r.inFlight = nil

	switch {
	case errors.Is(err, trip.ErrNoRoute):
		return
	case err != nil:
		if !errors.Is(err, context.Canceled) {
			r.logger.Error(ctx, "route_lookup_failed", "Failed to fetch route", err, map[string]any{
				"phase": q.Phase.String(),
			})
		}
		return
	case !route.Usable():
		return
	}

	r.surface.SetRoute(q.TripID, route.Line)
}
