package route

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/logger"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

type fakeDirections struct {
	mu      sync.Mutex
	calls   []Query
	noRoute bool
	block   chan struct{}
}

func (f *fakeDirections) Route(ctx context.Context, from, to trip.Point) (*trip.Route, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Query{From: from, To: to})
	block, noRoute := f.block, f.noRoute
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if noRoute {
		return &trip.Route{Line: orb.LineString{from.Orb()}}, nil
	}
	return &trip.Route{Line: orb.LineString{from.Orb(), to.Orb()}, DistanceMeters: 1000}, nil
}

func (f *fakeDirections) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSurface struct {
	mu       sync.Mutex
	loaded   bool
	lines    []orb.LineString
	trips    []string
	checking chan struct{} // signalled when StyleLoaded is entered
	gate     chan struct{} // StyleLoaded waits on it when set
}

func (f *fakeSurface) StyleLoaded() bool {
	f.mu.Lock()
	checking, gate := f.checking, f.gate
	f.mu.Unlock()

	if checking != nil {
		checking <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

func (f *fakeSurface) SetRoute(tripID string, line orb.LineString) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	f.trips = append(f.trips, tripID)
}

func (f *fakeSurface) RemoveRoute() {}

func (f *fakeSurface) drawn() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lines)
}

func TestDebouncerCollapsesBurst(t *testing.T) {
	var calls atomic.Int32
	var last atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func(v int) {
		calls.Add(1)
		last.Store(int32(v))
	})

	for i := 1; i <= 10; i++ {
		d.Trigger(i)
		time.Sleep(2 * time.Millisecond)
	}
	require.True(t, d.Pending())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, int32(10), last.Load())
	require.False(t, d.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func(int) { calls.Add(1) })
	d.Trigger(1)
	d.Cancel()
	time.Sleep(40 * time.Millisecond)
	require.Zero(t, calls.Load())
}

func TestQueryFor(t *testing.T) {
	view := &trip.View{
		TripID:         "T1",
		TargetPosition: trip.Point{Lat: 1, Lng: 1},
		RoutePhase:     trip.PhaseToPickup,
		Pickup:         trip.Place{Point: trip.Point{Lat: 2, Lng: 2}},
		Dropoff:        trip.Place{Point: trip.Point{Lat: 3, Lng: 3}},
	}
	require.Equal(t, trip.Point{Lat: 2, Lng: 2}, QueryFor(view).To)

	view.RoutePhase = trip.PhaseToDropoff
	q := QueryFor(view)
	require.Equal(t, trip.Point{Lat: 1, Lng: 1}, q.From)
	require.Equal(t, trip.Point{Lat: 3, Lng: 3}, q.To)
}

func TestRedrawerUsesLastQueryOfBurst(t *testing.T) {
	dirs := &fakeDirections{}
	surface := &fakeSurface{loaded: true}
	r := NewRedrawer(context.Background(), logger.Nop(), surface, dirs, 30*time.Millisecond)

	for i := 0; i < 5; i++ {
		r.Schedule(Query{TripID: "T1", From: trip.Point{Lat: float64(i)}, To: trip.Point{Lat: 9}})
	}

	require.Eventually(t, func() bool { return surface.drawn() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, dirs.callCount())
	require.Equal(t, 4.0, dirs.calls[0].From.Lat)
	require.Equal(t, "T1", surface.trips[0])
}

func TestRedrawerSkipsUnusableAndUnloaded(t *testing.T) {
	dirs := &fakeDirections{noRoute: true}
	surface := &fakeSurface{loaded: true}
	r := NewRedrawer(context.Background(), logger.Nop(), surface, dirs, 5*time.Millisecond)

	r.Schedule(Query{TripID: "T1"})
	require.Eventually(t, func() bool { return dirs.callCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, surface.drawn())

	surface.mu.Lock()
	surface.loaded = false
	surface.mu.Unlock()
	dirs.mu.Lock()
	dirs.noRoute = false
	dirs.mu.Unlock()

	r.Schedule(Query{TripID: "T1"})
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, 1, dirs.callCount())
	require.Zero(t, surface.drawn())
}

func TestRedrawerStopDiscardsInFlight(t *testing.T) {
	dirs := &fakeDirections{block: make(chan struct{})}
	surface := &fakeSurface{loaded: true}
	r := NewRedrawer(context.Background(), logger.Nop(), surface, dirs, 5*time.Millisecond)

	r.Schedule(Query{TripID: "T1", From: trip.Point{Lat: 1}, To: trip.Point{Lat: 2}})
	require.Eventually(t, func() bool { return dirs.callCount() == 1 }, time.Second, 2*time.Millisecond)

	r.Stop()
	close(dirs.block)
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, surface.drawn())
	require.False(t, r.Pending())
}

func TestRedrawerStopAfterTimerFired(t *testing.T) {
	dirs := &fakeDirections{}
	surface := &fakeSurface{
		loaded:   true,
		checking: make(chan struct{}, 1),
		gate:     make(chan struct{}),
	}
	r := NewRedrawer(context.Background(), logger.Nop(), surface, dirs, 5*time.Millisecond)

	r.Schedule(Query{TripID: "OLD", From: trip.Point{Lat: 1}, To: trip.Point{Lat: 2}})

	// the timer fired and the redraw is between the style check and the lookup
	select {
	case <-surface.checking:
	case <-time.After(time.Second):
		t.Fatal("redraw never started")
	}
	r.Stop()
	close(surface.gate)

	time.Sleep(30 * time.Millisecond)
	require.Zero(t, dirs.callCount())
	require.Zero(t, surface.drawn())
}

func TestRedrawerNewScheduleSupersedesInFlight(t *testing.T) {
	dirs := &fakeDirections{block: make(chan struct{})}
	surface := &fakeSurface{loaded: true}
	r := NewRedrawer(context.Background(), logger.Nop(), surface, dirs, 5*time.Millisecond)

	r.Schedule(Query{TripID: "T1", From: trip.Point{Lat: 1}, To: trip.Point{Lat: 2}})
	require.Eventually(t, func() bool { return dirs.callCount() == 1 }, time.Second, 2*time.Millisecond)

	dirs.mu.Lock()
	dirs.block = nil
	dirs.mu.Unlock()
	r.Schedule(Query{TripID: "T2", From: trip.Point{Lat: 3}, To: trip.Point{Lat: 4}})

	require.Eventually(t, func() bool { return surface.drawn() == 1 }, time.Second, 2*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	surface.mu.Lock()
	defer surface.mu.Unlock()
	require.Equal(t, []string{"T2"}, surface.trips)
}
