package animation

import (
	"sync"
	"testing"
	"time"

	"ride-tracker/internal/domain/trip"

	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	mu      sync.Mutex
	markers map[string]trip.Point
	moves   int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{markers: map[string]trip.Point{}}
}

func (f *fakeSurface) MoveMarker(id string, p trip.Point) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.markers[id]; !ok {
		return false
	}
	f.markers[id] = p
	f.moves++
	return true
}

func (f *fakeSurface) MarkerPosition(id string) (trip.Point, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.markers[id]
	return p, ok
}

func (f *fakeSurface) moveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moves
}

func TestEaseInOutQuad(t *testing.T) {
	require.Equal(t, 0.0, EaseInOutQuad(0))
	require.Equal(t, 0.5, EaseInOutQuad(0.5))
	require.Equal(t, 1.0, EaseInOutQuad(1))
	require.InDelta(t, 0.125, EaseInOutQuad(0.25), 1e-9)
	require.InDelta(t, 0.875, EaseInOutQuad(0.75), 1e-9)
	require.Equal(t, 0.0, EaseInOutQuad(-3))
	require.Equal(t, 1.0, EaseInOutQuad(7))

	prev := 0.0
	for i := 0; i <= 1000; i++ {
		v := EaseInOutQuad(float64(i) / 1000)
		require.GreaterOrEqual(t, v, prev)
		require.LessOrEqual(t, v, 1.0)
		prev = v
	}
}

func TestStateProgressMonotonic(t *testing.T) {
	start := time.Unix(1000, 0)
	s := State{
		Current:   trip.Point{Lat: 0, Lng: 0},
		Target:    trip.Point{Lat: 1, Lng: 2},
		StartTime: start,
		Duration:  700 * time.Millisecond,
	}

	prev := -1.0
	for ms := -100; ms <= 900; ms += 10 {
		p := s.Progress(start.Add(time.Duration(ms) * time.Millisecond))
		require.GreaterOrEqual(t, p, 0.0)
		require.LessOrEqual(t, p, 1.0)
		require.GreaterOrEqual(t, p, prev)
		prev = p
	}
	require.Equal(t, 1.0, prev)
	require.Equal(t, s.Target, s.Position(start.Add(700*time.Millisecond)))
	require.Equal(t, s.Current, s.Position(start))
}

func TestSchedulerReachesTarget(t *testing.T) {
	surface := newFakeSurface()
	surface.markers["driver"] = trip.Point{Lat: 43, Lng: -79}
	s := NewScheduler(surface, 50*time.Millisecond, 5*time.Millisecond)

	target := trip.Point{Lat: 43.01, Lng: -79.01}
	require.True(t, s.AnimateTo("driver", target))

	require.Eventually(t, func() bool {
		p, _ := surface.MarkerPosition("driver")
		return p == target
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		_, active := s.Active("driver")
		return !active
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerSupersedesFromRenderedPosition(t *testing.T) {
	surface := newFakeSurface()
	start := trip.Point{Lat: 0, Lng: 0}
	surface.markers["driver"] = start
	s := NewScheduler(surface, time.Hour, 5*time.Millisecond)

	require.True(t, s.AnimateTo("driver", trip.Point{Lat: 10, Lng: 10}))
	require.Eventually(t, func() bool { return surface.moveCount() > 0 }, time.Second, time.Millisecond)

	s.Cancel("driver")
	rendered, _ := surface.MarkerPosition("driver")

	require.True(t, s.AnimateTo("driver", trip.Point{Lat: -5, Lng: -5}))
	state, ok := s.Active("driver")
	require.True(t, ok)
	require.Equal(t, rendered, state.Current)
	require.Equal(t, trip.Point{Lat: -5, Lng: -5}, state.Target)

	s.CancelAll()
	_, ok = s.Active("driver")
	require.False(t, ok)

	frozen := surface.moveCount()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, frozen, surface.moveCount())
}

func TestSchedulerUnknownMarker(t *testing.T) {
	s := NewScheduler(newFakeSurface(), 0, 0)
	require.False(t, s.AnimateTo("ghost", trip.Point{Lat: 1, Lng: 1}))
	s.Cancel("ghost")
	s.CancelAll()
}
