package gesture

import (
	"context"
	"testing"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/ports"

	"github.com/stretchr/testify/require"
)

type recordingNav struct {
	current ports.Screen
	visits  []ports.Screen
}

func (n *recordingNav) Navigate(_ context.Context, s ports.Screen) {
	n.current = s
	n.visits = append(n.visits, s)
}

func (n *recordingNav) Current() ports.Screen { return n.current }

var viewport = Viewport{Width: 400, Height: 800}

func TestTapWhenMovementWithinThreshold(t *testing.T) {
	m := NewMachine(viewport, Point{X: 200, Y: 84})

	require.True(t, m.PointerDown(Point{X: 205, Y: 90}, ButtonPrimary))
	require.Equal(t, Point{X: 5, Y: 6}, m.State().Offset)

	m.PointerMove(Point{X: 209, Y: 94}) // 4px on each axis
	m.PointerMove(Point{X: 211, Y: 96}) // 2px more: compared with the last position
	require.False(t, m.State().Moved)

	require.Equal(t, OutcomeTap, m.PointerUp())
	require.Equal(t, DragState{}, m.State())
}

func TestDragWhenMovementExceedsThreshold(t *testing.T) {
	m := NewMachine(viewport, Point{X: 200, Y: 84})
	m.PointerDown(Point{X: 200, Y: 84}, ButtonPrimary)

	pos := m.PointerMove(Point{X: 207, Y: 84})
	require.Equal(t, Point{X: 207, Y: 84}, pos)
	require.True(t, m.State().Moved)
	require.Equal(t, OutcomeDrag, m.PointerUp())
}

func TestExactThresholdIsNotADrag(t *testing.T) {
	m := NewMachine(viewport, Point{X: 200, Y: 200})
	m.PointerDown(Point{X: 200, Y: 200}, ButtonPrimary)
	m.PointerMove(Point{X: 206, Y: 194})
	require.Equal(t, OutcomeTap, m.PointerUp())
}

func TestClampKeepsMargin(t *testing.T) {
	m := NewMachine(viewport, Point{X: 200, Y: 84})
	m.PointerDown(Point{X: 200, Y: 84}, ButtonPrimary)

	require.Equal(t, Point{X: 44, Y: 44}, m.PointerMove(Point{X: -100, Y: -100}))
	require.Equal(t, Point{X: 356, Y: 756}, m.PointerMove(Point{X: 1000, Y: 5000}))
	require.Equal(t, OutcomeDrag, m.PointerUp())

	m.Resize(Viewport{Width: 200, Height: 300})
	require.Equal(t, Point{X: 156, Y: 256}, m.Position())
}

func TestIgnoresNonPrimaryAndStrayEvents(t *testing.T) {
	m := NewMachine(viewport, Point{X: 200, Y: 84})

	require.False(t, m.PointerDown(Point{X: 200, Y: 84}, ButtonSecondary))
	require.Equal(t, Point{X: 200, Y: 84}, m.PointerMove(Point{X: 300, Y: 300}))
	require.Equal(t, OutcomeNone, m.PointerUp())
	require.Equal(t, OutcomeNone, m.Key("a"))
	require.Equal(t, OutcomeTap, m.Key("Enter"))
	require.Equal(t, OutcomeTap, m.Key(" "))
}

func TestOverlayNavigatesOnlyOnTap(t *testing.T) {
	nav := &recordingNav{current: ports.ScreenProfile}
	o := NewOverlay(viewport, nav)
	require.Equal(t, Point{X: 200, Y: 84}, o.Position())

	o.PointerDown(Point{X: 200, Y: 84}, ButtonPrimary)
	o.PointerMove(Point{X: 260, Y: 300})
	require.Equal(t, OutcomeDrag, o.Release(context.Background()))
	require.Empty(t, nav.visits)

	o.PointerDown(o.Position(), ButtonPrimary)
	require.Equal(t, OutcomeTap, o.Release(context.Background()))
	require.Equal(t, []ports.Screen{ports.ScreenLiveTrip}, nav.visits)

	require.Equal(t, OutcomeTap, o.Press(context.Background(), "Enter"))
	require.Len(t, nav.visits, 2)
}

func TestOverlayVisibility(t *testing.T) {
	active := &trip.View{TripID: "T1", SnapshotStatus: trip.StatusAccepted}
	cancelled := &trip.View{TripID: "T1", SnapshotStatus: trip.StatusCancelled}

	require.True(t, Visible(active, ports.ScreenProfile))
	require.True(t, Visible(active, ports.ScreenRequest))
	require.False(t, Visible(active, ports.ScreenHome))
	require.False(t, Visible(active, ports.ScreenLiveTrip))
	require.False(t, Visible(cancelled, ports.ScreenProfile))
	require.False(t, Visible(nil, ports.ScreenProfile))

	require.True(t, ShouldRedirect(active, ports.ScreenHome))
	require.False(t, ShouldRedirect(active, ports.ScreenProfile))
	require.False(t, ShouldRedirect(cancelled, ports.ScreenHome))
}
