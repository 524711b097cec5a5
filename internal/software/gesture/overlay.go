package gesture

import (
	"context"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/ports"
)

// overlayTop is the initial distance of the floating control from the top edge.
const overlayTop = 84.0

// Visible reports whether the "return to active ride" control is shown.
func Visible(view *trip.View, screen ports.Screen) bool {
	if view == nil || !view.Active() || view.Cancelled() {
		return false
	}
	return screen != ports.ScreenHome && screen != ports.ScreenLiveTrip
}

// ShouldRedirect reports whether landing on home must jump to the live trip.
func ShouldRedirect(view *trip.View, screen ports.Screen) bool {
	return screen == ports.ScreenHome && view != nil && view.Active() && !view.Cancelled()
}

// Overlay is the floating control that returns the rider to the live trip.
type Overlay struct {
	*Machine
	nav ports.Navigator
}

// NewOverlay places the control centred horizontally near the top of the viewport.
func NewOverlay(viewport Viewport, nav ports.Navigator) *Overlay {
	return &Overlay{
		Machine: NewMachine(viewport, Point{X: viewport.Width / 2, Y: overlayTop}),
		nav:     nav,
	}
}

// Release ends the gesture; a tap navigates to the live trip.
func (o *Overlay) Release(ctx context.Context) Outcome {
	outcome := o.PointerUp()
	if outcome == OutcomeTap {
		o.nav.Navigate(ctx, ports.ScreenLiveTrip)
	}
	return outcome
}

// Press handles keyboard activation.
func (o *Overlay) Press(ctx context.Context, key string) Outcome {
	outcome := o.Key(key)
	if outcome == OutcomeTap {
		o.nav.Navigate(ctx, ports.ScreenLiveTrip)
	}
	return outcome
}
