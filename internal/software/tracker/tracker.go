// Package tracker runs the rider's live trip: it polls the active ride, listens to the
// push channel and renders the reconciled view onto the map surface.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ride-tracker/internal/domain/event"
	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/jwt"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/general/websocket"
	"ride-tracker/internal/ports"
	"ride-tracker/internal/software/animation"
	"ride-tracker/internal/software/cancel"
	"ride-tracker/internal/software/dispatch"
	"ride-tracker/internal/software/gesture"
	"ride-tracker/internal/software/mapview"
	"ride-tracker/internal/software/reconcile"
	"ride-tracker/internal/software/route"
	"ride-tracker/internal/software/state"

	"github.com/sourcegraph/conc"
)

// Marker ids on the map surface.
const (
	MarkerDriverID      = "driver"
	MarkerDestinationID = "destination"
)

// StatusTryingToConnect replaces the waiting text while the push channel is down.
const StatusTryingToConnect = "Trying to connect..."

var (
	ErrNoIdentity      = errors.New("tracker: no rider identity")
	ErrUnknownCarColor = errors.New("tracker: unknown car colour")
	ErrNoActiveRide    = errors.New("tracker: no active ride")
	ErrStopped         = errors.New("tracker: stopped")
	ErrUnknownAction   = errors.New("tracker: unknown pointer action")
)

// Socket is the push connection the tracker drives.
type Socket interface {
	Open(ctx context.Context, riderID string) error
	Close()
	State() websocket.ConnectionState
	OnState(fn func(websocket.ConnectionState))
}

// SocketFactory builds the socket around the tracker's message handler.
type SocketFactory func(handler websocket.Handler) Socket

// Sink receives every distinct view; nil means the ride is gone.
type Sink interface {
	Offer(ctx context.Context, riderID string, view *trip.View) bool
}

// Navigator is the screen router; listeners fire after every move.
type Navigator interface {
	ports.Navigator
	OnNavigate(fn func(ports.Screen))
}

// Config tunes the tracker.
type Config struct {
	PollInterval      time.Duration
	AnimationDuration time.Duration
	FrameInterval     time.Duration
	RouteDebounce     time.Duration
	CarColor          string
	Viewport          gesture.Viewport
}

// Deps are the collaborators of a Tracker.
type Deps struct {
	API        ports.TripAPI
	Directions ports.Directions
	Surface    ports.MapSurface
	Navigator  Navigator
	NewSocket  SocketFactory
	Sink       Sink // optional
}

// Tracker owns the event loop. Only the loop goroutine renders.
type Tracker struct {
	logger   *logger.Logger
	cfg      Config
	identity jwt.Identity

	api        ports.TripAPI
	directions ports.Directions
	surface    ports.MapSurface
	nav        Navigator
	socket     Socket
	sink       Sink

	store    *state.Store
	recon    *reconcile.Reconciler
	animator *animation.Scheduler
	redrawer *route.Redrawer
	cancel   *cancel.Flow
	overlay  *gesture.Overlay
	dispatch *dispatch.Dispatcher

	wake   chan struct{}
	events chan func(context.Context)

	mu        sync.RWMutex
	view      *trip.View
	published *trip.View
	carColor  string
	runCtx    context.Context
}

// New wires a Tracker for identity.
func New(log *logger.Logger, cfg Config, identity jwt.Identity, deps Deps) (*Tracker, error) {
	if !identity.Present() {
		return nil, ErrNoIdentity
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.CarColor == "" {
		cfg.CarColor = "black"
	}
	if _, ok := mapview.CarColors[cfg.CarColor]; !ok {
		return nil, ErrUnknownCarColor
	}

	t := &Tracker{
		logger:     log,
		cfg:        cfg,
		identity:   identity,
		api:        deps.API,
		surface:    deps.Surface,
		nav:        deps.Navigator,
		sink:       deps.Sink,
		directions: deps.Directions,
		store:      state.New(),
		recon:      reconcile.New(),
		wake:       make(chan struct{}, 1),
		events:     make(chan func(context.Context), 16),
		carColor:   cfg.CarColor,
	}

	t.animator = animation.NewScheduler(deps.Surface, cfg.AnimationDuration, cfg.FrameInterval)
	t.cancel = cancel.New(log, deps.API, deps.Navigator, t.clearTrip)
	t.overlay = gesture.NewOverlay(cfg.Viewport, deps.Navigator)
	t.dispatch = dispatch.New(log, t.store, dispatch.Callbacks{
		OnTripCompleted:   t.onTripCompleted,
		OnDriverCancelled: t.onDriverCancelled,
	})
	t.socket = deps.NewSocket(t.dispatch.Handle)
	t.socket.OnState(func(websocket.ConnectionState) { t.poke() })
	t.nav.OnNavigate(func(ports.Screen) { t.poke() })

	return t, nil
}

// Run opens the push channel, starts polling and renders until ctx is done.
func (t *Tracker) Run(ctx context.Context) error {
	ctx = t.logger.WithRequestID(ctx, newRequestID())

	t.mu.Lock()
	t.runCtx = ctx
	t.mu.Unlock()

	t.redrawer = route.NewRedrawer(ctx, t.logger, t.surface, t.directions, t.cfg.RouteDebounce)

	if err := t.socket.Open(ctx, t.identity.RiderID); err != nil {
		t.logger.Error(ctx, "ws_open_failed", "Failed to open push channel", err, nil)
	}

	t.logger.Info(ctx, "tracker_started", "Tracking active ride", map[string]any{
		"rider_id":      t.identity.RiderID,
		"poll_interval": t.cfg.PollInterval.String(),
	})

	var wg conc.WaitGroup
	wg.Go(func() { t.pollLoop(ctx) })

	defer func() {
		wg.Wait()
		t.shutdown(context.WithoutCancel(ctx))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.store.Changes():
			t.render(ctx)
		case <-t.wake:
			t.render(ctx)
		case fn := <-t.events:
			fn(ctx)
		}
	}
}

// poke asks the loop to render again.
func (t *Tracker) poke() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// post runs fn on the loop goroutine.
func (t *Tracker) post(ctx context.Context, fn func(context.Context)) bool {
	select {
	case t.events <- fn:
		return true
	case <-ctx.Done():
		return false
	}
}

// do runs fn on the loop goroutine and waits for its result.
func (t *Tracker) do(ctx context.Context, fn func(context.Context) error) error {
	t.mu.RLock()
	running := t.runCtx
	t.mu.RUnlock()
	if running == nil {
		return ErrStopped
	}

	res := make(chan error, 1)
	if !t.post(ctx, func(loopCtx context.Context) { res <- fn(loopCtx) }) {
		return ctx.Err()
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-running.Done():
		return ErrStopped
	}
}

func (t *Tracker) render(ctx context.Context) {
	in := t.store.Inputs()
	change := t.recon.Apply(in.Snapshot, in.Status, in.Location)

	if change.TripChanged {
		t.teardown()
	}

	view := change.Next
	if view != nil && t.socket.State() != websocket.Connected {
		cp := *view
		cp.StatusMessage = StatusTryingToConnect
		view = &cp
	}

	t.mu.Lock()
	t.view = view
	t.mu.Unlock()

	if view == nil {
		t.publish(ctx, nil)
		return
	}

	ctx = t.logger.WithTripID(ctx, view.TripID)

	if change.PositionChanged() {
		t.moveDriver(view.TargetPosition)
	}
	if change.PhaseChanged() {
		dest := view.Destination()
		t.surface.PlaceMarker(ports.Marker{
			ID:       MarkerDestinationID,
			Kind:     ports.MarkerDestination,
			Position: dest.Point,
			Color:    mapview.DestinationColor(view.RoutePhase),
		})
	}
	if change.PositionChanged() || change.PhaseChanged() {
		t.redrawer.Schedule(route.QueryFor(view))
	}

	if gesture.ShouldRedirect(view, t.nav.Current()) {
		t.nav.Navigate(ctx, ports.ScreenLiveTrip)
	}

	t.publish(ctx, view)
}

// moveDriver places the driver marker on first sight and animates it afterwards.
func (t *Tracker) moveDriver(target trip.Point) {
	if _, ok := t.surface.MarkerPosition(MarkerDriverID); !ok {
		t.surface.PlaceMarker(ports.Marker{
			ID:       MarkerDriverID,
			Kind:     ports.MarkerDriver,
			Position: target,
			Color:    mapview.CarColors[t.CarColor()],
		})
		return
	}
	t.animator.AnimateTo(MarkerDriverID, target)
}

// teardown removes everything drawn for the previous ride.
func (t *Tracker) teardown() {
	t.animator.CancelAll()
	if t.redrawer != nil {
		t.redrawer.Stop()
	}
	t.surface.RemoveMarker(MarkerDriverID)
	t.surface.RemoveMarker(MarkerDestinationID)
	t.surface.RemoveRoute()
	t.cancel.Reset()
}

func (t *Tracker) shutdown(ctx context.Context) {
	t.socket.Close()
	t.teardown()

	t.mu.Lock()
	t.runCtx = nil
	t.mu.Unlock()

	t.logger.Info(ctx, "tracker_stopped", "Tracker stopped", nil)
}

func (t *Tracker) publish(ctx context.Context, view *trip.View) {
	t.mu.Lock()
	same := sameView(t.published, view)
	if !same {
		t.published = view
	}
	t.mu.Unlock()

	if same || t.sink == nil {
		return
	}
	t.sink.Offer(ctx, t.identity.RiderID, view)
}

func sameView(a, b *trip.View) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.TripID == b.TripID &&
		a.DriverID == b.DriverID &&
		a.TargetPosition == b.TargetPosition &&
		a.RoutePhase == b.RoutePhase &&
		a.StatusText == b.StatusText &&
		a.StatusMessage == b.StatusMessage &&
		a.SnapshotStatus == b.SnapshotStatus &&
		a.Live == b.Live
}

// clearTrip forgets the ride; the next render tears its overlays down.
func (t *Tracker) clearTrip(context.Context) {
	t.store.ClearTrip()
}

func (t *Tracker) onTripCompleted(ctx context.Context, _ event.TripStatus) {
	t.post(ctx, func(loopCtx context.Context) {
		t.clearTrip(loopCtx)
		t.nav.Navigate(loopCtx, ports.ScreenHome)
	})
}

func (t *Tracker) onDriverCancelled(_ context.Context, e event.TripStatus) {
	t.cancel.DriverCancelled(e.Message)
}

// ----- read side -----

// View returns the last rendered view, or nil.
func (t *Tracker) View() *trip.View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.view == nil {
		return nil
	}
	cp := *t.view
	return &cp
}

// Connection returns the push channel state.
func (t *Tracker) Connection() websocket.ConnectionState {
	return t.socket.State()
}

// RiderID is the identity being tracked.
func (t *Tracker) RiderID() string {
	return t.identity.RiderID
}

// CarColor is the colour name of the driver marker.
func (t *Tracker) CarColor() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.carColor
}

// Screen is where the rider is now.
func (t *Tracker) Screen() ports.Screen {
	return t.nav.Current()
}

// OverlayVisible reports whether the "return to ride" control is shown.
func (t *Tracker) OverlayVisible() bool {
	return gesture.Visible(t.View(), t.nav.Current())
}

// OverlayPosition is where the control is drawn.
func (t *Tracker) OverlayPosition() gesture.Point {
	return t.overlay.Position()
}

// CancelStatus is what the cancel dialog shows.
func (t *Tracker) CancelStatus() cancel.Status {
	return t.cancel.Status()
}

// ----- write side -----

// SetCarColor recolours the driver marker.
func (t *Tracker) SetCarColor(ctx context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	color, ok := mapview.CarColors[name]
	if !ok {
		return ErrUnknownCarColor
	}
	return t.do(ctx, func(loopCtx context.Context) error {
		t.mu.Lock()
		t.carColor = name
		t.mu.Unlock()
		t.surface.RecolorMarker(MarkerDriverID, color)
		t.logger.Info(loopCtx, "car_color_changed", "Driver marker colour changed", map[string]any{"color": name})
		return nil
	})
}

// OpenCancel opens the cancel dialog for the current ride.
func (t *Tracker) OpenCancel() error {
	view := t.View()
	if view == nil || !view.Active() {
		return ErrNoActiveRide
	}
	return t.cancel.Open(cancel.Target{TripID: view.TripID, DriverID: view.DriverID})
}

// SelectCancelReason picks the reason shown in the dialog.
func (t *Tracker) SelectCancelReason(reason string) error {
	return t.cancel.SelectReason(reason)
}

// SubmitCancel sends the cancellation.
func (t *Tracker) SubmitCancel(ctx context.Context) error {
	ctx = t.logger.WithRequestID(ctx, newRequestID())
	return t.cancel.Submit(ctx)
}

// DismissCancel closes the dialog.
func (t *Tracker) DismissCancel() {
	t.cancel.Dismiss()
}

// AcknowledgeCancel dismisses the driver-cancel notice.
func (t *Tracker) AcknowledgeCancel(ctx context.Context) bool {
	return t.cancel.Acknowledge(ctx)
}

// OverlayPointer feeds one pointer event to the "return to ride" control.
func (t *Tracker) OverlayPointer(ctx context.Context, action string, at gesture.Point) (gesture.Outcome, error) {
	var outcome gesture.Outcome
	err := t.do(ctx, func(loopCtx context.Context) error {
		if !gesture.Visible(t.View(), t.nav.Current()) {
			return ErrNoActiveRide
		}
		switch action {
		case "down":
			t.overlay.PointerDown(at, gesture.ButtonPrimary)
		case "move":
			t.overlay.PointerMove(at)
		case "up":
			outcome = t.overlay.Release(loopCtx)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		return nil
	})
	return outcome, err
}

// OverlayKey feeds a key press to the "return to ride" control.
func (t *Tracker) OverlayKey(ctx context.Context, key string) (gesture.Outcome, error) {
	var outcome gesture.Outcome
	err := t.do(ctx, func(loopCtx context.Context) error {
		if !gesture.Visible(t.View(), t.nav.Current()) {
			return ErrNoActiveRide
		}
		outcome = t.overlay.Press(loopCtx, key)
		return nil
	})
	return outcome, err
}

// Navigate moves the rider to screen.
func (t *Tracker) Navigate(ctx context.Context, screen ports.Screen) {
	t.nav.Navigate(ctx, screen)
}
