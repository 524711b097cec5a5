package tracker

import (
	"context"
	"errors"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/tripapi"
	"ride-tracker/internal/ports"
	"ride-tracker/internal/software/cancel"

	"github.com/google/uuid"
)

func newRequestID() string { return uuid.NewString() }

// pollLoop refreshes the active ride right away and then every PollInterval.
func (t *Tracker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		t.Poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll fetches the active ride once and feeds the result into the store.
func (t *Tracker) Poll(ctx context.Context) {
	ctx = t.logger.WithRequestID(ctx, newRequestID())

	tripID, ok, err := t.api.ActiveRideID(ctx)
	switch {
	case errors.Is(err, tripapi.ErrUnauthenticated):
		t.unauthenticated(ctx, err)
		return
	case ctx.Err() != nil:
		return
	case err != nil:
		// a failed active-ride lookup is treated as having no ride
		t.logger.Error(ctx, "active_ride_lookup_failed", "Failed to fetch active ride id", err, nil)
		t.noRide(ctx)
		return
	case !ok:
		t.noRide(ctx)
		return
	}

	if err := t.socket.Open(ctx, t.identity.RiderID); err != nil {
		t.logger.Error(ctx, "ws_open_failed", "Failed to open push channel", err, nil)
	}

	ctx = t.logger.WithTripID(ctx, tripID)
	snap, err := t.api.ActiveTrip(ctx, tripID)
	switch {
	case errors.Is(err, tripapi.ErrUnauthenticated):
		t.unauthenticated(ctx, err)
		return
	case ctx.Err() != nil:
		return
	case err != nil:
		t.logger.Error(ctx, "active_ride_invalid", "Active ride is no longer valid", err, nil)
		t.store.ClearTrip()
		t.nav.Navigate(ctx, ports.ScreenHome)
		return
	}

	switch snap.Status {
	case trip.StatusCancelled:
		t.logger.Info(ctx, "active_ride_cancelled", "Active ride was cancelled", nil)
		t.store.ClearTrip()
		switch t.cancel.Status().Phase {
		case cancel.PhaseAwaitingReason, cancel.PhaseSubmitting:
			// the notice replaces the dialog, even with a submission in flight
			t.cancel.DriverCancelled("")
		case cancel.PhaseDriverCancelled:
			// acknowledging the notice navigates home
		default:
			t.nav.Navigate(ctx, ports.ScreenHome)
		}
	case trip.StatusCompleted:
		t.logger.Info(ctx, "active_ride_completed", "Active ride completed", nil)
		t.store.ClearTrip()
		t.nav.Navigate(ctx, ports.ScreenHome)
	default:
		if t.store.SetSnapshot(snap) {
			t.logger.Info(ctx, "active_ride_changed", "Tracking new ride", map[string]any{
				"status":    snap.Status.String(),
				"driver_id": snap.DriverIDOrEmpty(),
			})
		}
	}
}

// noRide clears a ride that disappeared and leaves the live trip screen.
func (t *Tracker) noRide(ctx context.Context) {
	if t.store.CurrentTripID() == "" {
		return
	}
	t.store.ClearTrip()
	if t.nav.Current() == ports.ScreenLiveTrip {
		t.nav.Navigate(ctx, ports.ScreenHome)
	}
}

// unauthenticated drops the session: the push channel closes until a poll succeeds again.
func (t *Tracker) unauthenticated(ctx context.Context, err error) {
	t.logger.Error(ctx, "session_unauthenticated", "Session is not authenticated", err, nil)
	t.socket.Close()
	t.store.ClearTrip()
	t.nav.Navigate(ctx, ports.ScreenLogin)
}
