package trackerapp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ride-tracker/internal/general/config"
	"ride-tracker/internal/general/jwt"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"
	"ride-tracker/internal/software/cancel"
	"ride-tracker/internal/software/navigation"
)

var ErrNoActiveRide = errors.New("no active ride to cancel")

// Cancel cancels the rider's active ride with reason, outside of a tracking session.
func Cancel(ctx context.Context, cfg *config.Config, log *logger.Logger, reason string, out io.Writer) error {
	identity, err := jwt.ResolveIdentity(cfg.Auth.RiderID, cfg.Auth.Token, cfg.Auth.Secret)
	if err != nil {
		return err
	}
	api, err := newTripAPI(cfg, log, identity)
	if err != nil {
		return err
	}

	tripID, ok, err := api.ActiveRideID(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoActiveRide
	}
	snap, err := api.ActiveTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if snap.Status.Terminal() {
		return ErrNoActiveRide
	}

	router := navigation.NewRouter(log, ports.ScreenLiveTrip)
	flow := cancel.New(log, api, router, nil)

	if err := flow.Open(cancel.Target{TripID: snap.TripID, DriverID: snap.DriverIDOrEmpty()}); err != nil {
		return err
	}
	if err := flow.SelectReason(reason); err != nil {
		return err
	}
	if err := flow.Submit(log.WithTripID(ctx, snap.TripID)); err != nil {
		if status := flow.Status(); status.Error != "" {
			return fmt.Errorf("%s: %w", status.Error, err)
		}
		return err
	}

	fmt.Fprintf(out, "Ride %s cancelled (%s)\n", snap.TripID, reason)
	return nil
}
