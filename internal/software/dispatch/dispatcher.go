// Package dispatch routes inbound push messages by their type discriminant.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ride-tracker/internal/domain/event"
	"ride-tracker/internal/general/contracts"
	"ride-tracker/internal/general/logger"
)

var (
	ErrMalformed   = errors.New("malformed push message")
	ErrUnknownType = errors.New("unknown push message type")
	ErrForeignTrip = errors.New("location event for another trip")
)

// Store receives the latest push events.
type Store interface {
	SetStatus(e event.TripStatus)
	SetLocation(e event.DriverLocation) bool
}

// Callbacks are raised for one-shot signals that are not kept as state.
type Callbacks struct {
	OnTripCompleted   func(ctx context.Context, e event.TripStatus)
	OnDriverCancelled func(ctx context.Context, e event.TripStatus)
}

// Dispatcher parses push messages and forwards them to the store.
type Dispatcher struct {
	logger *logger.Logger
	store  Store
	cb     Callbacks
}

// New creates a Dispatcher.
func New(log *logger.Logger, store Store, cb Callbacks) *Dispatcher {
	return &Dispatcher{logger: log, store: store, cb: cb}
}

// Handle dispatches one message and logs what was dropped. It matches websocket.Handler.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) {
	err := d.Dispatch(ctx, raw)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownType):
		d.logger.Debug(ctx, "push_message_ignored", "Ignoring push message", map[string]any{"error": err.Error()})
	case errors.Is(err, ErrForeignTrip):
		d.logger.Debug(ctx, "push_location_dropped", "Dropping location of another trip", map[string]any{"error": err.Error()})
	default:
		d.logger.Error(ctx, "push_message_invalid", "Invalid push payload", err, map[string]any{"bytes": len(raw)})
	}
}

// Dispatch applies one message. Malformed payloads are never applied.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) error {
	var env contracts.WSEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case contracts.TypeTripStatus:
		return d.handleTripStatus(ctx, raw)
	case contracts.TypeDriverLocationUpdate:
		return d.handleDriverLocation(raw)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func (d *Dispatcher) handleTripStatus(ctx context.Context, raw []byte) error {
	var msg contracts.WSTripStatus
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("%w: trip status: %v", ErrMalformed, err)
	}

	e := event.TripStatus{Status: msg.Status, Message: msg.Message}

	if e.IsCompletion() {
		d.logger.Info(ctx, "trip_completed", "Trip completed", map[string]any{"message": e.Message})
		if d.cb.OnTripCompleted != nil {
			d.cb.OnTripCompleted(ctx, e)
		}
		return nil
	}

	d.store.SetStatus(e)

	if e.IsDriverCancellation() {
		d.logger.Info(ctx, "trip_cancelled_by_driver", "Driver cancelled the trip", map[string]any{"message": e.Message})
		if d.cb.OnDriverCancelled != nil {
			d.cb.OnDriverCancelled(ctx, e)
		}
	}
	return nil
}

func (d *Dispatcher) handleDriverLocation(raw []byte) error {
	var msg contracts.WSDriverLocationUpdate
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("%w: driver location: %v", ErrMalformed, err)
	}
	if msg.TripID == "" {
		return fmt.Errorf("%w: driver location without trip_id", ErrMalformed)
	}

	e := event.DriverLocation{
		TripID:    msg.TripID,
		RiderID:   msg.RiderID,
		DriverID:  msg.DriverID,
		Lat:       msg.Lat,
		Lng:       msg.Lng,
		Status:    msg.Status,
		Name:      msg.DriverName,
		Phone:     msg.DriverPhoneNumber,
		PhotoURL:  msg.DriverProfilePic,
		CarNumber: msg.DriverCarNumber,
		CarColor:  msg.DriverCarColor,
	}

	if !d.store.SetLocation(e) {
		return fmt.Errorf("%w: %s", ErrForeignTrip, e.TripID)
	}
	return nil
}
