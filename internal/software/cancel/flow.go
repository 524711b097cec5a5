// Package cancel drives the rider's in-trip cancellation dialog.
package cancel

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/ports"
)

// Reasons offered to the rider, in display order.
var Reasons = []string{
	"I no longer need a ride",
	"Driver asked me to cancel",
	"Wait time is too long",
	"Found another ride",
}

const (
	MsgReasonRequired       = "Please select a reason."
	MsgCancelFailed         = "Unable to cancel ride. Please try again."
	DefaultDriverCancelText = "Your ride has been cancelled by driver."
)

var (
	ErrReasonRequired  = errors.New("cancel reason is required")
	ErrUnknownReason   = errors.New("unknown cancel reason")
	ErrSubmitInFlight  = errors.New("cancel request already in flight")
	ErrNotOpen         = errors.New("cancel dialog is not open")
	ErrNoTrip          = errors.New("no active trip to cancel")
	ErrCancelFailed    = errors.New("cancel request failed")
	ErrDriverCancelled = errors.New("ride was cancelled by the driver")
)

// Phase of the cancellation flow.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseAwaitingReason  Phase = "awaiting_reason"
	PhaseSubmitting      Phase = "submitting"
	PhaseSucceeded       Phase = "succeeded"
	PhaseDriverCancelled Phase = "driver_cancelled"
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	return string(p)
}

// Target identifies the ride the dialog was opened for.
type Target struct {
	TripID   string
	DriverID string
}

// Status is what the dialog renders.
type Status struct {
	Phase   Phase    `json:"phase"`
	TripID  string   `json:"trip_id,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Error   string   `json:"error,omitempty"`
	Notice  string   `json:"notice,omitempty"`
	Reasons []string `json:"reasons"`
}

// Canceller is the backend call the flow makes.
type Canceller interface {
	CancelRide(ctx context.Context, req ports.CancelRequest) (bool, error)
}

// Flow is the cancellation state machine. One submission may be in flight.
type Flow struct {
	logger  *logger.Logger
	api     Canceller
	nav     ports.Navigator
	cleared func(ctx context.Context)

	mu     sync.Mutex
	phase  Phase
	target Target
	reason string
	errMsg string
	notice string
}

// New creates an idle Flow. cleared is called before navigating home after the ride ended.
func New(log *logger.Logger, api Canceller, nav ports.Navigator, cleared func(ctx context.Context)) *Flow {
	if cleared == nil {
		cleared = func(context.Context) {}
	}
	return &Flow{logger: log, api: api, nav: nav, cleared: cleared, phase: PhaseIdle}
}

// Open shows the dialog for target with no reason selected.
func (f *Flow) Open(target Target) error {
	if strings.TrimSpace(target.TripID) == "" {
		return ErrNoTrip
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.phase {
	case PhaseDriverCancelled:
		return ErrDriverCancelled
	case PhaseSubmitting:
		return ErrSubmitInFlight
	}

	f.phase = PhaseAwaitingReason
	f.target = target
	f.reason = ""
	f.errMsg = ""
	return nil
}

// SelectReason picks one of Reasons.
func (f *Flow) SelectReason(reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase != PhaseAwaitingReason {
		return ErrNotOpen
	}
	if !slices.Contains(Reasons, reason) {
		return fmt.Errorf("%w: %q", ErrUnknownReason, reason)
	}
	f.reason = reason
	f.errMsg = ""
	return nil
}

// Dismiss closes the dialog and keeps the ride.
func (f *Flow) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase == PhaseAwaitingReason {
		f.phase = PhaseIdle
		f.reason = ""
		f.errMsg = ""
	}
}

// Submit sends the cancel request. Without a reason it fails locally with ErrReasonRequired.
// On success trip state is cleared and the rider goes home; on failure the dialog stays
// open with an inline error so the rider can retry.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	switch f.phase {
	case PhaseSubmitting:
		f.mu.Unlock()
		return ErrSubmitInFlight
	case PhaseDriverCancelled:
		f.mu.Unlock()
		return ErrDriverCancelled
	case PhaseAwaitingReason:
	default:
		f.mu.Unlock()
		return ErrNotOpen
	}
	if f.reason == "" {
		f.errMsg = MsgReasonRequired
		f.mu.Unlock()
		return ErrReasonRequired
	}

	f.phase = PhaseSubmitting
	f.errMsg = ""
	req := ports.CancelRequest{TripID: f.target.TripID, DriverID: f.target.DriverID, Reason: f.reason}
	f.mu.Unlock()

	ctx = f.logger.WithTripID(ctx, req.TripID)
	ok, err := f.api.CancelRide(ctx, req)

	f.mu.Lock()
	if f.phase != PhaseSubmitting {
		// the driver cancelled while we were waiting; the notice wins
		f.mu.Unlock()
		return ErrDriverCancelled
	}
	if err != nil || !ok {
		f.phase = PhaseAwaitingReason
		f.errMsg = MsgCancelFailed
		f.mu.Unlock()

		if err == nil {
			err = errors.New("backend reported failure")
		}
		f.logger.Error(ctx, "cancel_ride_failed", "Cancel ride request failed", err, map[string]any{
			"reason": req.Reason,
		})
		return fmt.Errorf("%w: %w", ErrCancelFailed, err)
	}
	f.phase = PhaseSucceeded
	f.mu.Unlock()

	f.logger.Info(ctx, "ride_cancelled", "Ride cancelled by rider", map[string]any{"reason": req.Reason})

	f.cleared(ctx)
	f.nav.Navigate(ctx, ports.ScreenHome)
	return nil
}

// DriverCancelled replaces whatever is showing with a one-way notice.
func (f *Flow) DriverCancelled(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultDriverCancelText
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.phase = PhaseDriverCancelled
	f.notice = message
	f.reason = ""
	f.errMsg = ""
}

// Acknowledge dismisses the driver-cancel notice, clears trip state and goes home.
func (f *Flow) Acknowledge(ctx context.Context) bool {
	f.mu.Lock()
	if f.phase != PhaseDriverCancelled {
		f.mu.Unlock()
		return false
	}
	f.phase = PhaseIdle
	f.notice = ""
	f.target = Target{}
	f.mu.Unlock()

	f.cleared(ctx)
	f.nav.Navigate(ctx, ports.ScreenHome)
	return true
}

// Reset returns to Idle when a different ride (or none) becomes current.
// A pending driver-cancel notice survives until acknowledged.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase == PhaseDriverCancelled || f.phase == PhaseSubmitting {
		return
	}
	f.phase = PhaseIdle
	f.target = Target{}
	f.reason = ""
	f.errMsg = ""
}

// Status returns what the dialog should show.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	return Status{
		Phase:   f.phase,
		TripID:  f.target.TripID,
		Reason:  f.reason,
		Error:   f.errMsg,
		Notice:  f.notice,
		Reasons: slices.Clone(Reasons),
	}
}
