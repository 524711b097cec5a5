package trip

import (
	"errors"
	"strings"
)

var ErrEmptyTripID = errors.New("trip_id cannot be empty")

// Snapshot is the point-in-time trip record returned by the active-ride poll.
type Snapshot struct {
	TripID               string
	RiderID              string
	PaymentID            string
	DriverID             *string
	Pickup               Place
	Dropoff              Place
	EstimatedDistanceKm  float64
	EstimatedDurationMin float64
	EstimatedPrice       float64
	Status               Status
}

// Validate checks invariants of the snapshot.
func (s *Snapshot) Validate() error {
	if strings.TrimSpace(s.TripID) == "" {
		return ErrEmptyTripID
	}
	if !s.Status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.Pickup.Validate(); err != nil {
		return err
	}
	return s.Dropoff.Validate()
}

// DriverIDOrEmpty returns the assigned driver id or "".
func (s *Snapshot) DriverIDOrEmpty() string {
	if s == nil || s.DriverID == nil {
		return ""
	}
	return *s.DriverID
}
