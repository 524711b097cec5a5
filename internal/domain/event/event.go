package event

import "strings"

// CompletionMessage is the TRIP_STATUS message that ends the ride, compared case-insensitively.
const CompletionMessage = "trip completed"

const (
	// CodeTripCompleted with a completion message ends the ride.
	CodeTripCompleted = 200
	// CodeDriverCancelled means the driver cancelled; the message is shown to the rider.
	CodeDriverCancelled = 300
)

// TripStatus is the latest TRIP_STATUS push event.
type TripStatus struct {
	Status  int
	Message string
}

// IsCompletion reports whether the event signals the end of the trip.
func (e TripStatus) IsCompletion() bool {
	return e.Status == CodeTripCompleted && strings.EqualFold(strings.TrimSpace(e.Message), CompletionMessage)
}

// IsDriverCancellation reports whether the driver cancelled the ride.
func (e TripStatus) IsDriverCancellation() bool {
	return e.Status == CodeDriverCancelled
}

// DriverLocation is the latest DRIVER_LOCATION_UPDATE push event.
type DriverLocation struct {
	TripID    string
	RiderID   string
	DriverID  string
	Lat       float64
	Lng       float64
	Status    string
	Name      string
	Phone     string
	PhotoURL  string
	CarNumber string
	CarColor  string
}
