package trip

import "strings"

// Phase tells whether the driver is routed toward pickup or toward dropoff.
type Phase string

const (
	PhaseToPickup  Phase = "to_pickup"
	PhaseToDropoff Phase = "to_dropoff"
)

// AssignedStatus is the driver status assumed when no matching location event exists.
const AssignedStatus = "assigned"

// NormalizeDriverStatus lowercases, trims and collapses whitespace runs into single underscores.
func NormalizeDriverStatus(status string) string {
	return strings.Join(strings.Fields(strings.ToLower(status)), "_")
}

// PhaseOf maps a raw driver status onto a route phase.
// "On Route", "on_route" and "onroute" all mean the driver is heading to dropoff.
func PhaseOf(driverStatus string) Phase {
	switch NormalizeDriverStatus(driverStatus) {
	case "on_route", "onroute":
		return PhaseToDropoff
	default:
		return PhaseToPickup
	}
}

// String returns the string representation of the Phase.
func (phase Phase) String() string {
	return string(phase)
}
