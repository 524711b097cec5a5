package trip

const (
	StatusTextSearching = "Looking for a driver..."
	StatusTextLocating  = "Locating driver..."
)

// DriverDisplay is what the rider sees about the assigned driver.
type DriverDisplay struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	PhotoURL  string `json:"photo_url"`
	CarNumber string `json:"car_number"`
	CarColor  string `json:"car_color"`
}

// View is the reconciled, render-ready trip state. It is recomputed, never mutated.
type View struct {
	TripID         string         `json:"trip_id"`
	DriverID       string         `json:"driver_id,omitempty"`
	TargetPosition Point          `json:"target_position"`
	RoutePhase     Phase          `json:"route_phase"`
	StatusText     string         `json:"status_text"`
	StatusMessage  string         `json:"status_message,omitempty"`
	SnapshotStatus Status         `json:"snapshot_status"`
	Pickup         Place          `json:"pickup"`
	Dropoff        Place          `json:"dropoff"`
	Driver         *DriverDisplay `json:"driver,omitempty"`
	Live           bool           `json:"live"` // position came from a push event
}

// Destination is pickup while heading to pickup, dropoff otherwise.
func (v *View) Destination() Place {
	if v.RoutePhase == PhaseToDropoff {
		return v.Dropoff
	}
	return v.Pickup
}

// Cancelled reports whether the snapshot says the ride was cancelled.
func (v *View) Cancelled() bool {
	return v != nil && v.SnapshotStatus == StatusCancelled
}

// Active reports whether the view describes a ride the rider can return to.
func (v *View) Active() bool {
	return v != nil && !v.SnapshotStatus.Terminal()
}
