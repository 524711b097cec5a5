package contracts

// TripViewMessage is broadcast on ExchangeTripViewFanout whenever the reconciled view changes.
// An empty TripID with Cleared=true means the rider no longer has an active ride.
type TripViewMessage struct {
	RiderID    string   `json:"rider_id"`
	TripID     string   `json:"trip_id,omitempty"`
	DriverID   string   `json:"driver_id,omitempty"`
	Position   GeoPoint `json:"position"`
	RoutePhase string   `json:"route_phase,omitempty"`
	StatusText string   `json:"status_text,omitempty"`
	Cleared    bool     `json:"cleared,omitempty"`
	Envelope
}
