package contracts

// ActiveRideIDResponse is returned by GET /api/trip/get-active-ride-id.
type ActiveRideIDResponse struct {
	Status bool    `json:"status"`
	TripID *string `json:"trip_id"`
}

// ActiveTrip is returned by GET /api/trip/get-active-ride/?tid=<id>.
type ActiveTrip struct {
	TripID               string  `json:"trip_id" validate:"required"`
	RiderID              string  `json:"rider_id"`
	PaymentID            string  `json:"payment_id"`
	DriverID             *string `json:"driver_id"`
	PickupLocation       string  `json:"pickup_location"`
	PickupLat            float64 `json:"pickup_lat" validate:"latitude"`
	PickupLng            float64 `json:"pickup_lng" validate:"longitude"`
	DropoffLocation      string  `json:"dropoff_location"`
	DropoffLat           float64 `json:"dropoff_lat" validate:"latitude"`
	DropoffLng           float64 `json:"dropoff_lng" validate:"longitude"`
	EstimatedDistanceKm  float64 `json:"estimated_distance_km" validate:"gte=0"`
	EstimatedDurationMin float64 `json:"estimated_duration_min" validate:"gte=0"`
	EstimatedPrice       float64 `json:"estimated_price" validate:"gte=0"`
	Status               string  `json:"status" validate:"required,oneof=searching accepted completed cancelled"`
}

// CancelRideRequest is the body of POST /api/trip/cancel-ride.
type CancelRideRequest struct {
	TripID   string `json:"trip_id"`
	DriverID string `json:"driver_id"`
	Reason   string `json:"reason"`
}

// CancelRideResponse is the reply of POST /api/trip/cancel-ride.
type CancelRideResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}
