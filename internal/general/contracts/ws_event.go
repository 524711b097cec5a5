package contracts

// WSEnvelope is the minimal shape used to classify inbound push messages.
type WSEnvelope struct {
	Type string `json:"type"`
}

// WSTripStatus mirrors "TRIP_STATUS" messages sent to the rider socket.
type WSTripStatus struct {
	Type    string `json:"type"` // "TRIP_STATUS"
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// WSDriverLocationUpdate mirrors "DRIVER_LOCATION_UPDATE" messages sent to the rider socket.
type WSDriverLocationUpdate struct {
	Type              string  `json:"type"` // "DRIVER_LOCATION_UPDATE"
	TripID            string  `json:"trip_id"`
	RiderID           string  `json:"rider_id"`
	DriverID          string  `json:"driver_id"`
	Lat               float64 `json:"lat"`
	Lng               float64 `json:"lng"`
	Status            string  `json:"status"`
	DriverName        string  `json:"driver_name"`
	DriverPhoneNumber string  `json:"driver_phone_number"`
	DriverProfilePic  string  `json:"driver_profile_pic"`
	DriverCarNumber   string  `json:"driver_car_number"`
	DriverCarColor    string  `json:"driver_car_color"`
}
