package contracts

// Push message types
const (
	TypeTripStatus           = "TRIP_STATUS"
	TypeDriverLocationUpdate = "DRIVER_LOCATION_UPDATE"
)

// REST paths
const (
	PathActiveRideID = "/api/trip/get-active-ride-id"
	PathActiveRide   = "/api/trip/get-active-ride/"
	PathCancelRide   = "/api/trip/cancel-ride"
)

// Exchanges
const (
	ExchangeTripViewFanout = "trip_view_fanout"
)

// Queues
const (
	QueueTripViews = "trip_views"
)
