package types

// RouteRequest is the POST /v1/routes/weather request body.
type RouteRequest struct {
	Origin          string      `json:"origin" validate:"required"`
	Destination     string      `json:"destination" validate:"required"`
	DepartureTime   string      `json:"departure_time,omitempty"` // RFC 3339, optional
	Stops           []StopPoint `json:"stops,omitempty" validate:"dive"`
	VehicleType     VehicleType `json:"vehicle_type,omitempty"`
	TruckerMode     bool        `json:"trucker_mode,omitempty"`
	VehicleHeightFt *float64    `json:"vehicle_height_ft,omitempty" validate:"omitempty,gt=0"`
}

// FavoriteRequest is the POST /v1/routes/favorites request body. Favorites
// are shallow references, not copies of a computed response.
type FavoriteRequest struct {
	Origin      string      `json:"origin" validate:"required"`
	Destination string      `json:"destination" validate:"required"`
	Stops       []StopPoint `json:"stops,omitempty" validate:"dive"`
	Name        string      `json:"name,omitempty"`
}

// GeocodeRequest is the POST /v1/geocode request body.
type GeocodeRequest struct {
	Location string `json:"location" validate:"required"`
}

// GeocodeResult is the POST /v1/geocode response payload.
type GeocodeResult struct {
	Location string  `json:"location"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}
