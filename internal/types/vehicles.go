package types

// VehicleType enumerates the supported vehicle classes for safety scoring.
type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleSUV        VehicleType = "suv"
	VehicleTruck      VehicleType = "truck"
	VehicleSemi       VehicleType = "semi"
	VehicleRV         VehicleType = "rv"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleTrailer    VehicleType = "trailer"
)

// VehicleProfile holds the per-category penalty multipliers applied by the
// safety scorer.
type VehicleProfile struct {
	WindSensitivity       float64
	IceSensitivity        float64
	VisibilitySensitivity float64
	Name                  string
}

// vehicleProfiles is the static sensitivity lookup keyed by VehicleType.
var vehicleProfiles = map[VehicleType]VehicleProfile{
	VehicleCar:        {WindSensitivity: 1.0, IceSensitivity: 1.0, VisibilitySensitivity: 1.0, Name: "Car/Sedan"},
	VehicleSUV:        {WindSensitivity: 1.1, IceSensitivity: 0.9, VisibilitySensitivity: 1.0, Name: "SUV"},
	VehicleTruck:      {WindSensitivity: 1.3, IceSensitivity: 0.85, VisibilitySensitivity: 1.0, Name: "Pickup Truck"},
	VehicleSemi:       {WindSensitivity: 1.8, IceSensitivity: 1.2, VisibilitySensitivity: 1.3, Name: "Semi Truck"},
	VehicleRV:         {WindSensitivity: 1.7, IceSensitivity: 1.1, VisibilitySensitivity: 1.2, Name: "RV/Motorhome"},
	VehicleMotorcycle: {WindSensitivity: 2.0, IceSensitivity: 2.5, VisibilitySensitivity: 1.5, Name: "Motorcycle"},
	VehicleTrailer:    {WindSensitivity: 1.6, IceSensitivity: 1.3, VisibilitySensitivity: 1.1, Name: "Vehicle + Trailer"},
}

// ProfileFor returns the sensitivity profile for a vehicle type, falling
// back to the car profile for unknown values.
func ProfileFor(v VehicleType) VehicleProfile {
	if p, ok := vehicleProfiles[v]; ok {
		return p
	}
	return vehicleProfiles[VehicleCar]
}

// IsKnownVehicleType reports whether v is one of the supported classes.
func IsKnownVehicleType(v VehicleType) bool {
	_, ok := vehicleProfiles[v]
	return ok
}

// IsHighProfile reports whether the vehicle class is especially exposed to
// crosswinds (used to pick the sterner wind recommendation).
func (v VehicleType) IsHighProfile() bool {
	switch v {
	case VehicleSemi, VehicleRV, VehicleTrailer, VehicleMotorcycle:
		return true
	}
	return false
}
