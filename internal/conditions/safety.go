package conditions

import (
	"fmt"
	"strings"

	"routecast/internal/types"
)

const (
	maxFactors         = 5
	maxRecommendations = 4
)

// Score computes the 0-100 route safety score for the given vehicle type.
// Each waypoint with weather data contributes penalties scaled by the
// vehicle's sensitivity multipliers; factor and recommendation strings are
// deduplicated so a condition spanning many waypoints appears once.
func Score(waypoints []types.WaypointWeather, vehicleType types.VehicleType) types.SafetyScore {
	vehicle := types.ProfileFor(vehicleType)

	score := 100.0
	var factors []string
	var recommendations []string

	addFactor := func(factor, rec string) {
		for _, f := range factors {
			if f == factor {
				return
			}
		}
		factors = append(factors, factor)
		if rec != "" {
			recommendations = append(recommendations, rec)
		}
	}

	for _, wp := range waypoints {
		if wp.Weather == nil {
			continue
		}

		temp := wp.Weather.TemperatureOr(70)
		if temp < 32 {
			score -= 15 * vehicle.IceSensitivity
			addFactor("Freezing temperatures - ice risk", "Reduce speed on bridges and overpasses")
		} else if temp < 40 {
			score -= 5 * vehicle.IceSensitivity
		}

		wind := ParseWindSpeed(wp.Weather.WindSpeed)
		if wind > 30 {
			score -= 20 * vehicle.WindSensitivity
			rec := "Maintain firm grip on steering wheel"
			if vehicleType.IsHighProfile() {
				rec = "Consider delaying trip - dangerous wind conditions for your vehicle"
			}
			addFactor("High winds", rec)
		} else if wind > 20 {
			score -= 8 * vehicle.WindSensitivity
		}

		cond := strings.ToLower(wp.Weather.Conditions)
		if strings.Contains(cond, "snow") || strings.Contains(cond, "blizzard") {
			score -= 25 * vehicle.VisibilitySensitivity
			addFactor("Snow/winter conditions", "Use winter driving mode, increase following distance")
		} else if strings.Contains(cond, "rain") || strings.Contains(cond, "storm") {
			score -= 15 * vehicle.VisibilitySensitivity
			addFactor("Rain/storm conditions", "Turn on headlights, reduce speed")
		} else if strings.Contains(cond, "fog") {
			score -= 20 * vehicle.VisibilitySensitivity
			addFactor("Low visibility - fog", "Use low beam headlights, avoid sudden stops")
		}

		for _, alert := range wp.Alerts {
			if alert.IsSevere() {
				score -= 20
				addFactor(fmt.Sprintf("Weather alert: %s", alert.Event), "")
			}
		}
	}

	final := int(score)
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	var riskLevel types.RiskLevel
	switch {
	case final >= 80:
		riskLevel = types.RiskLow
	case final >= 60:
		riskLevel = types.RiskModerate
	case final >= 40:
		riskLevel = types.RiskHigh
	default:
		riskLevel = types.RiskExtreme
		recommendations = append([]string{"⚠️ Consider postponing trip if possible"}, recommendations...)
	}

	if len(factors) == 0 {
		factors = append(factors, "Good driving conditions")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Safe travels! Normal driving conditions expected")
	}

	if len(factors) > maxFactors {
		factors = factors[:maxFactors]
	}
	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}

	return types.SafetyScore{
		OverallScore:    final,
		RiskLevel:       riskLevel,
		VehicleType:     vehicle.Name,
		Factors:         factors,
		Recommendations: recommendations,
	}
}
