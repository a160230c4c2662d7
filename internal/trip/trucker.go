package trip

import (
	"fmt"
	"strings"

	"routecast/internal/conditions"
	"routecast/internal/types"
)

const maxTruckerWarnings = 8

// TruckerWarnings produces high-profile-vehicle warnings per waypoint:
// tiered crosswind messages, chain requirements, icy bridge decks, and
// visibility notes. Warnings sharing the same prefix (the text before
// " - ") are deduplicated, keeping the first occurrence.
func TruckerWarnings(waypoints []types.WaypointWeather) []string {
	var warnings []string

	for _, wp := range waypoints {
		if wp.Weather == nil {
			continue
		}

		location := wp.Waypoint.Name
		if location == "" {
			location = fmt.Sprintf("Mile %d", int(wp.Waypoint.DistanceFromStart))
		}

		wind := conditions.ParseWindSpeed(wp.Weather.WindSpeed)
		if wind > 20 {
			switch {
			case wind > 35:
				warnings = append(warnings, fmt.Sprintf("⚠️ DANGER: %d mph winds at %s - Consider stopping until winds subside", wind, location))
			case wind > 25:
				warnings = append(warnings, fmt.Sprintf("🚛 High crosswind risk (%d mph) at %s - Reduce speed significantly", wind, location))
			default:
				warnings = append(warnings, fmt.Sprintf("💨 Moderate winds (%d mph) at %s - Stay alert", wind, location))
			}
		}

		cond := strings.ToLower(wp.Weather.Conditions)
		if strings.Contains(cond, "snow") {
			warnings = append(warnings, fmt.Sprintf("❄️ Snow at %s - Chain requirements may be in effect", location))
		}

		if wp.Weather.TemperatureOr(70) <= 32 {
			warnings = append(warnings, fmt.Sprintf("🧊 Freezing temps at %s - Bridge decks may be icy", location))
		}

		if strings.Contains(cond, "fog") {
			warnings = append(warnings, fmt.Sprintf("🌫️ Reduced visibility at %s - Maintain safe following distance", location))
		}
	}

	var unique []string
	seen := map[string]bool{}
	for _, w := range warnings {
		key := w
		if idx := strings.Index(w, " - "); idx >= 0 {
			key = w[:idx]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, w)
	}

	if len(unique) > maxTruckerWarnings {
		unique = unique[:maxTruckerWarnings]
	}
	return unique
}
