// Package trip contains the enrichment functions layered on top of the
// per-waypoint weather data: packing suggestions, timeline merging, rest
// stops, departure heuristics, trucker warnings, route-wide condition
// aggregation, turn-by-turn annotation, and bridge clearance alerts.
package trip

import (
	"fmt"
	"strings"

	"routecast/internal/conditions"
	"routecast/internal/types"
)

const maxPackingSuggestions = 8

// PackingSuggestions scans the aggregated temperature range and condition
// keywords across the whole route and emits prioritized items, capped at
// eight. Charger and snacks are always included.
func PackingSuggestions(waypoints []types.WaypointWeather) []types.PackingSuggestion {
	var suggestions []types.PackingSuggestion

	var temps []int
	var hasRain, hasSnow, hasWind, hasSun bool

	for _, wp := range waypoints {
		if wp.Weather == nil {
			continue
		}
		if wp.Weather.Temperature != nil {
			temps = append(temps, *wp.Weather.Temperature)
		}

		cond := strings.ToLower(wp.Weather.Conditions)
		if strings.Contains(cond, "rain") || strings.Contains(cond, "shower") {
			hasRain = true
		}
		if strings.Contains(cond, "snow") || strings.Contains(cond, "flurr") {
			hasSnow = true
		}
		if strings.Contains(cond, "wind") {
			hasWind = true
		}
		if strings.Contains(cond, "sun") || strings.Contains(cond, "clear") {
			hasSun = true
		}
		if conditions.ParseWindSpeed(wp.Weather.WindSpeed) >= 15 {
			hasWind = true
		}
	}

	if len(temps) > 0 {
		minTemp, maxTemp := temps[0], temps[0]
		for _, t := range temps[1:] {
			if t < minTemp {
				minTemp = t
			}
			if t > maxTemp {
				maxTemp = t
			}
		}

		if minTemp < 40 {
			suggestions = append(suggestions, types.PackingSuggestion{
				Item:     "Warm jacket",
				Reason:   fmt.Sprintf("Temperatures as low as %d°F expected", minTemp),
				Priority: "essential",
			})
		}
		if minTemp < 32 {
			suggestions = append(suggestions, types.PackingSuggestion{
				Item:     "Gloves & hat",
				Reason:   "Freezing temperatures along route",
				Priority: "essential",
			})
		}
		if maxTemp > 85 {
			suggestions = append(suggestions, types.PackingSuggestion{
				Item:     "Extra water",
				Reason:   fmt.Sprintf("High temperatures up to %d°F", maxTemp),
				Priority: "essential",
			})
		}
		if maxTemp-minTemp > 20 {
			suggestions = append(suggestions, types.PackingSuggestion{
				Item:     "Layers",
				Reason:   fmt.Sprintf("Temperature range of %d°F", maxTemp-minTemp),
				Priority: "recommended",
			})
		}
	}

	if hasRain {
		suggestions = append(suggestions, types.PackingSuggestion{
			Item:     "Umbrella/rain jacket",
			Reason:   "Rain expected along route",
			Priority: "essential",
		})
	}
	if hasSnow {
		suggestions = append(suggestions, types.PackingSuggestion{
			Item:     "Snow gear & emergency kit",
			Reason:   "Snow conditions expected",
			Priority: "essential",
		})
	}
	if hasWind {
		suggestions = append(suggestions, types.PackingSuggestion{
			Item:     "Windbreaker",
			Reason:   "Windy conditions expected",
			Priority: "recommended",
		})
	}
	if hasSun {
		suggestions = append(suggestions,
			types.PackingSuggestion{
				Item:     "Sunglasses",
				Reason:   "Sunny conditions expected",
				Priority: "recommended",
			},
			types.PackingSuggestion{
				Item:     "Sunscreen",
				Reason:   "Sun exposure during drive",
				Priority: "optional",
			})
	}

	suggestions = append(suggestions,
		types.PackingSuggestion{
			Item:     "Phone charger",
			Reason:   "Keep devices charged for navigation",
			Priority: "essential",
		},
		types.PackingSuggestion{
			Item:     "Snacks & water",
			Reason:   "Stay hydrated and energized",
			Priority: "recommended",
		})

	if len(suggestions) > maxPackingSuggestions {
		suggestions = suggestions[:maxPackingSuggestions]
	}
	return suggestions
}
