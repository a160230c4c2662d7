package trip

import (
	"fmt"
	"strings"
	"time"

	"routecast/internal/conditions"
	"routecast/internal/types"
)

// Fixed heuristic thresholds for the departure recommendation. They are
// documented constants, not tunables.
const (
	departureOptimalScore    = 80
	departureAcceptableScore = 60
	departureMaxHazards      = 2
)

var badConditionKeywords = []string{"rain", "storm", "snow", "fog"}

// OptimalDeparture evaluates whether leaving at baseDeparture is sensible.
// It counts hazard-like waypoints (bad-keyword conditions plus active
// alerts) and reuses the safety scorer with the baseline car profile.
func OptimalDeparture(waypoints []types.WaypointWeather, baseDeparture time.Time) *types.DepartureWindow {
	hazards := 0
	var hazardConditions []string
	seen := map[string]bool{}

	for _, wp := range waypoints {
		if wp.Weather != nil {
			cond := strings.ToLower(wp.Weather.Conditions)
			for _, bad := range badConditionKeywords {
				if strings.Contains(cond, bad) {
					hazards++
					if !seen[wp.Weather.Conditions] {
						seen[wp.Weather.Conditions] = true
						hazardConditions = append(hazardConditions, wp.Weather.Conditions)
					}
					break
				}
			}
		}
		hazards += len(wp.Alerts)
	}

	safety := conditions.Score(waypoints, types.VehicleCar)

	var recommendation, summary string
	switch {
	case hazards == 0 && safety.OverallScore >= departureOptimalScore:
		recommendation = "✅ Current departure time is optimal - clear conditions expected"
		summary = "Good driving conditions throughout your route"
	case hazards <= departureMaxHazards && safety.OverallScore >= departureAcceptableScore:
		recommendation = "👍 Acceptable conditions - drive with caution"
		summary = fmt.Sprintf("Some weather: %s", joinOr(hazardConditions, 2, "Minor concerns"))
	default:
		recommendation = "⏰ Consider departing 2-3 hours later for improved conditions"
		summary = fmt.Sprintf("Current concerns: %s", joinOr(hazardConditions, 3, "Weather alerts active"))
	}

	totalDuration := 120
	if len(waypoints) > 0 {
		totalDuration = waypoints[len(waypoints)-1].Waypoint.ETAMinutes
	}

	return &types.DepartureWindow{
		DepartureTime:     baseDeparture,
		ArrivalTime:       baseDeparture.Add(time.Duration(totalDuration) * time.Minute),
		SafetyScore:       safety.OverallScore,
		HazardCount:       hazards,
		Recommendation:    recommendation,
		ConditionsSummary: summary,
	}
}

// joinOr joins up to n distinct condition strings, falling back when none
// were collected.
func joinOr(values []string, n int, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	if len(values) > n {
		values = values[:n]
	}
	return strings.Join(values, ", ")
}
